// Package backend holds the types shared by every layer of the acquisition
// engine: the immutable [ReviewRequest], the tagged [RawResponse] union that
// normalizes provider replies, and the error taxonomy.
//
// Provider adapters produce a RawResponse; the extraction chain consumes one.
// Neither side probes provider JSON directly once the response has been
// classified, which keeps shape detection in a single place ([RawResponse.Shape]).
//
// Every error surfaced to callers is a [*Error] whose Kind is one of the
// exported sentinels, so callers can branch with errors.Is:
//
//	if errors.Is(err, backend.ErrMissingCredential) { ... }
package backend
