// Package fingerprint computes a short, deterministic hash of the stable
// prompt prefix. It exists only to correlate provider prompt-cache hit and
// miss telemetry across requests; it is not a security token and nothing
// branches on it.
package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/dshills/reviewgen/internal/backend"
)

// Separator joins segments before hashing so that ["ab","c"] and ["a","bc"]
// hash differently.
const Separator = "\x1e"

// Length is the number of hex characters returned by Hash.
const Length = 16

// Hash fingerprints the stable segments plus the model id.
func Hash(stableSegments []string, model string) string {
	material := strings.Join(stableSegments, Separator) + Separator + model
	h := sha256.Sum256([]byte(material))
	return fmt.Sprintf("%x", h[:Length/2])
}

// FromRequest fingerprints the request's stable segments and model. Dynamic
// segments never contribute.
func FromRequest(req backend.ReviewRequest) string {
	return Hash(req.StableSegments(), req.Model)
}
