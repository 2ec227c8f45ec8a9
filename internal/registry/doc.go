// Package registry is the static table of per-model parameter overrides.
//
// The table is embedded from overrides.yaml and parsed once; after that the
// registry is read-only and safe for concurrent use. [Registry.Resolve]
// combines an override with the generic mapping (thinking off: temperature 0
// and the base budget; thinking on: provider-specific temperature and a
// doubled budget).
package registry
