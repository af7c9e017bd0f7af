// Package canon provides RFC 8785 canonical JSON and domain-separated
// SHA-256 digests.
//
// Digests computed here are persisted (levels.inputs_hash) and later
// recomputed from client-echoed data, so the encoding must be byte-stable:
//   - object keys sorted by UTF-16 code units
//   - strings NFC normalized, no HTML escaping
//   - integers only; floats and null are rejected
package canon
