// Package services defines shared utilities consumed by the pipeline stages
// and the external source integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and task identities
//     for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (fetch, not found, malformed record, empty date set,
//     blocked) without string matching.
//
// Source clients live in subpackages (see services/ecb).
package services
