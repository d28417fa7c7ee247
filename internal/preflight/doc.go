// Package preflight provides readiness checks for the filesystem paths and
// the exchange-rate source that fxpipe depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunAll with the source check disabled before
//     a run, so an unwritable artifact root fails before any task starts.
//   - The CLI "fxpipe status" command calls RunAll with every check enabled
//     and renders the results next to the dry-run plan.
package preflight
