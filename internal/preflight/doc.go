// Package preflight provides readiness checks for the filesystem paths,
// binaries and endpoints the receiver depends on.
//
// The receiver runs RunAll at startup and logs each failed check as a
// warning; reception still starts, since a missing recording or endpoint
// surfaces as a source error anyway. The "check" subcommand prints the same
// results without starting reception.
package preflight
