// Package msgstore persists reassembled messages.
//
// Every message becomes one file named by its decimal message ID inside a
// directory for the current run, <output dir>/<run UUID>. The file holds the ID, a type tag and a category on
// their own lines followed by the raw message bytes. IDs come from a
// Sequence owned by the Store: they start at 1 each run and advance on
// every attempted save, so a failed write leaves a gap.
//
// An optional SQLite index records each saved file under the run UUID so
// records from every run can be listed together.
package msgstore
