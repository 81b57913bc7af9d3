// Package reassembly turns raw packet-mode payloads of one service into
// stored messages.
//
// Each payload passes through the packet parser, the data group parser and
// a fixed-offset strip before it is handed to the store. Incomplete and
// foreign-address fragments are dropped silently; malformed ones are
// dropped with a single error line carrying the numeric status.
package reassembly
