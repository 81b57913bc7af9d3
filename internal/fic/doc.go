// Package fic decodes the Fast Information Channel into a service table.
//
// The FIC arrives as a sequence of 32-byte Fast Information Blocks, each
// holding up to 30 bytes of Fast Information Groups and a CRC. Only the
// FIGs needed to enumerate services and locate packet-mode data are
// interpreted: 0/0 (ensemble identifier), 0/2 (services and their
// components), 0/3 (packet-mode component addressing), 1/0 (ensemble
// label), 1/1 and 1/5 (service labels). Everything else is skipped.
package fic
