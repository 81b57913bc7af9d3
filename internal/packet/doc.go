// Package packet reassembles packet-mode data carried in an MSC sub-channel.
//
// Each packet is 24, 48, 72 or 96 bytes long and carries a 10-bit address,
// a 2-bit continuity index, first/last flags and up to 91 bytes of useful
// data protected by a CRC. A Parser is bound to one address and is stateful:
// it accumulates the useful data of consecutive packets until a packet
// flagged "last" completes the data group, then returns the whole group.
package packet
