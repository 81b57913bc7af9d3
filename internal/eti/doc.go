// Package eti synchronises on ETI(NI) frames and splits them into the FIC
// and per-sub-channel payloads consumed by the ensemble decoder.
//
// Front ends such as eti-cmdline perform the OFDM demodulation and emit
// 6144-byte ETI frames; this package plays the demodulator role for the
// receive pipeline by turning that byte stream back into symbol blocks.
package eti
