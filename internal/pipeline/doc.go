// Package pipeline wires acquisition, demodulation, ensemble decoding and
// message reassembly into one cancellable run.
//
// Run starts the sample source and demodulator on their own goroutines,
// drives the ensemble decoder until the service table settles, subscribes
// every IPDT-carrying data service and then keeps decoding until the
// context ends or the input runs out. Each subscription is drained by its
// own reassembler so services never share parsing state.
//
// Collaborators are built through a Backend so tests can substitute fakes
// for any stage.
package pipeline
