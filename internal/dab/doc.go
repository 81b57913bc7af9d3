// Package dab holds the vocabulary shared by every stage of the receiver:
// transmission modes, ensemble and service descriptions, parse statuses, the
// bounded queues that join the acquisition stages, and the interfaces the
// pipeline consumes from its collaborators.
//
// Concrete collaborators live in their own packages (source, eti, ensemble,
// packet, datagroup). The pipeline depends only on the interfaces declared
// here so tests can drive it with scripted fakes.
package dab
