// Package main hosts the dab-datarecv CLI entrypoint and command graph.
//
// The root command takes the packet address to receive and runs the
// receiver until the input ends or the process is interrupted. Subcommands
// cover the record index, the Band III channel table, preflight checks and
// configuration scaffolding.
//
// Keep this package lean: behaviour lives in the internal packages and is
// only surfaced here.
package main
