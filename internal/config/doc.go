// Package config loads, normalizes, and validates dab-datarecv configuration.
//
// It supplies defaults for every section, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the DAB_DATARECV_OUTPUT_DIR
// environment override. Downstream packages receive resolved channel
// frequencies, parsed transmission modes and absolute directories rather
// than raw strings.
package config
