package preflight

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"datarecv/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSourceExecutables(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "eti-stub")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	results := CheckSourceExecutables(config.Source{Kind: "command", Command: bin})
	if len(results) != 1 || !results[0].Passed || results[0].Detail != bin {
		t.Fatalf("expected stub to resolve, got %+v", results)
	}
	results = CheckSourceExecutables(config.Source{Kind: "command", Command: "clearly-not-present-binary"})
	if len(results) != 1 || results[0].Passed || results[0].Name != "Receiver command" {
		t.Fatalf("expected missing binary to fail, got %+v", results)
	}
	if results := CheckSourceExecutables(config.Source{Kind: "file"}); len(results) != 0 {
		t.Fatalf("expected no executable checks for a file source, got %+v", results)
	}
}

func TestCheckRecording(t *testing.T) {
	dir := t.TempDir()
	if result := CheckRecording(dir); result.Passed {
		t.Fatal("expected directory to be rejected")
	}
	path := filepath.Join(dir, "capture.eti")
	if err := os.WriteFile(path, make([]byte, 6144), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckRecording(path)
	if !result.Passed {
		t.Fatalf("expected recording to pass, got %q", result.Detail)
	}
}

func TestCheckEndpoint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()

	if result := CheckEndpoint(context.Background(), addr); !result.Passed {
		t.Fatalf("expected listener to be reachable, got %q", result.Detail)
	}
	ln.Close()
	if result := CheckEndpoint(context.Background(), addr); result.Passed {
		t.Fatal("expected closed listener to fail")
	}
	if result := CheckEndpoint(context.Background(), ""); result.Passed {
		t.Fatal("expected empty address to fail")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_FileSource(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Source.Kind = "file"
	cfg.Source.Path = filepath.Join(base, "missing.eti")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Recording" {
		t.Fatalf("expected only the recording check to fail, got %+v", failed)
	}
}
