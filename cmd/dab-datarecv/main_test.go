package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"datarecv/internal/config"
	"datarecv/internal/dab"
	"datarecv/internal/testsupport"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestRootRequiresExactlyOneAddress(t *testing.T) {
	for _, args := range [][]string{nil, {"32", "33"}} {
		stdout, stderr, err := runCLI(t, args, "")
		if err == nil {
			t.Fatalf("args %v: expected error", args)
		}
		requireContains(t, stderr, "Usage:")
		requireContains(t, stderr, "dab-datarecv <packet_address>")
		if stdout != "" {
			t.Fatalf("args %v: usage should not go to stdout, got %q", args, stdout)
		}
	}
}

func TestRootRejectsInvalidAddress(t *testing.T) {
	for _, arg := range []string{"abc", "0", "1024", "-5"} {
		_, stderr, err := runCLI(t, []string{"--", arg}, "")
		if err == nil {
			t.Fatalf("address %q: expected error", arg)
		}
		requireContains(t, err.Error(), "invalid packet address")
		requireContains(t, stderr, "Usage:")
	}
}

func TestParsePacketAddress(t *testing.T) {
	cases := map[string]uint16{"32": 32, "0x20": 32, " 1023 ": 1023, "1": 1}
	for in, want := range cases {
		got, err := parsePacketAddress(in)
		if err != nil {
			t.Fatalf("parsePacketAddress(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("parsePacketAddress(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestRootReceivesReplayedMessages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	const service dab.ServiceID = 0xE1C00098
	message := []byte("bulletin 42")
	frames := testsupport.IPDTBroadcast(service, 0x20, message).Frames(t)
	testsupport.WriteRecording(t, cfg.Source.Path, frames)
	configPath := writeTestConfig(t, cfg)

	_, stderr, err := runCLI(t, []string{"0x20"}, configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, stderr)
	}
	rec := testsupport.MustReadRecord(t, cfg.Paths.OutputDir, 1)
	if !bytes.Equal(rec.Data, message) {
		t.Fatalf("record 1 = %q, want %q", rec.Data, message)
	}
	requireContains(t, stderr, "message stored")
}

func TestRootFailsWhenEnsembleNeverSettles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteRecording(t, cfg.Source.Path, nil)
	configPath := writeTestConfig(t, cfg)

	_, _, err := runCLI(t, []string{"32"}, configPath)
	if err == nil {
		t.Fatal("expected acquisition failure")
	}
	requireContains(t, err.Error(), "ensemble not ready")
}

func TestChannelsCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"channels"}, "")
	if err != nil {
		t.Fatalf("channels: %v", err)
	}
	requireContains(t, out, "5A")
	requireContains(t, out, "13F")
	requireContains(t, out, "197.648 MHz")
}

func TestRecordsCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithIndex())
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"records"}, configPath)
	if err != nil {
		t.Fatalf("records on empty index: %v", err)
	}
	requireContains(t, out, "No records indexed")

	store := testsupport.MustOpenStore(t, cfg)
	for _, msg := range [][]byte{[]byte("first"), bytes.Repeat([]byte{0xAA}, 2048)} {
		if _, err := store.Save(context.Background(), msg); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	out, _, err = runCLI(t, []string{"records"}, configPath)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	requireContains(t, out, "2.0 KiB")
	requireContains(t, out, "IPDT/0")
	requireContains(t, out, store.Path(2))
}

func TestRecordsCommandRequiresIndex(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	_, _, err := runCLI(t, []string{"records"}, configPath)
	if err == nil {
		t.Fatal("expected error when the index is disabled")
	}
	requireContains(t, err.Error(), "store.index")
}

func TestCheckCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"check"}, configPath)
	if err == nil {
		t.Fatal("expected missing recording to fail the check")
	}
	requireContains(t, out, "FAIL")
	requireContains(t, out, "Output directory")

	testsupport.WriteRecording(t, cfg.Source.Path, nil)
	out, _, err = runCLI(t, []string{"check"}, configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if strings.Contains(out, "FAIL") {
		t.Fatalf("expected all checks to pass:\n%s", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Channel: 8B (197.648 MHz)")
}
