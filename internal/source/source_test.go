package source

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"datarecv/internal/dab"
	"datarecv/internal/logging"
)

func drain(t *testing.T, ctx context.Context, src dab.SampleSource, samples *dab.SampleQueue) ([]byte, error) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- src.Run(ctx) }()
	var out []byte
	for {
		chunk, err := samples.Pop(ctx)
		if err != nil {
			break
		}
		out = append(out, chunk...)
	}
	return out, <-errCh
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{"": KindCommand, "Command": KindCommand, "file": KindFile, " tcp ": KindTCP} {
		got, err := ParseKind(input)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := ParseKind("usb"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestFileSourceReplaysRecording(t *testing.T) {
	ctx := testContext(t)
	data := bytes.Repeat([]byte{1, 2, 3, 4, 5}, 5000)
	path := filepath.Join(t.TempDir(), "capture.eti")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	samples := dab.NewQueue[dab.Sample](4)
	src, err := New(Config{Kind: KindFile, Path: path, ChunkSize: 1000}, samples, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := src.Tune(197648); err != nil {
		t.Fatalf("Tune: %v", err)
	}
	got, err := drain(t, ctx, src, samples)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("replayed %d bytes, want %d", len(got), len(data))
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	samples := dab.NewQueue[dab.Sample](1)
	src, err := NewFile(filepath.Join(t.TempDir(), "missing.eti"), samples, 0, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := src.Run(testContext(t)); err == nil {
		t.Fatal("expected open error")
	}
	if _, err := samples.Pop(context.Background()); err != dab.ErrQueueClosed {
		t.Fatalf("expected queue to be closed, got %v", err)
	}
}

func TestTCPSourceStreams(t *testing.T) {
	ctx := testContext(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	data := bytes.Repeat([]byte("eti"), 4096)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write(data)
		_ = conn.Close()
	}()

	samples := dab.NewQueue[dab.Sample](4)
	src, err := New(Config{Kind: KindTCP, Address: ln.Addr().String()}, samples, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := drain(t, ctx, src, samples)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("received %d bytes, want %d", len(got), len(data))
	}
}

func TestCommandSourcePassesChannelAndGain(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	ctx := testContext(t)
	script := filepath.Join(t.TempDir(), "frontend")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\"\necho diagnostics >&2\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	samples := dab.NewQueue[dab.Sample](4)
	src, err := NewCommand(script, []string{"-D", "1"}, samples, 0, nil)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := src.Enable(dab.AutomaticGainControl); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := src.Tune(197648); err != nil {
		t.Fatalf("Tune: %v", err)
	}
	got, err := drain(t, ctx, src, samples)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(string(got)) != "-D 1 -C 8B -Q" {
		t.Fatalf("unexpected front end args %q", got)
	}
}

func TestCommandSourceDrainsLongStderrLines(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	script := filepath.Join(t.TempDir(), "frontend")
	body := "#!/bin/sh\n" +
		"head -c 300000 /dev/zero | tr '\\0' x >&2\n" +
		"echo >&2\n" +
		"echo tail-marker >&2\n" +
		"head -c 200000 /dev/zero | tr '\\0' y >&2\n" +
		"printf frames\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Console: &logs})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	samples := dab.NewQueue[dab.Sample](4)
	src, err := NewCommand(script, nil, samples, 0, logger)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := src.Tune(197648); err != nil {
		t.Fatalf("Tune: %v", err)
	}
	got, err := drain(t, testContext(t), src, samples)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(got) != "frames" {
		t.Fatalf("unexpected front end output %q", got)
	}
	out := logs.String()
	if !strings.Contains(out, "tail-marker") {
		t.Fatalf("expected stderr after the long line to be logged:\n%.2000s", out)
	}
	if strings.Contains(out, strings.Repeat("x", maxLoggedLine+1)) {
		t.Fatal("expected long stderr lines to be truncated in the log")
	}
}

func TestCommandSourceRejectsUnknownFrequency(t *testing.T) {
	src, err := NewCommand("", nil, dab.NewQueue[dab.Sample](1), 0, nil)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := src.Tune(100000); err == nil {
		t.Fatal("expected tune error")
	}
	if err := src.Run(testContext(t)); err == nil {
		t.Fatal("expected untuned run to fail")
	}
}

func TestCommandSourceFailingProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	script := filepath.Join(t.TempDir(), "frontend")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 3\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	samples := dab.NewQueue[dab.Sample](1)
	src, err := NewCommand(script, nil, samples, 0, nil)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	if err := src.Tune(197648); err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if _, err := drain(t, testContext(t), src, samples); err == nil {
		t.Fatal("expected exit error")
	}
}
