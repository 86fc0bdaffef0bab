package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_DoesNotPanic(t *testing.T) {
	for _, opts := range []Options{{}, {Debug: true}, {Human: true}, {Debug: true, Human: true}} {
		closer, err := Init(opts)
		if err != nil {
			t.Fatalf("Init(%+v) failed: %v", opts, err)
		}
		L().Info().Msg("test info")
		L().Debug().Msg("test debug")
		closer.Close()
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestInit_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ingestion_db.log")

	for _, msg := range []string{"first run", "second run"} {
		closer, err := Init(Options{File: path})
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		L().Info().Msg(msg)
		if err := closer.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}
	SetLogger(zerolog.New(os.Stderr))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "first run") || !strings.Contains(out, "second run") {
		t.Errorf("log file missing lines from both runs:\n%s", out)
	}
}

func TestWithPhase(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	log := WithPhase("test_phase")
	log.Info().Msg("test message")

	if !bytes.Contains(buf.Bytes(), []byte(`"phase":"test_phase"`)) {
		t.Errorf("expected phase field in output, got: %s", buf.String())
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).With().Str("custom", "field").Logger())

	L().Info().Msg("test")

	if !bytes.Contains(buf.Bytes(), []byte(`"custom":"field"`)) {
		t.Errorf("expected custom field in output, got: %s", buf.String())
	}

	SetLogger(zerolog.New(os.Stderr))
}
