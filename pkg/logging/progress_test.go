package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFileProgress_Counts(t *testing.T) {
	var buf bytes.Buffer
	fp := NewFileProgress("ingest", zerolog.New(&buf))

	fp.RecordFile("sales", 3, time.Millisecond)
	fp.RecordSkip("notes.txt", "skipping non-matching file")
	fp.RecordFile("purchases", 5, time.Millisecond)

	if fp.Completed() != 2 {
		t.Errorf("Completed() = %d, want 2", fp.Completed())
	}
	if fp.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", fp.Skipped())
	}
	if fp.Rows() != 8 {
		t.Errorf("Rows() = %d, want 8", fp.Rows())
	}
	tables := fp.Tables()
	if len(tables) != 2 || tables[0] != "sales" || tables[1] != "purchases" {
		t.Errorf("Tables() = %v, want [sales purchases]", tables)
	}

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"file":"notes.txt"`) {
		t.Errorf("expected skip warning, got: %s", out)
	}
}

func TestFileProgress_LogTotal(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantOutcome string
	}{
		{"success", nil, `"outcome":"succeeded"`},
		{"failure", errors.New("boom"), `"outcome":"failed"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			fp := NewFileProgress("ingest", zerolog.New(&buf))
			fp.LogTotal(tt.err)

			out := buf.String()
			if !strings.Contains(out, tt.wantOutcome) {
				t.Errorf("expected %s, got: %s", tt.wantOutcome, out)
			}
			if !strings.Contains(out, `"level":"info"`) {
				t.Errorf("total line should be info level, got: %s", out)
			}
			// The error was logged where it happened; the total line only reports the outcome.
			if strings.Contains(out, "boom") {
				t.Errorf("error repeated in total line: %s", out)
			}
			if !strings.Contains(out, `"duration_h"`) {
				t.Errorf("expected duration_h field, got: %s", out)
			}
		})
	}
}

func TestFileProgress_RecordFileElapsed(t *testing.T) {
	var buf bytes.Buffer
	fp := NewFileProgress("ingest", zerolog.New(&buf))
	fp.RecordFile("sales", 10, 1500*time.Millisecond)

	if !strings.Contains(buf.String(), `"elapsed_h":"1.50s"`) {
		t.Errorf("expected human elapsed time, got: %s", buf.String())
	}
}
