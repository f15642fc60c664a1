package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emberops/firefleet/pkg/models"
)

func writeEventFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write event file: %v", err)
	}
	return path
}

func TestReadEventFile(t *testing.T) {
	path := writeEventFile(t, `
# morning incidents
10:15:00 3 FIRE High

10:16:30 1 FIRE Low
not-a-time 2 FIRE Moderate
10:17:00 zero FIRE Moderate
10:18:00 2 FIRE Moderate
`)

	events, err := ReadEventFile(path)
	if err != nil {
		t.Fatalf("ReadEventFile failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events (malformed lines skipped), got %d", len(events))
	}

	first := events[0]
	if first.Time != "10:15:00" || first.ZoneID != 3 || first.Type != models.EventTypeFire || first.Severity != models.SeverityHigh {
		t.Errorf("Unexpected first event: %+v", first)
	}
	if events[2].ZoneID != 2 || events[2].Severity != models.SeverityModerate {
		t.Errorf("Unexpected third event: %+v", events[2])
	}
}

func TestReadEventFileMissing(t *testing.T) {
	if _, err := ReadEventFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestReadEventFileTooFewFields(t *testing.T) {
	path := writeEventFile(t, "10:15:00 3 FIRE\n")
	events, err := ReadEventFile(path)
	if err != nil {
		t.Fatalf("ReadEventFile failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected short line skipped, got %d events", len(events))
	}
}
