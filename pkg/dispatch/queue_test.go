package dispatch

import (
	"testing"

	"github.com/emberops/firefleet/pkg/models"
)

func TestQueueSeverityOrdering(t *testing.T) {
	q := NewEventQueue()
	q.Push(models.NewFireEvent("10:00:00", 1, models.SeverityLow, models.ErrorNone))
	q.Push(models.NewFireEvent("10:00:01", 2, models.SeverityHigh, models.ErrorNone))
	q.Push(models.NewFireEvent("10:00:02", 3, models.SeverityModerate, models.ErrorNone))

	want := []int{2, 3, 1}
	for i, zoneID := range want {
		ev := q.Poll()
		if ev == nil {
			t.Fatalf("Poll %d returned nil", i)
		}
		if ev.ZoneID != zoneID {
			t.Errorf("Poll %d: expected zone %d, got %d", i, zoneID, ev.ZoneID)
		}
	}
	if q.Poll() != nil {
		t.Error("Expected nil from empty queue")
	}
}

func TestQueueTimeTieBreak(t *testing.T) {
	q := NewEventQueue()
	q.Push(models.NewFireEvent("10:00:05", 1, models.SeverityHigh, models.ErrorNone))
	q.Push(models.NewFireEvent("10:00:01", 2, models.SeverityHigh, models.ErrorNone))

	if ev := q.Poll(); ev.ZoneID != 2 {
		t.Errorf("Expected earlier event first, got zone %d", ev.ZoneID)
	}
}

func TestQueueEqualEventsFIFO(t *testing.T) {
	q := NewEventQueue()
	for zoneID := 1; zoneID <= 4; zoneID++ {
		q.Push(models.NewFireEvent("10:00:00", zoneID, models.SeverityHigh, models.ErrorNone))
	}
	for zoneID := 1; zoneID <= 4; zoneID++ {
		if ev := q.Poll(); ev.ZoneID != zoneID {
			t.Errorf("Expected zone %d, got %d", zoneID, ev.ZoneID)
		}
	}
}

func TestQueuePurgeZone(t *testing.T) {
	q := NewEventQueue()
	q.Push(models.NewFireEvent("10:00:00", 1, models.SeverityHigh, models.ErrorNone))
	q.Push(models.NewFireEvent("10:00:01", 2, models.SeverityLow, models.ErrorNone))
	q.Push(models.NewFireEvent("10:00:02", 1, models.SeverityModerate, models.ErrorNone))

	if removed := q.PurgeZone(1); removed != 2 {
		t.Errorf("Expected 2 purged events, got %d", removed)
	}
	if q.Len() != 1 {
		t.Errorf("Expected 1 remaining event, got %d", q.Len())
	}
	if ev := q.Poll(); ev.ZoneID != 2 {
		t.Errorf("Expected zone 2 to survive the purge, got %d", ev.ZoneID)
	}
}
