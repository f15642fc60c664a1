package wire

import (
	"testing"

	"github.com/emberops/firefleet/pkg/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Kind
	}{
		{"fire event", "10:15:00 3 FIRE High", KindFireEvent},
		{"fire event with assignments", "10:15:00 3 FIRE High NONE drone1 drone2", KindFireEvent},
		{"telemetry", "drone1 EnRoute 120 80", KindTelemetry},
		{"telemetry with tags", "drone7 DroppingAgent TASK:3:High CAPACITY:0 205 240", KindTelemetry},
		{"drone prefix but no coordinates", "drone1 EnRoute high up", KindUnknown},
		{"short drone datagram with coordinates", "drone1 12 34", KindTelemetry},
		{"drone prefix never a fire event", "drone1 2 FIRE High", KindUnknown},
		{"zone info request", "ZONE_INFO_REQUEST:5", KindZoneInfoRequest},
		{"zone info response", "ZONE_INFO:5:220:240", KindZoneInfo},
		{"ack", "ACK", KindAck},
		{"short garbage", "hello world", KindUnknown},
		{"empty", "", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify([]byte(tt.data)); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestFireEventRoundTrip(t *testing.T) {
	ev := models.NewFireEvent("10:15:00", 3, models.SeverityHigh, models.ErrorNone)
	ev.Assign("drone1")
	ev.Assign("drone4")

	decoded, err := DecodeFireEvent(EncodeFireEvent(ev))
	if err != nil {
		t.Fatalf("DecodeFireEvent failed: %v", err)
	}

	if decoded.Time != "10:15:00" {
		t.Errorf("Expected time 10:15:00, got %s", decoded.Time)
	}
	if decoded.ZoneID != 3 {
		t.Errorf("Expected zone 3, got %d", decoded.ZoneID)
	}
	if decoded.Type != models.EventTypeFire {
		t.Errorf("Expected type FIRE, got %s", decoded.Type)
	}
	if decoded.Severity != models.SeverityHigh {
		t.Errorf("Expected severity High, got %s", decoded.Severity)
	}
	if decoded.ErrorKind != models.ErrorNone {
		t.Errorf("Expected error kind NONE, got %s", decoded.ErrorKind)
	}
	if len(decoded.AssignedUnits) != 2 || decoded.AssignedUnits[0] != "drone1" || decoded.AssignedUnits[1] != "drone4" {
		t.Errorf("Expected assigned units [drone1 drone4], got %v", decoded.AssignedUnits)
	}
}

func TestDecodeFireEventErrorKindToken(t *testing.T) {
	// First error-kind token wins; later ones become assigned unit ids.
	ev, err := DecodeFireEvent([]byte("09:00:00 2 FIRE Moderate drone3 NOZZLE_JAM drone5"))
	if err != nil {
		t.Fatalf("DecodeFireEvent failed: %v", err)
	}
	if ev.ErrorKind != models.ErrorNozzleJam {
		t.Errorf("Expected error kind NOZZLE_JAM, got %s", ev.ErrorKind)
	}
	if len(ev.AssignedUnits) != 2 || ev.AssignedUnits[0] != "drone3" || ev.AssignedUnits[1] != "drone5" {
		t.Errorf("Expected assigned units [drone3 drone5], got %v", ev.AssignedUnits)
	}
}

func TestDecodeFireEventTooShort(t *testing.T) {
	if _, err := DecodeFireEvent([]byte("10:00:00 1 FIRE")); err == nil {
		t.Error("Expected error for event with 3 fields")
	}
}

func TestTelemetryRoundTrip(t *testing.T) {
	capacity := 0.0
	fireOut := 3
	abandoned := 2
	newTask := 3

	tel := &models.Telemetry{
		DroneID:   "drone2",
		State:     models.StateDroppingAgent,
		Error:     models.ErrorNone,
		Task:      &models.TaskRef{ZoneID: 3, Severity: models.SeverityHigh},
		Capacity:  &capacity,
		FireOut:   &fireOut,
		Abandoned: &abandoned,
		NewTask:   &newTask,
		X:         205,
		Y:         240,
	}

	decoded, err := DecodeTelemetry(EncodeTelemetry(tel))
	if err != nil {
		t.Fatalf("DecodeTelemetry failed: %v", err)
	}

	if decoded.DroneID != "drone2" {
		t.Errorf("Expected drone2, got %s", decoded.DroneID)
	}
	if decoded.State != models.StateDroppingAgent {
		t.Errorf("Expected state DroppingAgent, got %s", decoded.State)
	}
	if decoded.Task == nil || decoded.Task.ZoneID != 3 || decoded.Task.Severity != models.SeverityHigh {
		t.Errorf("Expected task 3:High, got %+v", decoded.Task)
	}
	if decoded.Capacity == nil || *decoded.Capacity != 0 {
		t.Errorf("Expected capacity 0, got %v", decoded.Capacity)
	}
	if decoded.FireOut == nil || *decoded.FireOut != 3 {
		t.Errorf("Expected fire out 3, got %v", decoded.FireOut)
	}
	if decoded.Abandoned == nil || *decoded.Abandoned != 2 {
		t.Errorf("Expected abandoned 2, got %v", decoded.Abandoned)
	}
	if decoded.NewTask == nil || *decoded.NewTask != 3 {
		t.Errorf("Expected new task 3, got %v", decoded.NewTask)
	}
	if decoded.X != 205 || decoded.Y != 240 {
		t.Errorf("Expected coordinates (205,240), got (%d,%d)", decoded.X, decoded.Y)
	}
}

func TestDecodeTelemetryError(t *testing.T) {
	tel, err := DecodeTelemetry([]byte("drone4 Fault ERROR:DRONE_STUCK TASK:2:Low 44 19"))
	if err != nil {
		t.Fatalf("DecodeTelemetry failed: %v", err)
	}
	if tel.Error != models.ErrorStuck {
		t.Errorf("Expected error DRONE_STUCK, got %s", tel.Error)
	}
	if tel.State != models.StateFault {
		t.Errorf("Expected state Fault, got %s", tel.State)
	}
}

func TestDecodeTelemetryRejectsUnknownTag(t *testing.T) {
	if _, err := DecodeTelemetry([]byte("drone1 Idle BOGUS:7 10 10")); err == nil {
		t.Error("Expected error for unknown tag")
	}
}

func TestDecodeTelemetryRejectsUnknownState(t *testing.T) {
	if _, err := DecodeTelemetry([]byte("drone1 Hovering 10 10")); err == nil {
		t.Error("Expected error for unknown state")
	}
}

func TestZoneInfoRoundTrip(t *testing.T) {
	zoneID, err := DecodeZoneInfoRequest(EncodeZoneInfoRequest(7))
	if err != nil {
		t.Fatalf("DecodeZoneInfoRequest failed: %v", err)
	}
	if zoneID != 7 {
		t.Errorf("Expected zone 7, got %d", zoneID)
	}

	id, cx, cy, err := DecodeZoneInfo(EncodeZoneInfo(7, 220, 240))
	if err != nil {
		t.Fatalf("DecodeZoneInfo failed: %v", err)
	}
	if id != 7 || cx != 220 || cy != 240 {
		t.Errorf("Expected 7 (220,240), got %d (%d,%d)", id, cx, cy)
	}
}

func TestDecodeZoneInfoMalformed(t *testing.T) {
	if _, _, _, err := DecodeZoneInfo([]byte("ZONE_INFO:7:220")); err == nil {
		t.Error("Expected error for zone info with 2 fields")
	}
	if _, err := DecodeZoneInfoRequest([]byte("ZONE_INFO_REQUEST:x")); err == nil {
		t.Error("Expected error for non-numeric zone id")
	}
}
