// Package wire encodes and decodes the line-oriented ASCII datagram protocol
// spoken between the coordinator, the units, and the ingestion process. One
// message per datagram, space-separated fields, colon-prefixed tagged tokens
// position-independent within their span.
package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emberops/firefleet/pkg/models"
)

// Tag prefixes for optional telemetry tokens.
const (
	tagError     = "ERROR:"
	tagTask      = "TASK:"
	tagCapacity  = "CAPACITY:"
	tagFireOut   = "FIRE_OUT:"
	tagAbandoned = "ABANDONED:"
	tagNewTask   = "NEW_TASK:"
)

const (
	zoneInfoRequestPrefix = "ZONE_INFO_REQUEST:"
	zoneInfoPrefix        = "ZONE_INFO:"
	dronePrefix           = "drone"
)

// Ack is the coordinator's reply to an ingested fire event.
const Ack = "ACK"

// Kind classifies an inbound datagram.
type Kind int

const (
	KindFireEvent Kind = iota
	KindTelemetry
	KindZoneInfoRequest
	KindZoneInfo
	KindAck
	KindUnknown
)

// Classify determines the message kind of a raw datagram. A datagram is
// telemetry iff its first token starts with "drone" and its last two tokens
// parse as integers.
func Classify(data []byte) Kind {
	line := strings.TrimSpace(string(data))
	switch {
	case line == Ack:
		return KindAck
	case strings.HasPrefix(line, zoneInfoRequestPrefix):
		return KindZoneInfoRequest
	case strings.HasPrefix(line, zoneInfoPrefix):
		return KindZoneInfo
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return KindUnknown
	}
	if strings.HasPrefix(fields[0], dronePrefix) {
		if _, _, ok := lastTwoInts(fields); ok {
			return KindTelemetry
		}
		// Drone-prefixed but not coordinate-terminated; never a fire
		// event candidate.
		return KindUnknown
	}
	if len(fields) >= 4 {
		return KindFireEvent
	}
	return KindUnknown
}

// EncodeFireEvent renders a fire event literal:
// <time> <zoneId> <eventType> <severity> <errorKind> [droneId...]
func EncodeFireEvent(e *models.FireEvent) []byte {
	parts := []string{
		e.Time,
		strconv.Itoa(e.ZoneID),
		e.Type,
		string(e.Severity),
		string(e.ErrorKind),
	}
	parts = append(parts, e.AssignedUnits...)
	return []byte(strings.Join(parts, " "))
}

// DecodeFireEvent parses a fire event literal. The first four tokens are
// mandatory; any later token matching an error kind sets ErrorKind (first
// such token wins); every other trailing token is an assigned unit id.
func DecodeFireEvent(data []byte) (*models.FireEvent, error) {
	fields := strings.Fields(string(data))
	if len(fields) < 4 {
		return nil, fmt.Errorf("fire event needs at least 4 fields, got %d", len(fields))
	}

	zoneID, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("bad zone id %q: %w", fields[1], err)
	}

	e := models.NewFireEvent(fields[0], zoneID, models.ParseSeverity(fields[3]), models.ErrorNone)
	e.Type = fields[2]

	seenError := false
	for _, tok := range fields[4:] {
		if models.IsErrorKind(tok) && !seenError {
			e.ErrorKind = models.ErrorKind(tok)
			seenError = true
			continue
		}
		e.AssignedUnits = append(e.AssignedUnits, tok)
	}
	return e, nil
}

// EncodeTelemetry renders a telemetry literal:
// <droneId> <state> [tags...] <x> <y>
func EncodeTelemetry(t *models.Telemetry) []byte {
	parts := []string{t.DroneID, string(t.State)}
	if t.Error != "" && t.Error != models.ErrorNone {
		parts = append(parts, tagError+string(t.Error))
	}
	if t.Task != nil {
		parts = append(parts, fmt.Sprintf("%s%d:%s", tagTask, t.Task.ZoneID, t.Task.Severity))
	}
	if t.Capacity != nil {
		parts = append(parts, tagCapacity+strconv.FormatFloat(*t.Capacity, 'f', -1, 64))
	}
	if t.FireOut != nil {
		parts = append(parts, tagFireOut+strconv.Itoa(*t.FireOut))
	}
	if t.Abandoned != nil {
		parts = append(parts, tagAbandoned+strconv.Itoa(*t.Abandoned))
	}
	if t.NewTask != nil {
		parts = append(parts, tagNewTask+strconv.Itoa(*t.NewTask))
	}
	parts = append(parts, strconv.Itoa(t.X), strconv.Itoa(t.Y))
	return []byte(strings.Join(parts, " "))
}

// DecodeTelemetry parses a telemetry literal. The last two tokens are the
// coordinates; everything between the state name and the coordinates is a
// tagged token.
func DecodeTelemetry(data []byte) (*models.Telemetry, error) {
	fields := strings.Fields(string(data))
	if len(fields) < 4 {
		return nil, fmt.Errorf("telemetry needs at least 4 fields, got %d", len(fields))
	}

	x, y, ok := lastTwoInts(fields)
	if !ok {
		return nil, fmt.Errorf("telemetry %q does not end in coordinates", string(data))
	}

	state, ok := models.ParseUnitState(fields[1])
	if !ok {
		return nil, fmt.Errorf("unknown unit state %q", fields[1])
	}

	t := &models.Telemetry{
		DroneID: fields[0],
		State:   state,
		Error:   models.ErrorNone,
		X:       x,
		Y:       y,
	}

	for _, tok := range fields[2 : len(fields)-2] {
		if err := applyTag(t, tok); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func applyTag(t *models.Telemetry, tok string) error {
	switch {
	case strings.HasPrefix(tok, tagError):
		kind := strings.TrimPrefix(tok, tagError)
		if !models.IsErrorKind(kind) {
			return fmt.Errorf("unknown error kind %q", kind)
		}
		t.Error = models.ErrorKind(kind)
	case strings.HasPrefix(tok, tagTask):
		body := strings.TrimPrefix(tok, tagTask)
		zoneStr, sevStr, found := strings.Cut(body, ":")
		if !found {
			return fmt.Errorf("malformed task tag %q", tok)
		}
		zoneID, err := strconv.Atoi(zoneStr)
		if err != nil {
			return fmt.Errorf("malformed task tag %q: %w", tok, err)
		}
		t.Task = &models.TaskRef{ZoneID: zoneID, Severity: models.ParseSeverity(sevStr)}
	case strings.HasPrefix(tok, tagCapacity):
		litres, err := strconv.ParseFloat(strings.TrimPrefix(tok, tagCapacity), 64)
		if err != nil {
			return fmt.Errorf("malformed capacity tag %q: %w", tok, err)
		}
		t.Capacity = &litres
	case strings.HasPrefix(tok, tagFireOut):
		return tagZone(tok, tagFireOut, &t.FireOut)
	case strings.HasPrefix(tok, tagAbandoned):
		return tagZone(tok, tagAbandoned, &t.Abandoned)
	case strings.HasPrefix(tok, tagNewTask):
		return tagZone(tok, tagNewTask, &t.NewTask)
	default:
		return fmt.Errorf("unknown telemetry tag %q", tok)
	}
	return nil
}

func tagZone(tok, prefix string, dst **int) error {
	zoneID, err := strconv.Atoi(strings.TrimPrefix(tok, prefix))
	if err != nil {
		return fmt.Errorf("malformed tag %q: %w", tok, err)
	}
	*dst = &zoneID
	return nil
}

// EncodeZoneInfoRequest renders ZONE_INFO_REQUEST:<zoneId>.
func EncodeZoneInfoRequest(zoneID int) []byte {
	return []byte(zoneInfoRequestPrefix + strconv.Itoa(zoneID))
}

// DecodeZoneInfoRequest parses a zone info request.
func DecodeZoneInfoRequest(data []byte) (int, error) {
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, zoneInfoRequestPrefix) {
		return 0, fmt.Errorf("not a zone info request: %q", line)
	}
	return strconv.Atoi(strings.TrimPrefix(line, zoneInfoRequestPrefix))
}

// EncodeZoneInfo renders ZONE_INFO:<zoneId>:<cx>:<cy>.
func EncodeZoneInfo(zoneID, cx, cy int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d:%d", zoneInfoPrefix, zoneID, cx, cy))
}

// DecodeZoneInfo parses a zone info response into zone id and center.
func DecodeZoneInfo(data []byte) (zoneID, cx, cy int, err error) {
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, zoneInfoPrefix) {
		return 0, 0, 0, fmt.Errorf("not a zone info response: %q", line)
	}
	parts := strings.Split(strings.TrimPrefix(line, zoneInfoPrefix), ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("zone info needs 3 fields, got %d", len(parts))
	}
	vals := make([]int, 3)
	for i, p := range parts {
		if vals[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, fmt.Errorf("bad zone info field %q: %w", p, err)
		}
	}
	return vals[0], vals[1], vals[2], nil
}

func lastTwoInts(fields []string) (x, y int, ok bool) {
	n := len(fields)
	if n < 2 {
		return 0, 0, false
	}
	x, errX := strconv.Atoi(fields[n-2])
	y, errY := strconv.Atoi(fields[n-1])
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}
