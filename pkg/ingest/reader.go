// Package ingest replays a fire event file to the coordinator, one
// acknowledged datagram at a time.
package ingest

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/emberops/firefleet/pkg/logger"
	"github.com/emberops/firefleet/pkg/models"
)

var timeOfDay = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)

// ReadEventFile parses a fire event file: one event per line,
// `<hh:mm:ss> <zoneId> <type> <severity>`. Malformed lines are skipped with
// a warning; blank lines and #-comments are ignored silently.
func ReadEventFile(path string) ([]*models.FireEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	log := logger.WithPrefix("ingest")
	var events []*models.FireEvent

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ev, err := parseEventLine(line)
		if err != nil {
			log.Warnf("skipping line %d: %v", lineNo, err)
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}
	return events, nil
}

func parseEventLine(line string) (*models.FireEvent, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil, fmt.Errorf("need 4 fields, got %d", len(fields))
	}
	if !timeOfDay.MatchString(fields[0]) {
		return nil, fmt.Errorf("bad time %q", fields[0])
	}
	zoneID, err := strconv.Atoi(fields[1])
	if err != nil || zoneID < 1 {
		return nil, fmt.Errorf("bad zone id %q", fields[1])
	}
	ev := models.NewFireEvent(fields[0], zoneID, models.ParseSeverity(fields[3]), models.ErrorNone)
	ev.Type = fields[2]
	return ev, nil
}
