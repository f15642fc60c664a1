package zones

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/logger"
)

// Default grid dimensions used when no zone file is available: a 3x4 grid of
// single-point zones at spacing 10.
const (
	defaultGridCols    = 3
	defaultGridRows    = 4
	defaultGridSpacing = 10
)

// LoadFile reads zone definitions into the registry, one zone per line:
// <id> <x1> <y1> <x2> <y2>. Blank lines and #-comments are ignored;
// malformed lines are skipped with a warning. When the file is missing or
// yields no zones, the default grid is installed instead.
func LoadFile(r *Registry, path string) error {
	f, err := os.Open(path)
	if err != nil {
		logger.Warnf("zone file %s unavailable (%v), installing default grid", path, err)
		InstallDefaultGrid(r)
		return nil
	}
	defer func() { _ = f.Close() }()

	loaded := 0
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		z, err := parseZoneLine(line)
		if err != nil {
			logger.Warnf("skipping zone file line %d: %v", lineNo, err)
			continue
		}
		r.Put(z)
		loaded++
	}
	if err := scanner.Err(); err != nil {
		logger.Warnf("zone file %s read failed (%v), installing default grid", path, err)
		InstallDefaultGrid(r)
		return nil
	}

	if loaded == 0 {
		logger.Warnf("zone file %s contained no zones, installing default grid", path)
		InstallDefaultGrid(r)
		return nil
	}
	logger.Infof("loaded %d zones from %s", loaded, path)
	return nil
}

// InstallDefaultGrid installs the fallback 3x4 grid of point zones.
func InstallDefaultGrid(r *Registry) {
	id := 1
	for row := 0; row < defaultGridRows; row++ {
		for col := 0; col < defaultGridCols; col++ {
			at := geo.Point{X: col * defaultGridSpacing, Y: row * defaultGridSpacing}
			if z, err := NewPointZone(id, at); err == nil {
				r.Put(z)
			}
			id++
		}
	}
}

func parseZoneLine(line string) (*Zone, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return nil, fmt.Errorf("want 5 fields, got %d", len(fields))
	}
	vals := make([]int, 5)
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("field %d %q is not an integer", i+1, field)
		}
		vals[i] = v
	}
	return NewZone(vals[0], vals[1], vals[2], vals[3], vals[4])
}
