package viz

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"

	"github.com/emberops/firefleet/pkg/models"
)

// ConsoleSink renders each snapshot as a colored status board.
type ConsoleSink struct {
	out io.Writer

	header   *color.Color
	burning  *color.Color
	clear    *color.Color
	faulted  *color.Color
	enRoute  *color.Color
	idleUnit *color.Color
}

// NewConsoleSink writes boards to stdout.
func NewConsoleSink() *ConsoleSink {
	return NewConsoleSinkTo(os.Stdout)
}

// NewConsoleSinkTo writes boards to the given writer.
func NewConsoleSinkTo(out io.Writer) *ConsoleSink {
	return &ConsoleSink{
		out:      out,
		header:   color.New(color.FgCyan, color.Bold),
		burning:  color.New(color.FgRed, color.Bold),
		clear:    color.New(color.FgGreen),
		faulted:  color.New(color.FgYellow, color.Bold),
		enRoute:  color.New(color.FgBlue),
		idleUnit: color.New(color.FgWhite),
	}
}

// Publish implements Sink.
func (c *ConsoleSink) Publish(s Snapshot) {
	_, _ = c.header.Fprintf(c.out, "-- fleet status %s | queue %d --\n",
		s.At.Format("15:04:05"), s.QueueDepth)

	zones := append([]ZoneStatus(nil), s.Zones...)
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	for _, z := range zones {
		if z.HasFire {
			_, _ = c.burning.Fprintf(c.out, "zone %-3d %s FIRE %-8s drops=%d assigned=%d/%d",
				z.ID, z.Center, z.Severity, z.Drops, z.Assigned, z.Required)
			if z.Fully {
				_, _ = fmt.Fprint(c.out, " [fully assigned]")
			}
			_, _ = fmt.Fprintln(c.out)
			continue
		}
		_, _ = c.clear.Fprintf(c.out, "zone %-3d %s clear\n", z.ID, z.Center)
	}

	for _, u := range s.Units {
		painter := c.idleUnit
		switch {
		case u.ErrorKind != models.ErrorNone:
			painter = c.faulted
		case u.State == models.StateEnRoute || u.State == models.StateDroppingAgent:
			painter = c.enRoute
		}
		line := fmt.Sprintf("%-8s %-14s at %s", u.DroneID, u.State, u.CurrentLocation)
		if u.TaskZoneID != 0 {
			line += fmt.Sprintf(" -> zone %d", u.TaskZoneID)
		}
		if u.ErrorKind != models.ErrorNone {
			line += fmt.Sprintf(" [%s]", u.ErrorKind)
		}
		_, _ = painter.Fprintln(c.out, line)
	}
}
