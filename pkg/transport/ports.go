// Package transport moves protocol datagrams between the coordinator, the
// units, and the ingestion process over localhost UDP. Fixed ports, no
// framing beyond the datagram boundary.
package transport

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed port assignments for the coordinator and the ingestion process.
const (
	CoordinatorSendPort    = 6000
	CoordinatorReceivePort = 6001
	IngestSendPort         = 5000
	IngestReceivePort      = 5001
)

const (
	unitPortBase   = 7000
	unitPortStride = 100
	droneIDPrefix  = "drone"
)

// UnitSendPort returns the send port for unit droneN.
func UnitSendPort(n int) int {
	return unitPortBase + unitPortStride*n
}

// UnitReceivePort returns the receive port for unit droneN.
func UnitReceivePort(n int) int {
	return unitPortBase + 1 + unitPortStride*n
}

// DroneNumber extracts N from a "droneN" identifier.
func DroneNumber(droneID string) (int, error) {
	if !strings.HasPrefix(droneID, droneIDPrefix) {
		return 0, fmt.Errorf("drone id %q must start with %q", droneID, droneIDPrefix)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(droneID, droneIDPrefix))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("drone id %q has no numeric suffix", droneID)
	}
	return n, nil
}

// DroneID builds the canonical identifier for unit N.
func DroneID(n int) string {
	return droneIDPrefix + strconv.Itoa(n)
}
