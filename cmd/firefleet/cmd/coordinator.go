package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emberops/firefleet/pkg/dispatch"
	"github.com/emberops/firefleet/pkg/logger"
	"github.com/emberops/firefleet/pkg/units"
	"github.com/emberops/firefleet/pkg/viz"
	"github.com/emberops/firefleet/pkg/zones"
)

var coordinatorCmd = &cobra.Command{
	Use:   "coordinator",
	Short: "Run the coordinator",
	Long: `Run the central coordinator: load the zone file, bind the dispatch
ports, and serve until interrupted.`,
	RunE: runCoordinator,
}

func init() {
	coordinatorCmd.Flags().String("zones", "", "zone file path (overrides config)")
	coordinatorCmd.Flags().Bool("board", false, "print a periodic status board")
}

func runCoordinator(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	zoneFile := cfg.Coordinator.ZoneFile
	if override, _ := cmd.Flags().GetString("zones"); override != "" {
		zoneFile = override
	}

	zoneReg := zones.NewRegistry(zones.DerivedLayout{
		StrideX: cfg.Coordinator.DerivedZones.StrideX,
		StrideY: cfg.Coordinator.DerivedZones.StrideY,
		OriginX: cfg.Coordinator.DerivedZones.OriginX,
		OriginY: cfg.Coordinator.DerivedZones.OriginY,
	})
	if err := zones.LoadFile(zoneReg, zoneFile); err != nil {
		return fmt.Errorf("failed to load zones: %w", err)
	}
	unitReg := units.NewRegistry(unitSpec(cfg))

	var sink viz.Sink = viz.NopSink{}
	if board, _ := cmd.Flags().GetBool("board"); board {
		sink = viz.NewConsoleSink()
	}

	server, err := dispatch.NewServer(dispatch.ServerConfig{
		SendPort:          cfg.Coordinator.SendPort,
		ReceivePort:       cfg.Coordinator.ReceivePort,
		CleanupInterval:   cfg.Coordinator.CleanupInterval,
		CleanupDelay:      cfg.Coordinator.CleanupDelay,
		ProactiveInterval: cfg.Coordinator.ProactiveInterval,
		ProactiveDelay:    cfg.Coordinator.ProactiveDelay,
		SnapshotInterval:  cfg.Coordinator.SnapshotInterval,
		Workers:           cfg.Coordinator.WorkerPoolSize,
	}, zoneReg, unitReg, sink)
	if err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	return server.Run(ctx)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Warn("received interrupt signal, shutting down...")
		cancel()
	}()
	return ctx, cancel
}
