package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/emberops/firefleet/pkg/config"
	"github.com/emberops/firefleet/pkg/geo"
	"github.com/emberops/firefleet/pkg/mission"
	"github.com/emberops/firefleet/pkg/transport"
	"github.com/emberops/firefleet/pkg/units"
)

var unitCmd = &cobra.Command{
	Use:   "unit [droneN]",
	Short: "Run one fire-suppression unit",
	Long: `Run one unit process. The drone identifier selects the unit's port
pair; it is prompted for interactively when omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUnit,
}

func init() {
	unitCmd.Flags().Int("base-x", 0, "base location x coordinate")
	unitCmd.Flags().Int("base-y", 0, "base location y coordinate")
}

func runUnit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	droneID, err := selectDroneID(args)
	if err != nil {
		return err
	}
	if _, err := transport.DroneNumber(droneID); err != nil {
		return fmt.Errorf("invalid drone id: %w", err)
	}

	baseX, _ := cmd.Flags().GetInt("base-x")
	baseY, _ := cmd.Flags().GetInt("base-y")

	runner, err := mission.NewRunner(droneID, geo.Point{X: baseX, Y: baseY}, unitSpec(cfg), mission.Config{
		FrameInterval:    cfg.Unit.FrameInterval,
		MaxMovementTime:  cfg.Unit.MaxMovementTime,
		MaxDropAgentTime: cfg.Unit.MaxDropAgentTime,
		RefillRate:       cfg.Unit.RefillRate,
	}, cfg.Coordinator.ReceivePort)
	if err != nil {
		return fmt.Errorf("failed to start unit: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	return runner.Run(ctx)
}

func selectDroneID(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	var droneID string
	prompt := &survey.Input{
		Message: "Drone identifier (e.g. drone1):",
		Default: transport.DroneID(1),
	}
	if err := survey.AskOne(prompt, &droneID, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return droneID, nil
}

func unitSpec(cfg *config.Config) units.Spec {
	return units.Spec{
		MaxSpeed:       cfg.Unit.MaxSpeed,
		Acceleration:   cfg.Unit.Acceleration,
		Deceleration:   cfg.Unit.Deceleration,
		NozzleOpen:     cfg.Unit.NozzleOpen,
		FlowRate:       cfg.Unit.FlowRate,
		FullCapacity:   cfg.Unit.FullCapacity,
		Capacity:       cfg.Unit.FullCapacity,
		BatteryMinutes: cfg.Unit.BatteryMinutes,
	}
}
