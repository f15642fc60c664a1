package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/emberops/firefleet/pkg/ingest"
	"github.com/emberops/firefleet/pkg/logger"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [event-file]",
	Short: "Replay a fire event file to the coordinator",
	Long: `Read a fire event file and send each event to the coordinator,
waiting for the acknowledgement before the next one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	path, err := selectEventFile(args)
	if err != nil {
		return err
	}

	events, err := ingest.ReadEventFile(path)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		logger.Warnf("no events in %s, nothing to do", path)
		return nil
	}

	feeder, err := ingest.NewFeeder(ingest.FeederConfig{
		SendPort:        cfg.Ingest.SendPort,
		CoordinatorPort: cfg.Coordinator.ReceivePort,
		AckTimeout:      cfg.Ingest.AckTimeout,
		InterEventDelay: cfg.Ingest.InterEventDelay,
	})
	if err != nil {
		return fmt.Errorf("failed to start ingestion: %w", err)
	}
	defer func() { _ = feeder.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	if err := feeder.Replay(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func selectEventFile(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	var path string
	prompt := &survey.Input{
		Message: "Event file path:",
		Default: "events.txt",
	}
	if err := survey.AskOne(prompt, &path, survey.WithValidator(survey.Required), survey.WithValidator(fileExists)); err != nil {
		return "", err
	}
	return path, nil
}

func fileExists(val interface{}) error {
	path, ok := val.(string)
	if !ok {
		return fmt.Errorf("expected a file path")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read %s", path)
	}
	return nil
}
