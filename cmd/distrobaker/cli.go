package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/release-engineering/distrobaker/internal/dispatcher"
	"github.com/release-engineering/distrobaker/internal/engine"
	"github.com/release-engineering/distrobaker/pkg/logger"
)

// CLI wires engine.Engine into the cobra command tree. Grounded on the
// teacher's internal/infrastructure/migrations.CLI: one struct holding
// the long-lived dependency, one GetRootCommand assembling subcommands,
// one Execute entry point.
type CLI struct {
	eng    *engine.Engine
	logger *slog.Logger
}

// NewCLI builds a CLI backed by a freshly constructed Engine.
func NewCLI(ctx context.Context, configRepoURL string, retries int, dryRun bool, historyDBPath string, log *slog.Logger) (*CLI, error) {
	if log == nil {
		log = slog.Default()
	}

	preload, err := preloadConfig(ctx, configRepoURL, retries)
	if err != nil {
		return nil, fmt.Errorf("preload configuration: %w", err)
	}

	sourceFactory, destFactory, err := buildFactories(preload, retries, dryRun)
	if err != nil {
		return nil, fmt.Errorf("build build-system sessions: %w", err)
	}

	eng, err := engine.New(ctx, engine.Options{
		ConfigRepoURL: configRepoURL,
		Retries:       retries,
		DryRun:        dryRun,
		Logger:        log,
		HistoryDBPath: historyDBPath,
		SourceFactory: sourceFactory,
		DestFactory:   destFactory,
	})
	if err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}

	return &CLI{eng: eng, logger: log}, nil
}

// GetRootCommand returns the root "distrobaker" command.
func (c *CLI) GetRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "distrobaker",
		Short: "Synchronize RPM and module sources and builds between distributions",
		Long:  "distrobaker mirrors sources, lookaside-cache blobs, and build submissions from a source distribution to a destination distribution.",
	}

	root.AddCommand(
		c.syncEventCommand(),
		c.sweepCommand(),
		c.reloadConfigCommand(),
	)

	return root
}

// wireEvent is the on-the-wire tagging-event envelope (§6):
// {topic, body: {name, version, release, tag}}.
type wireEvent struct {
	Topic string `json:"topic"`
	Body  struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Release string `json:"release"`
		Tag     string `json:"tag"`
	} `json:"body"`
}

func (w wireEvent) toEvent() dispatcher.Event {
	return dispatcher.Event{
		Topic:   w.Topic,
		Name:    w.Body.Name,
		Version: w.Body.Version,
		Release: w.Body.Release,
		Tag:     w.Body.Tag,
	}
}

// syncEventCommand implements the event path (§4.7): a single tagging
// event, read as a JSON envelope from stdin or --file.
func (c *CLI) syncEventCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sync-event",
		Short: "Process a single tagging event",
		Long:  "Read a {topic, body: {name, version, release, tag}} JSON envelope from stdin (or --file) and synchronize the component it names.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runID := logger.GenerateRunID()
			ctx = logger.WithRunID(ctx, runID)
			log := logger.FromContext(ctx, c.logger)

			r := os.Stdin
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open event file: %w", err)
				}
				defer f.Close()
				r = f
			}

			var wire wireEvent
			if err := json.NewDecoder(r).Decode(&wire); err != nil {
				return fmt.Errorf("decode event envelope: %w", err)
			}
			ev := wire.toEvent()

			disp, err := c.eng.Dispatcher(ctx)
			if err != nil {
				return fmt.Errorf("build dispatcher: %w", err)
			}

			if err := disp.HandleEvent(ctx, ev); err != nil {
				log.Error("sync-event failed", "error", err)
				return err
			}
			log.Info("sync-event completed")
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "read the event envelope from this file instead of stdin")
	return cmd
}

// sweepCommand implements the bulk sweep path (§4.7).
func (c *CLI) sweepCommand() *cobra.Command {
	var components []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Synchronize every latest tagged build",
		Long:  "Discover the latest tagged build of every RPM and module stream (or only --components, if given) and synchronize each.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runID := logger.GenerateRunID()
			ctx = logger.WithRunID(ctx, runID)
			log := logger.FromContext(ctx, c.logger)

			if dryRun {
				c.eng.SetDryRun(true)
			}

			disp, err := c.eng.Dispatcher(ctx)
			if err != nil {
				return fmt.Errorf("build dispatcher: %w", err)
			}

			if err := disp.Sweep(ctx, components); err != nil {
				log.Error("sweep failed", "error", err)
				return err
			}
			log.Info("sweep completed")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&components, "components", nil, "restrict the sweep to these \"namespace/component\" entries instead of discovering every latest tagged build")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the actions this sweep would take without pushing or submitting builds")
	return cmd
}

// reloadConfigCommand implements the load operation of §4.1 standalone,
// letting an operator validate distrobaker.yaml without processing an
// event or sweep.
func (c *CLI) reloadConfigCommand() *cobra.Command {
	var configRepoURL string

	cmd := &cobra.Command{
		Use:   "reload-config",
		Short: "Reload and validate the configuration document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.eng.Reload(cmd.Context(), configRepoURL); err != nil {
				return fmt.Errorf("reload configuration: %w", err)
			}
			fmt.Println("configuration reloaded successfully")
			return nil
		},
	}

	cmd.Flags().StringVar(&configRepoURL, "config", "", "config repository URL (\"link#ref\")")
	cmd.MarkFlagRequired("config")
	return cmd
}

// Execute runs the CLI.
func (c *CLI) Execute() error {
	return c.GetRootCommand().Execute()
}
