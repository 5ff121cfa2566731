// Command exportctl discovers export targets and exports items using an
// integration described in a YAML file, without a running server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/exporthub/internal/adapter/driven/providers"
	"github.com/ericfisherdev/exporthub/internal/application"
	"github.com/ericfisherdev/exporthub/internal/domain/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "exportctl",
		Usage:                 "Export items to task-tracking providers",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("EXPORTHUB_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "trello-base-url",
				Usage:   "Trello API base URL",
				Sources: cli.EnvVars("EXPORTHUB_TRELLO_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "github-base-url",
				Usage:   "GitHub API base URL (GitHub Enterprise Server)",
				Sources: cli.EnvVars("EXPORTHUB_GITHUB_BASE_URL"),
			},
		},
		Commands: []*cli.Command{
			newTargetsCommand(),
			newExportCommand(),
			newTypesCommand(),
		},
	}
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Path to the integration YAML file",
		Required: true,
	}
}

func newTargetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "targets",
		Usage: "List the export targets of an integration",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print targets as JSON",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, cfg, err := setup(cmd)
			if err != nil {
				return err
			}

			result, err := svc.Discover(ctx, cfg.Type)
			if err != nil {
				return err
			}
			if !result.Available {
				return fmt.Errorf("provider %s is not supported", cfg.Type)
			}

			out := cmd.Root().Writer
			if cmd.Bool("json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result.Targets)
			}

			for _, target := range result.Targets {
				fmt.Fprintf(out, "%s / %s (%s)\n", target.Group, target.Name, target.ID)
			}
			return nil
		},
	}
}

func newExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Create a task at an export target",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.StringFlag{
				Name:     "target",
				Usage:    "Target ID as printed by the targets command",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "title",
				Usage:    "Task title",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "content",
				Usage: "Task description",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, cfg, err := setup(cmd)
			if err != nil {
				return err
			}

			result, err := svc.Export(ctx, cfg.Type, cmd.String("target"), model.ExportItem{
				Title:   cmd.String("title"),
				Content: cmd.String("content"),
			})
			if err != nil {
				return err
			}
			if !result.Available {
				return fmt.Errorf("provider %s is not supported", cfg.Type)
			}

			fmt.Fprintln(cmd.Root().Writer, result.Reference)
			return nil
		},
	}
}

func newTypesCommand() *cli.Command {
	return &cli.Command{
		Name:  "types",
		Usage: "List declared provider types and whether they are supported",
		Action: func(_ context.Context, cmd *cli.Command) error {
			registry, err := newRegistry(cmd)
			if err != nil {
				return err
			}

			for _, t := range model.IntegrationTypes {
				status := "declared"
				if registry.Supports(t) {
					status = "supported"
				}
				fmt.Fprintf(cmd.Root().Writer, "%-8s %s\n", t, status)
			}
			return nil
		},
	}
}

// setup configures logging, loads the integration file and builds the export
// service around it.
func setup(cmd *cli.Command) (*application.ExportService, model.IntegrationConfig, error) {
	cfg, err := loadIntegrationFile(cmd.String("file"))
	if err != nil {
		return nil, model.IntegrationConfig{}, err
	}

	registry, err := newRegistry(cmd)
	if err != nil {
		return nil, model.IntegrationConfig{}, err
	}

	return application.NewExportService(&fileStore{cfg: cfg}, registry, slog.Default()), cfg, nil
}

func newRegistry(cmd *cli.Command) (*application.AdapterRegistry, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cmd.String("log-level"), err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: level})))

	return providers.NewRegistry(providers.Options{
		TrelloBaseURL: cmd.String("trello-base-url"),
		GitHubBaseURL: cmd.String("github-base-url"),
	}, slog.Default(), nil)
}
