package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
	cli "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/autocrm/autocrm/pkg/cmd"
	"github.com/autocrm/autocrm/pkg/log"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/validation"
	"github.com/autocrm/autocrm/pkg/workflow"
)

var (
	ErrFileRequired    = errors.New("workflow file is required")
	ErrInvalidWorkflow = errors.New("workflow is invalid")
)

// NewCommand returns the autocrm tooling command writing its reports to out.
func NewCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  "autocrm",
		EnableShellCompletion: true,
		Usage:                 "Validate and dry-run workflow definitions",
		Writer:                out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"), "text")

			return ctx, nil
		},
		Commands: []*cli.Command{
			ValidateCommand(),
			TestCommand(),
		},
	}
}

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a JSON or YAML workflow definition",
		ArgsUsage: "<file>",
		Action: func(_ context.Context, command *cli.Command) error {
			w, err := loadWorkflow(command.Args().First())
			if err != nil {
				return err
			}

			validator, err := newValidator()
			if err != nil {
				return err
			}

			result := validator.Validate(w)
			if err := writeJSON(command.Root().Writer, result); err != nil {
				return err
			}

			if !result.IsValid {
				return fmt.Errorf("%w: %d problem(s)", ErrInvalidWorkflow, len(result.Errors))
			}

			return nil
		},
	}
}

func TestCommand() *cli.Command {
	return &cli.Command{
		Name:      "test",
		Usage:     "Dry-run a workflow definition against sample ticket data",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data",
				Usage: "Ticket data as a JSON object",
				Value: "{}",
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			w, err := loadWorkflow(command.Args().First())
			if err != nil {
				return err
			}

			var data map[string]any
			if err := json.Unmarshal([]byte(command.String("data")), &data); err != nil {
				return fmt.Errorf("invalid --data: %w", err)
			}

			validator, err := newValidator()
			if err != nil {
				return err
			}

			result := workflow.NewTester(slog.Default(), validator).DryRun(w, data)
			if err := writeJSON(command.Root().Writer, result); err != nil {
				return err
			}

			if !result.Valid {
				return fmt.Errorf("%w: %d problem(s)", ErrInvalidWorkflow, len(result.Errors))
			}

			return nil
		},
	}
}

// newValidator knows the built-in custom actions so unknown names are reported.
func newValidator() (*validation.Validator, error) {
	reg, err := cmd.NewRegistry(slog.Default(), http.DefaultClient, clockwork.NewRealClock())
	if err != nil {
		return nil, err
	}

	return validation.New(validation.WithActions(reg)), nil
}

// loadWorkflow reads a definition, decoding .yaml and .yml files as YAML and
// everything else as JSON.
func loadWorkflow(path string) (*models.Workflow, error) {
	if path == "" {
		return nil, ErrFileRequired
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		content, err = yamlToJSON(content)
		if err != nil {
			return nil, err
		}
	}

	var w models.Workflow
	if err := json.Unmarshal(content, &w); err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}

	return &w, nil
}

// yamlToJSON re-encodes YAML so the step config decoding stays in one place.
func yamlToJSON(content []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML to JSON: %w", err)
	}

	return encoded, nil
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}
