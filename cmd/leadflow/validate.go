package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/leadflow/pkg/log"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/urfave/cli/v3"
)

var ErrInvalidDefinitions = errors.New("invalid workflow definitions found")

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate workflow definition files (YAML or JSON)",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Definition file to validate, may be repeated",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("cli").With("action", "validate")

			files := append(command.StringSlice("file"), command.Args().Slice()...)
			if len(files) == 0 {
				return errors.New("at least one definition file is required")
			}

			out := command.Root().Writer
			invalid := 0

			for _, path := range files {
				definition, err := workflow.LoadDefinitionFile(path)
				if err == nil {
					var chain *workflow.Chain

					chain, err = workflow.Validate(definition)
					if err == nil {
						_, _ = fmt.Fprintf(out, "ok      %s: %s\n", path, strings.Join(chain.NodeIDs(), " -> "))

						continue
					}
				}

				invalid++

				logger.DebugContext(ctx, "Definition rejected", "file", path, "error", err)
				_, _ = fmt.Fprintf(out, "invalid %s: %v\n", path, err)
			}

			if invalid > 0 {
				return fmt.Errorf("%w: %d of %d", ErrInvalidDefinitions, invalid, len(files))
			}

			return nil
		},
	}
}
