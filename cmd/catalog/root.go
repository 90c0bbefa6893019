package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tendant/media-catalog/pkg/mediacatalog"
	"github.com/tendant/media-catalog/pkg/mediacatalog/config"
)

// commandContext resolves configuration once per invocation
type commandContext struct {
	dataFile *string
	envFile  *string
	jsonOut  *bool

	records mediacatalog.RecordStore
}

func newCommandContext(dataFile, envFile *string, jsonOut *bool) *commandContext {
	return &commandContext{dataFile: dataFile, envFile: envFile, jsonOut: jsonOut}
}

// recordStore builds the configured record store. --data-file wins over the
// environment.
func (c *commandContext) recordStore(ctx context.Context) (mediacatalog.RecordStore, error) {
	if c.records != nil {
		return c.records, nil
	}

	if *c.envFile != "" {
		if err := godotenv.Load(*c.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", *c.envFile, err)
		}
	}

	opts := []config.Option{config.WithEnv()}
	if *c.dataFile != "" {
		opts = append(opts, config.WithFileRecordStore(*c.dataFile, false))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}

	records, err := cfg.BuildRecordStore(ctx)
	if err != nil {
		return nil, err
	}
	c.records = records
	return records, nil
}

func (c *commandContext) load(ctx context.Context) (mediacatalog.Collection, error) {
	records, err := c.recordStore(ctx)
	if err != nil {
		return nil, err
	}
	return records.Load(ctx)
}

func newRootCommand() *cobra.Command {
	var dataFile string
	var envFile string
	var jsonOut bool

	ctx := newCommandContext(&dataFile, &envFile, &jsonOut)

	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Inspect the media catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataFile, "data-file", "", "JSON file holding the collection")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print JSON instead of tables")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newReviewsCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))

	return rootCmd
}
