package main

import (
	settings "github.com/goliatone/go-syncsettings"
	"github.com/goliatone/go-syncsettings/internal/config"
	"github.com/goliatone/go-syncsettings/schema"
	"github.com/spf13/cobra"
)

func runSchema(cmd *cobra.Command, _ []string) error {
	if schemaJSON {
		return printJSON(cmd, schema.JSONSchema())
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	localOnly := make([]settings.Setting, 0, len(cfg.LocalOnly))
	for _, name := range cfg.LocalOnly {
		localOnly = append(localOnly, settings.Setting(name))
	}
	return printJSON(cmd, schema.Describe(schema.WithLocalOnly(localOnly...)))
}
