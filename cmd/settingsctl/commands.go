package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	storeKind  string
	storePath  string
	catalogArg string

	rootCmd = &cobra.Command{
		Use:   "settingsctl",
		Short: "Inspect and edit the shared overlay settings store",
		Long: `settingsctl reads and writes the key space shared by the overlay
windows. Writes made here reach running windows the same way a
settings panel edit would.`,
		SilenceUsage: true,
	}

	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Print the decoded value of a key",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [json value]",
		Short: "Validate and store a value",
		Args:  cobra.ExactArgs(2),
		RunE:  runSet,
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [key]",
		Short: "Remove a key; windows keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List every stored key with its scope and value",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print changes made by other windows as they arrive",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	checkCmd = &cobra.Command{
		Use:   "check [rule]",
		Short: "Evaluate a display rule against the current settings",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Print the key space description as JSON",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}
	schemaJSON bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "store backend: file, badger or memory")
	rootCmd.PersistentFlags().StringVar(&storePath, "path", "", "store directory")
	rootCmd.PersistentFlags().StringVar(&catalogArg, "catalog", "", "icon catalog JSON file")
	schemaCmd.Flags().BoolVar(&schemaJSON, "json-schema", false, "print a JSON Schema of the flat settings instead")

	rootCmd.AddCommand(getCmd, setCmd, deleteCmd, listCmd, watchCmd, checkCmd, schemaCmd)
}
