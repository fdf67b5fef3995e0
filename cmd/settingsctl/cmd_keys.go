package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	settings "github.com/goliatone/go-syncsettings"
	"github.com/spf13/cobra"
)

func runGet(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	value, err := readKey(settings.NewCodec(e.store), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, value)
}

func runSet(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	var value any
	if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
		return fmt.Errorf("value must be JSON: %w", err)
	}
	codec := settings.NewCodec(e.store, settings.WithCodecLogger(e.logger))
	key := settings.DecodeKey(args[0])
	switch key.Scope {
	case settings.ScopeFlat:
		s, _ := key.Setting()
		return codec.WriteFlat(s, value)
	case settings.ScopeIconCategory, settings.ScopeIconType:
		visible, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects a boolean", settings.ErrInvalidValue, args[0])
		}
		return codec.Write(args[0], visible)
	default:
		return fmt.Errorf("%w: %s", settings.ErrUnknownSetting, args[0])
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()
	return e.store.Delete(args[0])
}

func runList(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	keys, err := e.store.Keys()
	if err != nil {
		return err
	}
	codec := settings.NewCodec(e.store, settings.WithCodecLogger(e.logger))
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSCOPE\tVALUE")
	for _, key := range keys {
		scope := settings.DecodeKey(key).Scope
		value, err := readKey(codec, key)
		rendered := "-"
		if err == nil {
			raw, _ := json.Marshal(value)
			rendered = string(raw)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", key, scope, rendered)
	}
	return tw.Flush()
}

// readKey decodes key according to its scope, applying the same defaults a
// window would.
func readKey(codec *settings.Codec, key string) (any, error) {
	decoded := settings.DecodeKey(key)
	switch decoded.Scope {
	case settings.ScopeFlat:
		s, _ := decoded.Setting()
		value := codec.ReadFlat(s)
		if shape, ok := value.(settings.OverlayShape); ok {
			return string(shape), nil
		}
		return value, nil
	case settings.ScopeIconCategory:
		return codec.ReadCategoryVisible(decoded.Name), nil
	case settings.ScopeIconType:
		return codec.ReadTypeVisible(decoded.Name), nil
	default:
		return nil, fmt.Errorf("%w: %s", settings.ErrUnknownSetting, key)
	}
}

func printJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
