package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	settings "github.com/goliatone/go-syncsettings"
	"github.com/goliatone/go-syncsettings/pkg/kv"
	"github.com/spf13/cobra"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	out := cmd.OutOrStdout()
	w, err := e.window()
	if err != nil {
		return err
	}
	defer w.Close()

	unsubscribe := e.store.Subscribe(func(change kv.Change) {
		decoded := settings.DecodeKey(change.Key)
		if change.Deletion() {
			fmt.Fprintf(out, "%s\t%s\t<deleted>\n", decoded.Scope, change.Key)
			return
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", decoded.Scope, change.Key, change.Value())
	})
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	e.logger.Info("watching settings",
		slog.String("store", e.cfg.Store.Kind), slog.String("path", e.cfg.Store.Path))
	<-ctx.Done()
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	w, err := e.window()
	if err != nil {
		return err
	}
	defer w.Close()

	value, err := w.Evaluate(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, value)
}
