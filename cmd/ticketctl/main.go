// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Helpdesk: Operator CLI
//
// ticketctl runs one-off helpdesk operations against the same backends as the
// service: ingesting a single stored message, replaying every stored message,
// and creating the database schema.
//
// Usage:
//
//	ticketctl ingest <messageId> [--file raw.eml]
//	ticketctl replay [--after <messageId>] [--limit N] [--delay 200ms]
//	ticketctl migrate
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bcem/helpdesk/internal/app"
	"github.com/bcem/helpdesk/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:           "ticketctl",
		Short:         "Helpdesk operator CLI",
		Long:          "Ingests stored inbound mail into tickets and manages the helpdesk database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(viper.GetString("log_level"))
		},
	}

	root.PersistentFlags().String("config", "/app/config/config.yaml", "path to config.yaml")
	root.PersistentFlags().String("log_level", "info", "log level: debug, info, warn or error")

	// Flags fall back to CONFIG_PATH and LOG_LEVEL.
	viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log_level"))
	viper.BindEnv("config", "CONFIG_PATH")
	viper.BindEnv("log_level", "LOG_LEVEL")

	root.AddCommand(ingestCmd())
	root.AddCommand(replayCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid --log_level %q", level)
	}
	// Logs go to stderr so command output on stdout stays machine-readable.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

// withApp loads configuration, builds the components and runs fn with a
// context cancelled on SIGTERM/SIGINT.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadFile(viper.GetString("config"))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
