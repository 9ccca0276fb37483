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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bcem/helpdesk/internal/app"
	"github.com/bcem/helpdesk/internal/config"
	"github.com/bcem/helpdesk/internal/models"
	"github.com/bcem/helpdesk/internal/objectstore"
	"github.com/bcem/helpdesk/internal/replay"
)

func ingestCmd() *cobra.Command {
	var rawFile string

	cmd := &cobra.Command{
		Use:   "ingest <messageId>",
		Short: "Create a ticket from a stored raw message",
		Long: `Ingests the raw message stored at emails/<messageId> and prints the
created ticket. With --file the message is uploaded to that key first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			messageID := args[0]
			return withApp(func(ctx context.Context, a *app.App) error {
				if rawFile != "" {
					data, err := os.ReadFile(rawFile)
					if err != nil {
						return fmt.Errorf("read %s: %w", rawFile, err)
					}
					if _, err := a.Objects.Put(ctx, objectstore.RawMessageKey(messageID), data, "message/rfc822"); err != nil {
						return fmt.Errorf("upload raw message: %w", err)
					}
					slog.Info("raw message uploaded", "message_id", messageID, "bytes", len(data))
				}

				res, err := a.Ingestor.Ingest(ctx, models.InboundEvent{MessageID: messageID})
				if err != nil {
					return err
				}
				t, err := a.Tickets.Get(ctx, res.TicketID)
				if err != nil {
					return fmt.Errorf("read back ticket %s: %w", res.TicketID, err)
				}
				return printJSON(t)
			})
		},
	}

	cmd.Flags().StringVarP(&rawFile, "file", "f", "", "upload this .eml file as the raw message before ingesting")
	return cmd
}

func replayCmd() *cobra.Command {
	var (
		after string
		limit int
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Ingest every raw message in object storage",
		Long: `Lists emails/ in object storage and ingests each message in key order.
Enable ingest.dedup in config.yaml to skip messages that already produced a
ticket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				if !a.Config.Ingest.Dedup {
					slog.Warn("ingest.dedup is off: previously ingested messages will create duplicate tickets")
				}

				runner := replay.NewRunner(replay.RunnerConfig{
					Objects:  a.Objects,
					Ingestor: a.Ingestor,
					Delay:    delay,
				})
				res, err := runner.Run(ctx, replay.Request{After: after, Limit: limit})
				if res != nil {
					if perr := printJSON(map[string]any{
						"listed":   res.Listed,
						"ingested": res.Ingested,
						"skipped":  res.Skipped,
						"errors":   res.Errors,
						"last":     res.Last,
						"elapsed":  res.Elapsed.String(),
					}); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&after, "after", "", "resume after this message id")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of messages to ingest (0 = all)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between messages")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the helpdesk tables if they do not exist",
		Long:  "Connects to PostgreSQL only; object storage and Redis need not be reachable.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(viper.GetString("config"))
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()

			if err := app.Migrate(ctx, cfg); err != nil {
				if errors.Is(err, app.ErrNoDatabase) {
					slog.Warn("mock mode has no database; nothing to migrate")
					return nil
				}
				return err
			}
			slog.Info("schema up to date")
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
