package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tmaxmax/serverevents"
	"github.com/tmaxmax/serverevents/request"
	"github.com/tmaxmax/serverevents/urlpolicy"
)

// printEvent writes one event per line, so multiline data is escaped.
func printEvent(w io.Writer, ev serverevents.Event) {
	fmt.Fprintf(w, "%s\t%s\n", ev.Type, escapeNewlines(ev.String()))
}

func escapeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", "\\n"), "\r", "\\r")
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func newListenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "listen [url]",
		Short: "Print events as they arrive until the server closes the stream",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := a.session(ctx, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = s.Listen(ctx, func(ev serverevents.Event) {
				printEvent(out, ev)
			}, func(err error) {
				a.logger.Warn("stream error", zap.Error(err))
			}, a.cfg.KeepAliveFriendly)
			if isContextError(err) {
				return nil
			}
			return err
		},
	}
}

func newStreamCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stream [url]",
		Short: "Pull events from the stream, optionally stopping after a number of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := a.session(ctx, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var received int
			for ev, err := range s.Stream(ctx, a.cfg.KeepAliveFriendly) {
				if err != nil {
					a.logger.Warn("stream error", zap.Error(err))
					continue
				}

				printEvent(out, ev)
				if received++; limit > 0 && received >= limit {
					break
				}
			}

			a.logger.Debug("stream done", zap.Int("received", received))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after this many events (0 means no limit)")

	return cmd
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>",
		Short: "Check that a URL is https or points to localhost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := urlpolicy.Check(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok\t%s\n", u.Redacted())
			return nil
		},
	}
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [url]",
		Short: "Fetch a JSON document, such as the state an event stream updates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.endpoint(args)
			if err != nil {
				return err
			}

			var doc any
			if err := request.GetJSON(cmd.Context(), http.DefaultClient, u, &doc); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
}
