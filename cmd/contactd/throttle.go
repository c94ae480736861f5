package main

import (
	"fmt"
	"time"

	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newThrottleCmd(a *app) *cobra.Command {
	var client string

	cmd := &cobra.Command{
		Use:   "throttle",
		Short: "Show the submission log and the remaining wait",
		Long: "Shows the throttle state of the local form, or of an HTTP client " +
			"when --client is given (requires shared file or redis storage).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			ctx := cmd.Context()

			d, err := buildDeps(ctx, cfg, client == "", zap.NewNop())
			if err != nil {
				return err
			}
			defer d.Close()

			var kv domain.KVStore = d.storage
			if client != "" {
				kv = infra.NewNamespace(d.storage, "client:"+client)
			}
			gate := application.NewThrottleGate(kv,
				application.WithThrottleLimit(cfg.Throttle.Limit),
				application.WithThrottleWindow(cfg.Throttle.Window),
			)

			entries, err := gate.Entries(ctx)
			if err != nil {
				return fmt.Errorf("read submission log: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "limit: %d per %s\n", gate.Limit, gate.Window)
			fmt.Fprintf(out, "submissions: %d\n", len(entries))
			for _, ts := range entries {
				fmt.Fprintf(out, "  %s\n", time.UnixMilli(ts).Format(time.RFC3339))
			}
			if msg := domain.FormatWait(gate.TimeUntilNextSubmission(ctx)); msg != "" {
				fmt.Fprintln(out, msg)
			} else {
				fmt.Fprintln(out, "A new submission is allowed.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&client, "client", "", "client key used by the HTTP API")
	return cmd
}
