package main

import (
	"fmt"

	"contact-gateway/contact/application"
	"contact-gateway/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newFormCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Fill in and send the contact form from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			// o terminal é do formulário: log só no arquivo, se houver
			logger, err := newLogger(cfg.Log, true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			d, err := buildDeps(ctx, cfg, true, logger)
			if err != nil {
				return err
			}
			defer d.Close()

			gate := application.NewThrottleGate(d.storage,
				application.WithThrottleLimit(cfg.Throttle.Limit),
				application.WithThrottleWindow(cfg.Throttle.Window),
				application.WithThrottleLogger(logger),
			)
			store := application.NewFormStore(ctx, application.FormStoreConfig{
				Storage:   d.storage,
				Gate:      gate,
				Transport: d.transport,
				Stats:     d.stats,
				Key:       "local",
				Logger:    logger,
			})

			model := tui.New(ctx, store)
			if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return fmt.Errorf("form: %w", err)
			}
			if model.Unsaved() {
				fmt.Fprintln(cmd.OutOrStdout(), "You have unsaved changes; the draft will be restored next time.")
			}
			return nil
		},
	}
}
