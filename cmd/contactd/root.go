package main

import (
	"fmt"

	"contact-gateway/internal/config"

	"github.com/spf13/cobra"
)

type app struct {
	cfgFile string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "contactd",
		Short:         "Contact form service with submission throttling",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "YAML config file (env CONTACT_* overrides it)")

	root.AddCommand(newServeCmd(a), newFormCmd(a), newThrottleCmd(a))
	return root
}
