package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dukapos/dukapos/internal/interfaces/cli/audit"
	"github.com/dukapos/dukapos/internal/interfaces/cli/migrate"
	"github.com/dukapos/dukapos/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dukapos",
		Short: "DukaPOS billing service",
		Long:  `DukaPOS billing enforces subscription lifecycle, plan limits, and access levels for POS tenants.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		audit.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
