package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/kalako-gate/internal/bootstrap"
)

func statusCmd() *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check one tenant's status",
		Long:  "Fetch the tenant's status from the configured source and print the verdict the gate would act on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			src, closeSrc, err := bootstrap.StatusSource(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("status source: %w", err)
			}
			defer closeSrc()

			// The cache would only hide what the source says right now.
			cfg.Status.CacheTTL = 0
			checker, _, err := bootstrap.StatusChecker(cfg, src, zap.L())
			if err != nil {
				return err
			}

			v := checker.Check(cmd.Context(), tenantID)
			fmt.Fprintf(cmd.OutOrStdout(), "tenant:  %s\nverdict: %s\n", tenantID, v)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant id (subdomain label)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
