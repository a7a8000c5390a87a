package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/kalako-gate/internal/bootstrap"
	"github.com/yanizio/kalako-gate/internal/gate"
	"github.com/yanizio/kalako-gate/internal/session"
)

func decideCmd() *cobra.Command {
	var (
		host       string
		path       string
		token      string
		adminToken string
	)

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Print the gate's decision for one request",
		Long:  "Classify --host, run the access rules for --path, and consult the status source when the rules ask for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			g, cleanup, err := bootstrap.Gate(cmd.Context(), cfg, zap.L())
			if err != nil {
				return fmt.Errorf("build gate: %w", err)
			}
			defer cleanup()

			c := g.Classify(host)
			d := g.Evaluate(cmd.Context(), gate.Request{
				Host: host,
				Path: path,
				Credentials: session.Credentials{
					TenantToken: token,
					AdminToken:  adminToken,
				},
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "host:    %s (%s)\n", host, c.Kind)
			if c.TenantID != "" {
				fmt.Fprintf(out, "tenant:  %s\n", c.TenantID)
			}
			fmt.Fprintf(out, "path:    %s\n", gate.CleanPath(path))
			fmt.Fprintf(out, "rule:    %s\n", d.Rule)
			fmt.Fprintf(out, "action:  %s\n", d.Action)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host header value")
	cmd.Flags().StringVar(&path, "path", "/", "Request path")
	cmd.Flags().StringVar(&token, "token", "", "Tenant session token (presence only)")
	cmd.Flags().StringVar(&adminToken, "admin-token", "", "Admin session token (presence only)")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}
