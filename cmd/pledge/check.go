package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/pledge/internal/api"
	"github.com/JaimeStill/pledge/internal/config"
	"github.com/JaimeStill/pledge/internal/infrastructure"
)

var checkTimeout time.Duration

func init() {
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 5*time.Minute, "maximum time for the check")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Flag overdue commitments and escalate them now",
	Long: `Run the overdue and escalation jobs once against the configured store and
print the result as JSON. Leases keep this safe alongside running servers.

Examples:
  pledge check
  pledge check --config /etc/pledge/config.toml --timeout 1m`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return err
	}
	defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())

	runtime := api.NewRuntime(cfg, infra)
	domain, err := api.NewDomain(cfg, runtime)
	if err != nil {
		return err
	}
	defer domain.Notify.Close()

	if err := infra.Start(); err != nil {
		return err
	}
	infra.Lifecycle.WaitForStartup()
	if infra.Database != nil && !infra.Database.Ready() {
		return errors.New("database unavailable")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	result, err := domain.Scheduler.CheckOverdue(ctx)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
