// Package audit implements the `dukapos audit` command.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukapos/dukapos/internal/application/billing/dto"
	"github.com/dukapos/dukapos/internal/application/billing/usecases"
	"github.com/dukapos/dukapos/internal/infrastructure/config"
	"github.com/dukapos/dukapos/internal/infrastructure/database"
	"github.com/dukapos/dukapos/internal/infrastructure/repository"
	"github.com/dukapos/dukapos/internal/shared/biztime"
	"github.com/dukapos/dukapos/internal/shared/logger"
)

var (
	env       string
	dryRun    bool
	checkName string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run the subscription reconciliation audit",
		Long:  `Scan all subscriptions for inconsistencies and repair them. Use --dry-run to report without repairing.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report issues without repairing them")
	cmd.Flags().StringVar(&checkName, "check", "", "Run a single check (daily_cycle_period, stale_trial, stale_active, orphaned_tenant, plan_code_drift)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Billing.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	db := database.Get()
	auditService := usecases.NewAuditService(
		repository.NewSubscriptionRepository(db, log),
		repository.NewPlanRepository(db, log),
		repository.NewTenantDirectory(db, log),
		usecases.NoopNotifier{},
		usecases.SystemClock{},
		cfg.Billing.GracePeriodDays,
		cfg.Billing.DefaultPlanCode,
		time.Duration(cfg.Billing.AuditRecordTimeoutSecs)*time.Second,
		log,
	)

	ctx := context.Background()

	if checkName != "" {
		result, err := runSingleCheck(ctx, auditService, checkName)
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	report, err := auditService.RunFullAudit(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	return printJSON(report)
}

func runSingleCheck(ctx context.Context, svc *usecases.AuditService, name string) (dto.CheckResult, error) {
	switch name {
	case dto.AuditCheckDailyCyclePeriod:
		return svc.CheckDailyCyclePeriods(ctx, dryRun), nil
	case dto.AuditCheckStaleTrial:
		return svc.CheckStaleTrials(ctx, dryRun), nil
	case dto.AuditCheckStaleActive:
		return svc.CheckStaleActive(ctx, dryRun), nil
	case dto.AuditCheckOrphanedTenant:
		return svc.CheckOrphanedTenants(ctx, dryRun), nil
	case dto.AuditCheckPlanCodeDrift:
		return svc.CheckPlanCodeDrift(ctx, dryRun), nil
	default:
		return dto.CheckResult{}, fmt.Errorf("unknown check %q", name)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
