package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/logger"
)

var (
	transitionReason string
	transitionBy     string
	reportPeriod     int
	watchInterval    time.Duration
)

var lifecycleCmd = &cobra.Command{
	Use:   "lifecycle",
	Short: "Manage document lifecycle",
	Long: `Evaluate lifecycle policies, transition documents between phases
and inspect the audit trail.`,
}

var lifecycleEvaluateCmd = &cobra.Command{
	Use:   "evaluate [doc-id]",
	Short: "Evaluate policies for one document, or all documents",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLifecycleEvaluate,
}

var lifecycleTransitionCmd = &cobra.Command{
	Use:   "transition [doc-id] [phase]",
	Short: "Manually transition a document's phase",
	Args:  cobra.ExactArgs(2),
	RunE:  runLifecycleTransition,
}

var lifecycleHistoryCmd = &cobra.Command{
	Use:   "history [doc-id]",
	Short: "Show a document's lifecycle event log",
	Args:  cobra.ExactArgs(1),
	RunE:  runLifecycleHistory,
}

var lifecyclePoliciesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List lifecycle policies",
	Args:  cobra.NoArgs,
	RunE:  runLifecyclePolicies,
}

var lifecycleReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a compliance report",
	Args:  cobra.NoArgs,
	RunE:  runLifecycleReport,
}

var lifecycleWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Evaluate policies continuously",
	Long: `Runs batch policy evaluation on an interval, re-reading policy
definitions from the config file when it changes. Runs until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: runLifecycleWatch,
}

func init() {
	lifecycleTransitionCmd.Flags().StringVarP(&transitionReason, "reason", "r", "", "reason recorded on the event")
	lifecycleTransitionCmd.Flags().StringVar(&transitionBy, "by", "", "operator recorded on the event")
	lifecycleReportCmd.Flags().IntVarP(&reportPeriod, "period", "p", 30, "report window in days")
	lifecycleWatchCmd.Flags().DurationVar(&watchInterval, "interval", time.Hour, "evaluation interval")

	lifecycleCmd.AddCommand(lifecycleEvaluateCmd)
	lifecycleCmd.AddCommand(lifecycleTransitionCmd)
	lifecycleCmd.AddCommand(lifecycleHistoryCmd)
	lifecycleCmd.AddCommand(lifecyclePoliciesCmd)
	lifecycleCmd.AddCommand(lifecycleReportCmd)
	lifecycleCmd.AddCommand(lifecycleWatchCmd)
	rootCmd.AddCommand(lifecycleCmd)
}

func runLifecycleEvaluate(cmd *cobra.Command, args []string) error {
	if lifecycleService == nil {
		return errors.New("lifecycle service not configured")
	}

	if len(args) == 1 {
		change, err := lifecycleService.EvaluatePolicies(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to evaluate policies: %w", err)
		}
		printPhaseChange(cmd, change)
		return nil
	}

	batch, err := lifecycleService.EvaluateAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to evaluate policies: %w", err)
	}

	cmd.Printf("Evaluated %d documents, %d transitions.\n", batch.Evaluated, batch.Transitions)
	for i := range batch.Changes {
		printPhaseChange(cmd, &batch.Changes[i])
	}
	if len(batch.Errors) > 0 {
		cmd.Printf("\n%d documents failed:\n", len(batch.Errors))
		for _, e := range batch.Errors {
			cmd.Printf("  %s: %s\n", e.DocumentID, e.Err)
		}
	}
	return nil
}

func printPhaseChange(cmd *cobra.Command, change *domain.PhaseChange) {
	if !change.Changed {
		cmd.Printf("  %s: no policy matched, phase %s\n", change.DocumentID, change.OldPhase)
		return
	}
	cmd.Printf("  %s: %s -> %s (policy %s)\n",
		change.DocumentID, change.OldPhase, change.NewPhase, change.PolicyName)
}

func runLifecycleTransition(cmd *cobra.Command, args []string) error {
	if lifecycleService == nil {
		return errors.New("lifecycle service not configured")
	}

	phase := domain.LifecyclePhase(args[1])
	if !phase.Valid() {
		return fmt.Errorf("%w: unknown phase %q", domain.ErrInvalidInput, args[1])
	}

	if err := lifecycleService.TransitionPhase(cmd.Context(), args[0], phase, transitionReason, transitionBy); err != nil {
		return fmt.Errorf("failed to transition: %w", err)
	}

	cmd.Printf("Transitioned %s to %s\n", args[0], phase)
	return nil
}

func runLifecycleHistory(cmd *cobra.Command, args []string) error {
	if lifecycleService == nil {
		return errors.New("lifecycle service not configured")
	}

	history, err := lifecycleService.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(history) == 0 {
		cmd.Printf("No lifecycle events for %s\n", args[0])
		return nil
	}

	cmd.Printf("Lifecycle history of %s:\n\n", args[0])
	for i := range history {
		event := &history[i]
		cmd.Printf("  %s  %s", event.CreatedAt.Format("2006-01-02 15:04:05"), event.EventType)
		if event.OldPhase != event.NewPhase {
			cmd.Printf("  %s -> %s", event.OldPhase, event.NewPhase)
		}
		cmd.Println()
		if event.Details != "" {
			cmd.Printf("      %s\n", event.Details)
		}
		if event.PerformedBy != "" {
			cmd.Printf("      by %s\n", event.PerformedBy)
		}
	}

	return nil
}

func runLifecyclePolicies(cmd *cobra.Command, _ []string) error {
	if lifecycleService == nil {
		return errors.New("lifecycle service not configured")
	}

	policies, err := lifecycleService.Policies(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list policies: %w", err)
	}

	if len(policies) == 0 {
		cmd.Println("No policies defined.")
		return nil
	}

	for i := range policies {
		policy := &policies[i]
		state := "enabled"
		if !policy.Enabled {
			state = "disabled"
		}
		cmd.Printf("  %s (priority %d, %s)\n", policy.Name, policy.Priority, state)
		if policy.Actions.SetPhase != "" {
			cmd.Printf("    sets phase: %s\n", policy.Actions.SetPhase)
		}
	}

	return nil
}

func runLifecycleReport(cmd *cobra.Command, _ []string) error {
	if lifecycleService == nil {
		return errors.New("lifecycle service not configured")
	}

	report, err := lifecycleService.ComplianceReport(cmd.Context(), reportPeriod)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	cmd.Printf("Compliance report (%d days, generated %s)\n\n",
		report.PeriodDays, report.GeneratedAt.Format("2006-01-02 15:04:05"))

	cmd.Println("  Phase distribution:")
	for phase, count := range report.PhaseDistribution {
		cmd.Printf("    %s: %d\n", phase, count)
	}

	if len(report.UpcomingTransitions) > 0 {
		cmd.Println("\n  Upcoming transitions:")
		for _, t := range report.UpcomingTransitions {
			cmd.Printf("    %s: %s -> %s due %s\n",
				t.DocumentID, t.FromPhase, t.ToPhase, t.DueDate.Format("2006-01-02"))
		}
	}

	if len(report.PolicyEffectiveness) > 0 {
		cmd.Println("\n  Transitions by policy:")
		for name, count := range report.PolicyEffectiveness {
			cmd.Printf("    %s: %d\n", name, count)
		}
	}

	cmd.Printf("\n  Events in period: %d\n", len(report.RecentEvents))
	return nil
}

func runLifecycleWatch(cmd *cobra.Command, _ []string) error {
	if lifecycleService == nil || configStore == nil {
		return errors.New("lifecycle service not configured")
	}

	ctx := cmd.Context()

	// Re-seed policies whenever the config file changes.
	go func() {
		err := configStore.Watch(ctx, func() {
			cfg, err := configStore.Load(ctx)
			if err != nil {
				logger.Warn("reloading config: %v", err)
				return
			}
			appConfig = cfg
			if err := seedPolicies(ctx); err != nil {
				logger.Warn("reseeding policies: %v", err)
			}
		})
		if err != nil && !errors.Is(err, ctx.Err()) {
			logger.Warn("config watch stopped: %v", err)
		}
	}()

	cmd.Printf("Evaluating every %s. Press Ctrl+C to stop.\n", watchInterval)

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		batch, err := lifecycleService.EvaluateAll(ctx)
		if err != nil {
			logger.Warn("batch evaluation: %v", err)
		} else {
			cmd.Printf("[%s] evaluated %d documents, %d transitions, %d errors\n",
				time.Now().Format("15:04:05"), batch.Evaluated, batch.Transitions, len(batch.Errors))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
