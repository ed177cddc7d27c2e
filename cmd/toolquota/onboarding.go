package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/goodtune/toolquota/internal/onboarding"
	"github.com/spf13/cobra"
)

var onboardingCmd = &cobra.Command{
	Use:   "onboarding",
	Short: "Show whether first-run onboarding would be displayed",
	Args:  cobra.NoArgs,
	RunE:  runOnboardingStatus,
}

var onboardingCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark onboarding as completed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return finishOnboarding(cmd, (*onboarding.Flow).Complete, "completed")
	},
}

var onboardingSkipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Skip onboarding; it will not be shown again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return finishOnboarding(cmd, (*onboarding.Flow).Skip, "skipped")
	},
}

var onboardingResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the completion marker so onboarding is shown again",
	Args:  cobra.NoArgs,
	RunE:  runOnboardingReset,
}

func init() {
	onboardingCmd.AddCommand(onboardingCompleteCmd)
	onboardingCmd.AddCommand(onboardingSkipCmd)
	onboardingCmd.AddCommand(onboardingResetCmd)
	rootCmd.AddCommand(onboardingCmd)
}

func runOnboardingStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	flow := onboarding.New(a.context(), a.store, a.logger)
	if flow.ShouldShow() {
		_, _ = color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "Onboarding will be shown")
	} else {
		_, _ = color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "Onboarding already completed")
	}
	return nil
}

func finishOnboarding(cmd *cobra.Command, finish func(*onboarding.Flow, context.Context), outcome string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()
	flow := onboarding.New(ctx, a.store, a.logger)
	finish(flow, ctx)

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Onboarding %s\n", outcome)
	return nil
}

func runOnboardingReset(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Delete(a.context(), onboarding.Key); err != nil {
		return fmt.Errorf("failed to clear onboarding marker: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Onboarding marker cleared")
	return nil
}
