package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/toolquota/internal/usage"
	"github.com/spf13/cobra"
)

var errLimitReached = errors.New("daily limit reached")

var (
	useForce bool
)

var statusCmd = &cobra.Command{
	Use:   "status TOOL_ID",
	Short: "Show today's remaining uses for a tool",
	Long:  `Show how many uses of a tool remain today and when the limit resets.`,
	Example: `  toolquota status bmi-calculator
  toolquota -c config.yaml status qr-code-generator`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

var useCmd = &cobra.Command{
	Use:   "use TOOL_ID",
	Short: "Record one use of a tool",
	Long: `Record one use of a tool against today's limit. When the limit is
already reached the use is refused unless --force is given.`,
	Example: `  toolquota use bmi-calculator
  toolquota use --force bmi-calculator`,
	Args: cobra.ExactArgs(1),
	RunE: runUse,
}

func init() {
	useCmd.Flags().BoolVar(&useForce, "force", false, "Record the use even if the daily limit is reached")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(useCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tracker := usage.NewTracker(a.store, usage.Config{DailyLimit: a.cfg.Usage.DailyLimit}, nil, a.logger)
	status := tracker.CheckStatus(a.context(), args[0])

	printStatus(cmd.OutOrStdout(), status, tracker.DailyLimit(), time.Now())
	return nil
}

func runUse(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := a.context()
	tracker := usage.NewTracker(a.store, usage.Config{DailyLimit: a.cfg.Usage.DailyLimit}, nil, a.logger)

	if status := tracker.CheckStatus(ctx, args[0]); status.IsLimitReached && !useForce {
		printStatus(cmd.OutOrStdout(), status, tracker.DailyLimit(), time.Now())
		return fmt.Errorf("%w for %s, resets at %s", errLimitReached, args[0], status.NextReset.Format("2006-01-02 15:04"))
	}

	status := tracker.RecordUse(ctx, args[0])
	printStatus(cmd.OutOrStdout(), status, tracker.DailyLimit(), time.Now())
	return nil
}

// printStatus writes a one-line summary, red when the limit is reached.
func printStatus(w io.Writer, status usage.Status, limit int, now time.Time) {
	remaining := color.New(color.FgGreen, color.Bold)
	if status.IsLimitReached {
		remaining = color.New(color.FgRed, color.Bold)
	}

	_, _ = fmt.Fprintf(w, "%s: ", status.ToolID)
	_, _ = remaining.Fprintf(w, "%d/%d", status.RemainingUses, limit)
	_, _ = fmt.Fprintf(w, " uses remaining today (resets in %s at %s)\n",
		status.ResetIn(now).Round(time.Minute),
		status.NextReset.Format("2006-01-02 15:04"))
}
