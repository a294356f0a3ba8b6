package cli

import "fmt"

type StatsCmd struct {
	WeekFlags `embed:""`
}

func (c *StatsCmd) Run(ctx *Context) error {
	start, end, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	stats, err := ctx.Reports.GetUserStatsForWeek(start, end)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "Weekly stats, %s\n\n", formatWindow(start, end))
	if len(stats) == 0 {
		fmt.Fprintln(ctx.Out, "No users found.")
		return nil
	}
	for _, st := range stats {
		fmt.Fprintf(ctx.Out, "  %-32s %4d skips  $%s\n", st.Email, st.TotalSkips, st.TotalSavings.StringFixed(2))
	}
	return nil
}

type SendReportsCmd struct {
	WeekFlags `embed:""`
	DryRun    bool `help:"Show who would receive a report without sending anything."`
}

func (c *SendReportsCmd) Run(ctx *Context) error {
	if c.DryRun {
		return (&StatsCmd{WeekFlags: c.WeekFlags}).Run(ctx)
	}

	start, end, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	summary, err := ctx.Reports.SendWeeklyReports(ctx.Ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to send weekly reports: %w", err)
	}

	fmt.Fprintf(ctx.Out, "✓ Sent %d weekly reports for %s\n", summary.Sent, formatWindow(start, end))
	for _, f := range summary.Failed {
		fmt.Fprintf(ctx.Out, "  ✗ %s: %s\n", f.Email, f.Error)
	}
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d reports failed", len(summary.Failed))
	}
	return nil
}
