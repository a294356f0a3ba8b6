package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"skiipper/internal/service"
)

type Context struct {
	Ctx     context.Context
	Backups *service.BackupService
	Reports *service.ReportService
	Loc     *time.Location
	Out     io.Writer
	Now     func() time.Time
}

// WeekFlags selects a reporting window. Both bounds are calendar days in the
// configured timezone; the end is exclusive.
type WeekFlags struct {
	WeekStart string `help:"First day of the window (YYYY-MM-DD). Defaults to this week's Monday." placeholder:"DATE"`
	WeekEnd   string `help:"Day after the window (YYYY-MM-DD). Defaults to seven days after the start." placeholder:"DATE"`
}

func (w WeekFlags) resolve(ctx *Context) (time.Time, time.Time, error) {
	start, end := ctx.Reports.CurrentWeek(ctx.Now())

	if w.WeekStart != "" {
		d, err := time.ParseInLocation(time.DateOnly, w.WeekStart, ctx.Loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --week-start %q: use YYYY-MM-DD", w.WeekStart)
		}
		start, end = d, d.AddDate(0, 0, 7)
	}
	if w.WeekEnd != "" {
		d, err := time.ParseInLocation(time.DateOnly, w.WeekEnd, ctx.Loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --week-end %q: use YYYY-MM-DD", w.WeekEnd)
		}
		end = d
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("week end %s must be after week start %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return start, end, nil
}

func formatWindow(start, end time.Time) string {
	return fmt.Sprintf("%s to %s", start.Format(time.DateOnly), end.AddDate(0, 0, -1).Format(time.DateOnly))
}
