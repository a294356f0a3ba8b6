package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiipper/internal/database"
	"skiipper/internal/models"
	"skiipper/internal/repository"
	"skiipper/internal/service"
)

// wednesday falls in the week of Monday 2026-10-12
var wednesday = time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	emails []string
}

func (p *recordingPublisher) PublishWeeklyReport(_ context.Context, email string, _ int, _ decimal.Decimal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emails = append(p.emails, email)
	return nil
}

func openDB(t *testing.T, name string) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())
	return db
}

// seed creates ada with two coffee skips this week and bob with none
func seed(t *testing.T, db *database.DB) {
	t.Helper()
	users := repository.NewUserRepository(db)
	habits := repository.NewHabitRepository(db)

	ada, err := users.CreateUser("ada@example.com", "", "Ada", false)
	require.NoError(t, err)
	_, err = users.CreateUser("bob@example.com", "", "Bob", false)
	require.NoError(t, err)

	h := &models.StoredHabit{
		UserID:       ada.ID,
		Name:         "Coffee",
		Expense:      decimal.NewFromInt(5),
		Frequency:    1,
		Period:       "daily",
		SavingsModel: "full-skip",
	}
	require.NoError(t, habits.CreateHabit(h))
	for _, day := range []int{12, 13} {
		require.NoError(t, habits.AddSkip(&models.SkipRecord{
			HabitID:     h.ID,
			UserID:      ada.ID,
			SkipDate:    time.Date(2026, time.October, day, 9, 0, 0, 0, time.UTC),
			DayCode:     "mon",
			AmountSaved: decimal.NewFromInt(5),
		}))
	}
}

func newContext(db *database.DB, publisher service.ReportPublisher) (*Context, *bytes.Buffer) {
	var out bytes.Buffer
	return &Context{
		Ctx:     context.Background(),
		Backups: service.NewBackupService(db),
		Reports: service.NewReportService(repository.NewStatsRepository(db), publisher, nil, time.UTC),
		Loc:     time.UTC,
		Out:     &out,
		Now:     func() time.Time { return wednesday },
	}, &out
}

func TestWeekFlagsResolve(t *testing.T) {
	ctx, _ := newContext(openDB(t, "week.db"), nil)
	monday := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		flags     WeekFlags
		wantStart time.Time
		wantEnd   time.Time
		wantErr   string
	}{
		{name: "current week", wantStart: monday, wantEnd: monday.AddDate(0, 0, 7)},
		{name: "explicit start", flags: WeekFlags{WeekStart: "2026-10-05"}, wantStart: monday.AddDate(0, 0, -7), wantEnd: monday},
		{name: "explicit range", flags: WeekFlags{WeekStart: "2026-10-01", WeekEnd: "2026-10-03"},
			wantStart: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), wantEnd: time.Date(2026, time.October, 3, 0, 0, 0, 0, time.UTC)},
		{name: "bad start", flags: WeekFlags{WeekStart: "12/10/2026"}, wantErr: "--week-start"},
		{name: "end before start", flags: WeekFlags{WeekStart: "2026-10-12", WeekEnd: "2026-10-12"}, wantErr: "must be after"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := tt.flags.resolve(ctx)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, start.Equal(tt.wantStart), "start = %s", start)
			assert.True(t, end.Equal(tt.wantEnd), "end = %s", end)
		})
	}
}

func TestStatsCmd(t *testing.T) {
	db := openDB(t, "stats.db")
	seed(t, db)
	ctx, out := newContext(db, nil)

	require.NoError(t, (&StatsCmd{}).Run(ctx))

	text := out.String()
	assert.Contains(t, text, "2026-10-12 to 2026-10-18")
	assert.Regexp(t, `ada@example.com\s+2 skips\s+\$10.00`, text)
	assert.Regexp(t, `bob@example.com\s+0 skips\s+\$0.00`, text)
}

func TestSendReportsCmd(t *testing.T) {
	db := openDB(t, "send.db")
	seed(t, db)

	t.Run("dry run sends nothing", func(t *testing.T) {
		publisher := &recordingPublisher{}
		ctx, out := newContext(db, publisher)
		require.NoError(t, (&SendReportsCmd{DryRun: true}).Run(ctx))
		assert.Empty(t, publisher.emails)
		assert.Contains(t, out.String(), "ada@example.com")
	})

	t.Run("queues one report per user", func(t *testing.T) {
		publisher := &recordingPublisher{}
		ctx, out := newContext(db, publisher)
		require.NoError(t, (&SendReportsCmd{}).Run(ctx))
		assert.Equal(t, []string{"ada@example.com", "bob@example.com"}, publisher.emails)
		assert.Contains(t, out.String(), "Sent 2 weekly reports")
	})

	t.Run("no transport", func(t *testing.T) {
		ctx, _ := newContext(db, nil)
		err := (&SendReportsCmd{}).Run(ctx)
		assert.ErrorIs(t, err, service.ErrReportUndeliverable)
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	source := openDB(t, "source.db")
	seed(t, source)
	exportCtx, exportOut := newContext(source, nil)

	path := filepath.Join(t.TempDir(), "nested", "backup.json")
	require.NoError(t, (&ExportCmd{Output: path}).Run(exportCtx))
	assert.Contains(t, exportOut.String(), "Exported 2 users, 1 habits, 2 skips")

	target := openDB(t, "target.db")
	importCtx, importOut := newContext(target, nil)
	require.NoError(t, (&ImportCmd{Input: path}).Run(importCtx))
	assert.Contains(t, importOut.String(), "Imported 2 users, 1 habits, 2 skips from backup.json")

	stats, err := importCtx.Reports.GetUserStatsForWeek(importCtx.Reports.CurrentWeek(wednesday))
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 2, stats[0].TotalSkips)
	assert.True(t, stats[0].TotalSavings.Equal(decimal.NewFromInt(10)))
}

func TestImportRejectsPopulatedDatabase(t *testing.T) {
	db := openDB(t, "populated.db")
	seed(t, db)
	ctx, _ := newContext(db, nil)

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, (&ExportCmd{Output: path}).Run(ctx))

	err := (&ImportCmd{Input: path}).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import failed")
}
