package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiipper/internal/models"
	"skiipper/internal/repository"
)

type sentReport struct {
	email   string
	skips   int
	savings decimal.Decimal
}

type fakeReportSink struct {
	sent []sentReport
	fail map[string]error
}

func (f *fakeReportSink) record(email string, skips int, savings decimal.Decimal) error {
	if err := f.fail[email]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentReport{email, skips, savings})
	return nil
}

func (f *fakeReportSink) PublishWeeklyReport(_ context.Context, email string, skips int, savings decimal.Decimal) error {
	return f.record(email, skips, savings)
}

func (f *fakeReportSink) SendWeeklyReport(_ context.Context, email string, skips int, savings decimal.Decimal) error {
	return f.record(email, skips, savings)
}

func TestDispatchTransport(t *testing.T) {
	ctx := context.Background()

	t.Run("queue preferred", func(t *testing.T) {
		queue, mail := &fakeReportSink{}, &fakeReportSink{}
		svc := NewReportService(nil, queue, mail, time.UTC)
		require.NoError(t, svc.Dispatch(ctx, "a@example.com", 2, dec("10.005")))
		require.Len(t, queue.sent, 1)
		assert.Empty(t, mail.sent)
		assert.True(t, queue.sent[0].savings.Equal(dec("10.01")))
	})

	t.Run("direct email", func(t *testing.T) {
		mail := &fakeReportSink{}
		svc := NewReportService(nil, nil, mail, time.UTC)
		require.NoError(t, svc.Dispatch(ctx, "a@example.com", 1, dec("5")))
		assert.Len(t, mail.sent, 1)
	})

	t.Run("failure surfaces", func(t *testing.T) {
		boom := errors.New("ses throttled")
		mail := &fakeReportSink{fail: map[string]error{"a@example.com": boom}}
		svc := NewReportService(nil, nil, mail, time.UTC)
		err := svc.Dispatch(ctx, "a@example.com", 1, dec("5"))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nothing configured", func(t *testing.T) {
		svc := NewReportService(nil, nil, nil, time.UTC)
		assert.ErrorIs(t, svc.Dispatch(ctx, "a@example.com", 1, dec("5")), ErrReportUndeliverable)
	})
}

func TestSendWeeklyReports(t *testing.T) {
	db := openTestDB(t)
	users := repository.NewUserRepository(db)
	habits := repository.NewHabitRepository(db)

	ada, err := users.CreateUser("ada@example.com", "", "Ada", false)
	require.NoError(t, err)
	_, err = users.CreateUser("bob@example.com", "", "Bob", false)
	require.NoError(t, err)

	h := coffeeHabit()
	h.UserID = ada.ID
	require.NoError(t, habits.CreateHabit(h))
	for _, day := range []int{0, 1} {
		require.NoError(t, habits.AddSkip(&models.SkipRecord{
			HabitID:     h.ID,
			UserID:      ada.ID,
			SkipDate:    time.Date(2026, time.October, 12+day, 9, 0, 0, 0, time.UTC),
			DayCode:     "mon",
			AmountSaved: dec("5"),
		}))
	}

	sink := &fakeReportSink{fail: map[string]error{"bob@example.com": errors.New("bounced")}}
	svc := NewReportService(repository.NewStatsRepository(db), nil, sink, time.UTC)

	start, end := svc.CurrentWeek(wednesday)
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), end)

	summary, err := svc.SendWeeklyReports(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "bob@example.com", summary.Failed[0].Email)

	require.Len(t, sink.sent, 1)
	assert.Equal(t, "ada@example.com", sink.sent[0].email)
	assert.Equal(t, 2, sink.sent[0].skips)
	assert.True(t, sink.sent[0].savings.Equal(dec("10")))

	_, err = svc.GetUserStatsForWeek(end, start)
	assert.Error(t, err)
}
