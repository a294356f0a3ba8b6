package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"skiipper/internal/ledger"
	"skiipper/internal/logger"
	"skiipper/internal/models"
	"skiipper/internal/repository"
)

// ErrReportUndeliverable means no transport is configured for weekly reports
var ErrReportUndeliverable = errors.New("weekly reports are not configured: set AMQP_URL or SES_FROM_EMAIL")

// ReportPublisher enqueues a weekly report for asynchronous delivery
type ReportPublisher interface {
	PublishWeeklyReport(ctx context.Context, email string, skips int, savings decimal.Decimal) error
}

// ReportMailer sends a weekly report immediately
type ReportMailer interface {
	SendWeeklyReport(ctx context.Context, email string, skips int, savings decimal.Decimal) error
}

// DispatchFailure is one report that could not be dispatched
type DispatchFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// DispatchSummary reports the outcome of a bulk send
type DispatchSummary struct {
	Sent   int               `json:"sent"`
	Failed []DispatchFailure `json:"failed"`
}

// ReportService computes weekly stats and dispatches report emails. Dispatch
// goes to the queue when one is configured, otherwise straight to SES. Nothing
// is retried.
type ReportService struct {
	statsRepo *repository.StatsRepository
	publisher ReportPublisher
	mailer    ReportMailer
	loc       *time.Location
}

// NewReportService creates a report service. publisher and mailer may be nil.
func NewReportService(statsRepo *repository.StatsRepository, publisher ReportPublisher, mailer ReportMailer, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{
		statsRepo: statsRepo,
		publisher: publisher,
		mailer:    mailer,
		loc:       loc,
	}
}

// CurrentWeek returns [Monday 00:00, next Monday 00:00) around now
func (s *ReportService) CurrentWeek(now time.Time) (time.Time, time.Time) {
	start := ledger.StartOfWeek(now.In(s.loc))
	return start, start.AddDate(0, 0, 7)
}

// GetUserStatsForWeek returns per-user skip totals for [weekStart, weekEnd)
func (s *ReportService) GetUserStatsForWeek(weekStart, weekEnd time.Time) ([]models.UserWeekStats, error) {
	if !weekEnd.After(weekStart) {
		return nil, fmt.Errorf("week end %s must be after week start %s", weekEnd.Format(time.DateOnly), weekStart.Format(time.DateOnly))
	}
	stats, err := s.statsRepo.GetUserStatsForWeek(weekStart.UTC(), weekEnd.UTC())
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []models.UserWeekStats{}
	}
	return stats, nil
}

// Dispatch hands one report to the configured transport
func (s *ReportService) Dispatch(ctx context.Context, email string, skips int, savings decimal.Decimal) error {
	savings = savings.Round(2)
	switch {
	case s.publisher != nil:
		if err := s.publisher.PublishWeeklyReport(ctx, email, skips, savings); err != nil {
			return fmt.Errorf("failed to queue weekly report: %w", err)
		}
	case s.mailer != nil:
		if err := s.mailer.SendWeeklyReport(ctx, email, skips, savings); err != nil {
			return fmt.Errorf("failed to send weekly report: %w", err)
		}
	default:
		return ErrReportUndeliverable
	}
	return nil
}

// SendWeeklyReports dispatches one report per user for [weekStart, weekEnd).
// A failed user does not stop the others.
func (s *ReportService) SendWeeklyReports(ctx context.Context, weekStart, weekEnd time.Time) (*DispatchSummary, error) {
	stats, err := s.GetUserStatsForWeek(weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	summary := &DispatchSummary{Failed: []DispatchFailure{}}
	for _, st := range stats {
		if err := s.Dispatch(ctx, st.Email, st.TotalSkips, st.TotalSavings); err != nil {
			if errors.Is(err, ErrReportUndeliverable) {
				return nil, err
			}
			logger.Warn("Weekly report dispatch failed", "email", st.Email, "error", err)
			summary.Failed = append(summary.Failed, DispatchFailure{Email: st.Email, Error: err.Error()})
			continue
		}
		summary.Sent++
	}
	logger.Info("Weekly reports dispatched", "sent", summary.Sent, "failed", len(summary.Failed))
	return summary, nil
}
