package repository

import (
	"fmt"
	"time"

	"skiipper/internal/database"
	"skiipper/internal/models"
)

// StatsRepository runs the reporting queries
type StatsRepository struct {
	db database.DBTX
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db database.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetUserStatsForWeek returns every user's skip count and savings for skips
// dated in [weekStart, weekEnd). Users without skips report zeros. Spends are
// not counted.
func (r *StatsRepository) GetUserStatsForWeek(weekStart, weekEnd time.Time) ([]models.UserWeekStats, error) {
	query := `
		SELECT u.email, COUNT(s.id), COALESCE(SUM(s.amount_saved), 0)
		FROM users u
		LEFT JOIN skip_records s
			ON s.user_id = u.id
			AND s.is_spent = ?
			AND s.skip_date >= ?
			AND s.skip_date < ?
		GROUP BY u.id, u.email
		ORDER BY u.email
	`
	rows, err := r.db.Query(query, false, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly stats: %w", err)
	}
	defer rows.Close()

	var stats []models.UserWeekStats
	for rows.Next() {
		var s models.UserWeekStats
		if err := rows.Scan(&s.Email, &s.TotalSkips, &s.TotalSavings); err != nil {
			return nil, fmt.Errorf("failed to scan weekly stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
