package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyReportMessage asks the worker to email one user's weekly figures
type WeeklyReportMessage struct {
	Email     string          `json:"email"`
	Skips     int             `json:"skips"`
	Savings   decimal.Decimal `json:"savings"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewWeeklyReportMessage creates a report message stamped with the current time
func NewWeeklyReportMessage(email string, skips int, savings decimal.Decimal) *WeeklyReportMessage {
	return &WeeklyReportMessage{
		Email:     email,
		Skips:     skips,
		Savings:   savings,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *WeeklyReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// WeeklyReportMessageFromJSON decodes and checks a message body
func WeeklyReportMessageFromJSON(data []byte) (*WeeklyReportMessage, error) {
	var msg WeeklyReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Email == "" {
		return nil, fmt.Errorf("weekly report message has no email")
	}
	if msg.Skips < 0 {
		return nil, fmt.Errorf("weekly report message has negative skips")
	}
	return &msg, nil
}
