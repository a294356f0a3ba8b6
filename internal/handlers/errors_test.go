package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"skiipper/internal/ledger"
	"skiipper/internal/logger"
	"skiipper/internal/service"
	"skiipper/internal/validation"
)

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%q)", err, recorder.Body.String())
	}
	return body
}

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	if body := decodeError(t, recorder); body.Error != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", body.Error)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	original := logger.Logger
	logger.Logger = log.New(&buf)
	defer func() { logger.Logger = original }()

	recorder := httptest.NewRecorder()
	respondWithError(recorder, 500, "Internal server error", "", errors.New("boom"))

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
	if strings.Contains(recorder.Body.String(), "boom") {
		t.Fatalf("internal error leaked to client: %q", recorder.Body.String())
	}
}

func TestRespondUnauthorizedRedirectsToEntry(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondUnauthorized(recorder)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if body := decodeError(t, recorder); body.Redirect != EntryRoute {
		t.Fatalf("expected redirect %q, got %q", EntryRoute, body.Redirect)
	}
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantField  string
	}{
		{
			name:       "validation",
			err:        validation.ValidationError{Field: "expense", Message: "must be positive"},
			wantStatus: http.StatusBadRequest,
			wantField:  "expense",
		},
		{
			name:       "declined skip",
			err:        &ledger.LimitError{Kind: ledger.LimitDailyCap, Reason: "already skipped today"},
			wantStatus: http.StatusConflict,
			wantKind:   string(ledger.LimitDailyCap),
		},
		{
			name:       "wrapped declined skip",
			err:        fmt.Errorf("record: %w", &ledger.LimitError{Kind: ledger.LimitForfeited, Reason: "forfeited"}),
			wantStatus: http.StatusConflict,
			wantKind:   string(ledger.LimitForfeited),
		},
		{name: "unknown habit", err: ledger.ErrHabitNotFound, wantStatus: http.StatusNotFound},
		{name: "unknown skip", err: ledger.ErrSkipNotFound, wantStatus: http.StatusNotFound},
		{name: "unknown stored habit", err: service.ErrHabitNotFound, wantStatus: http.StatusNotFound},
		{name: "forfeit expired", err: ledger.ErrForfeitExpired, wantStatus: http.StatusConflict},
		{name: "email taken", err: service.ErrEmailTaken, wantStatus: http.StatusConflict},
		{name: "bad credentials", err: service.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "expired session", err: service.ErrSessionExpired, wantStatus: http.StatusUnauthorized},
		{name: "no transport", err: service.ErrReportUndeliverable, wantStatus: http.StatusServiceUnavailable},
		{name: "anything else", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, tt.err, "")

			if recorder.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tt.wantStatus)
			}
			body := decodeError(t, recorder)
			if body.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", body.Kind, tt.wantKind)
			}
			if body.Field != tt.wantField {
				t.Errorf("field = %q, want %q", body.Field, tt.wantField)
			}
			if body.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}
