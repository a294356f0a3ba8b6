package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"skiipper/internal/ledger"
	"skiipper/internal/logger"
	"skiipper/internal/security"
	"skiipper/internal/service"
	"skiipper/internal/validation"
)

type errorResponse struct {
	Error    string `json:"error"`
	Field    string `json:"field,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger.Error(logMsg, "error", err)
	}
	respondJSON(w, status, errorResponse{Error: userMsg})
}

func respondUnauthorized(w http.ResponseWriter) {
	respondJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthorized, Redirect: EntryRoute})
}

// decodeJSON reads a JSON body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respondWithServiceError maps domain errors onto HTTP statuses. Declined
// skips are 409 with the reason as the message.
func respondWithServiceError(w http.ResponseWriter, err error, logMsg string) {
	var ve validation.ValidationError
	var le *ledger.LimitError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.As(err, &le):
		respondJSON(w, http.StatusConflict, errorResponse{Error: le.Reason, Kind: string(le.Kind)})
	case errors.Is(err, ledger.ErrHabitNotFound),
		errors.Is(err, ledger.ErrSkipNotFound),
		errors.Is(err, service.ErrHabitNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), "", nil)
	case errors.Is(err, ledger.ErrForfeitExpired), errors.Is(err, ledger.ErrForfeitLog):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, http.StatusConflict, "An account with that email already exists", "", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, security.ErrInvalidToken):
		respondUnauthorized(w)
	case errors.Is(err, service.ErrReportUndeliverable), errors.Is(err, service.ErrTokensDisabled):
		respondWithError(w, http.StatusServiceUnavailable, err.Error(), logMsg, err)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

func isUndeliverable(err error) bool {
	return errors.Is(err, service.ErrReportUndeliverable)
}
