package handlers

import "skiipper/internal/security"

const (
	SessionCookieName = security.SessionCookieName
	LedgerCookieName  = security.LedgerCookieName

	CSRFHeaderName = "X-CSRF-Token"

	// EntryRoute is where clients go when they have no session.
	EntryRoute = "/"

	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrInternalServerError = "Internal server error"
)
