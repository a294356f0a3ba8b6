package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"skiipper/internal/logger"
	"skiipper/internal/repository"
	"skiipper/internal/service"
	"skiipper/internal/validation"
)

const maxImportSize = 10 << 20

// AdminHandler handles admin-specific routes. Every route is wrapped in
// RequireAdmin.
type AdminHandler struct {
	reportService *service.ReportService
	backupService *service.BackupService
	userRepo      *repository.UserRepository
	loc           *time.Location
	now           func() time.Time
}

// NewAdminHandler creates a new admin handler. Week dates in requests are
// read in loc.
func NewAdminHandler(reportService *service.ReportService, backupService *service.BackupService, userRepo *repository.UserRepository, loc *time.Location) *AdminHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AdminHandler{
		reportService: reportService,
		backupService: backupService,
		userRepo:      userRepo,
		loc:           loc,
		now:           time.Now,
	}
}

// weekRange reads week_start and week_end (YYYY-MM-DD). Missing start means
// the current week; missing end means seven days after start.
func (h *AdminHandler) weekRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	if q.Get("week_start") == "" {
		start, end := h.reportService.CurrentWeek(h.now())
		return start, end, nil
	}

	start, err := time.ParseInLocation(time.DateOnly, q.Get("week_start"), h.loc)
	if err != nil {
		return time.Time{}, time.Time{}, validation.ValidationError{Field: "week_start", Message: "must be a date like 2006-01-02"}
	}
	end := start.AddDate(0, 0, 7)
	if v := q.Get("week_end"); v != "" {
		end, err = time.ParseInLocation(time.DateOnly, v, h.loc)
		if err != nil {
			return time.Time{}, time.Time{}, validation.ValidationError{Field: "week_end", Message: "must be a date like 2006-01-02"}
		}
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, validation.ValidationError{Field: "week_end", Message: "must be after week_start"}
	}
	return start, end, nil
}

// GetWeekStats returns per-user skip totals for a week
func (h *AdminHandler) GetWeekStats(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.weekRange(r)
	if err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	stats, err := h.reportService.GetUserStatsForWeek(start, end)
	if err != nil {
		respondWithServiceError(w, err, "Error loading weekly stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// SendWeeklyReports dispatches one report per user for a week
func (h *AdminHandler) SendWeeklyReports(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.weekRange(r)
	if err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	summary, err := h.reportService.SendWeeklyReports(r.Context(), start, end)
	if err != nil {
		respondWithServiceError(w, err, "Error sending weekly reports")
		return
	}

	user := GetUserFromContext(r.Context())
	logger.Info("Weekly reports sent by admin", "admin_id", user.ID, "sent", summary.Sent, "failed", len(summary.Failed))
	respondJSON(w, http.StatusOK, summary)
}

// ListUsers returns every account
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAllUsers()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load users", "Error fetching users", err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// DeleteUser deletes an account and everything it owns
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID", "", nil)
		return
	}
	if userID == user.ID {
		respondWithError(w, http.StatusBadRequest, "Cannot delete your own account", "", nil)
		return
	}

	target, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete user", "Error fetching user", err)
		return
	}
	if target == nil {
		respondWithError(w, http.StatusNotFound, "User not found", "", nil)
		return
	}

	if err := h.userRepo.DeleteUser(userID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete user", "Error deleting user", err)
		return
	}
	logger.Info("User deleted by admin", "admin_id", user.ID, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// ExportDatabase streams a JSON backup of users, habits and skips
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	filename := fmt.Sprintf("skiipper_backup_%s.json", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if _, err := h.backupService.ExportToWriter(w); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to export database", "Error exporting database", err)
		return
	}
	logger.Info("Database exported by admin", "admin_id", user.ID)
}

type importResponse struct {
	Users  int `json:"users"`
	Habits int `json:"habits"`
	Skips  int `json:"skips"`
}

// ImportDatabase restores a JSON backup posted as the request body
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	backup, err := h.backupService.ImportFromReader(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		respondWithServiceError(w, validation.ValidationError{Field: "backup", Message: err.Error()}, "")
		return
	}

	logger.Info("Database imported by admin", "admin_id", user.ID)
	respondJSON(w, http.StatusOK, importResponse{
		Users:  len(backup.Users),
		Habits: len(backup.Habits),
		Skips:  len(backup.Skips),
	})
}
