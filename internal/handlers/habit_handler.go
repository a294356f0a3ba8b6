package handlers

import (
	"net/http"
	"strconv"
	"time"

	"skiipper/internal/models"
	"skiipper/internal/service"
)

// HabitHandler serves the persisted dashboard habits of the signed-in user
type HabitHandler struct {
	habitService *service.HabitService
}

// NewHabitHandler creates a new habit handler
func NewHabitHandler(habitService *service.HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

func habitIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid habit ID", "", nil)
		return 0, false
	}
	return id, true
}

// ListHabits returns the user's habits
func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	habits, err := h.habitService.ListHabits(user.ID)
	if err != nil {
		respondWithServiceError(w, err, "Error listing habits")
		return
	}
	respondJSON(w, http.StatusOK, habits)
}

// CreateHabit stores a new habit
func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var habit models.StoredHabit
	if err := decodeJSON(w, r, &habit); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	if err := h.habitService.CreateHabit(user.ID, &habit); err != nil {
		respondWithServiceError(w, err, "Error creating habit")
		return
	}
	respondJSON(w, http.StatusCreated, habit)
}

// GetHabit returns one habit
func (h *HabitHandler) GetHabit(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	id, ok := habitIDFromPath(w, r)
	if !ok {
		return
	}
	habit, err := h.habitService.GetHabit(user.ID, id)
	if err != nil {
		respondWithServiceError(w, err, "Error loading habit")
		return
	}
	respondJSON(w, http.StatusOK, habit)
}

// UpdateHabit replaces a habit's definition
func (h *HabitHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	id, ok := habitIDFromPath(w, r)
	if !ok {
		return
	}
	var habit models.StoredHabit
	if err := decodeJSON(w, r, &habit); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	if err := h.habitService.UpdateHabit(user.ID, id, &habit); err != nil {
		respondWithServiceError(w, err, "Error updating habit")
		return
	}
	respondJSON(w, http.StatusOK, habit)
}

// DeleteHabit removes a habit and its skips
func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	id, ok := habitIDFromPath(w, r)
	if !ok {
		return
	}
	if err := h.habitService.DeleteHabit(user.ID, id); err != nil {
		respondWithServiceError(w, err, "Error deleting habit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSkips returns a habit's skip records
func (h *HabitHandler) ListSkips(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	id, ok := habitIDFromPath(w, r)
	if !ok {
		return
	}
	skips, err := h.habitService.ListSkips(user.ID, id)
	if err != nil {
		respondWithServiceError(w, err, "Error listing skips")
		return
	}
	respondJSON(w, http.StatusOK, skips)
}

type recordSkipRequest struct {
	Date  *time.Time `json:"date"`
	Spent bool       `json:"spent"`
}

// RecordSkip stores a skip, or a spend when spent is set
func (h *HabitHandler) RecordSkip(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	id, ok := habitIDFromPath(w, r)
	if !ok {
		return
	}
	var req recordSkipRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
			return
		}
	}
	in := service.SkipInput{Spent: req.Spent}
	if req.Date != nil {
		in.Date = *req.Date
	}
	rec, err := h.habitService.RecordSkip(user.ID, id, in)
	if err != nil {
		respondWithServiceError(w, err, "Error recording skip")
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}
