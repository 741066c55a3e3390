package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"workhub.service/internal/core"
	"workhub.service/internal/core/model"
)

const dateParamLayout = "2006-01-02"

// AttendanceHandler exposes the punch state machine over HTTP.
type AttendanceHandler struct {
	Service *core.AttendanceService
}

type punchRequest struct {
	UserID    string            `json:"userId"`
	Action    model.PunchAction `json:"action"`
	Date      string            `json:"date,omitempty"`
	BreakType *model.BreakType  `json:"breakType,omitempty"`
}

// Punch applies one IN / OUT / START_BREAK / END_BREAK action.
// Precondition violations come back as {error} with no mutation; only
// malformed input is a 400 and only infrastructure failure is a 500.
func (h *AttendanceHandler) Punch(w http.ResponseWriter, r *http.Request) {
	var req punchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "userId and action are required")
		return
	}

	date, ok := parseDateParam(w, req.Date)
	if !ok {
		return
	}

	state, err := h.Service.PerformPunch(r.Context(), req.UserID, req.Action, date, req.BreakType)
	if err != nil {
		if core.IsPunchError(err) {
			writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("Punch failed")
		writeError(w, http.StatusInternalServerError, "Failed to update attendance.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"updatedState": state,
	})
}

// PunchStatus returns the derived view for one attendance day, default today.
func (h *AttendanceHandler) PunchStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	date, ok := parseDateParam(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}

	state, err := h.Service.GetPunchStatus(r.Context(), userID, date)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Punch status lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to load attendance.")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Monthly returns the month's records plus the weekly aggregate of the
// week containing the reference date (default today).
func (h *AttendanceHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	year, errY := strconv.Atoi(q.Get("year"))
	month, errM := strconv.Atoi(q.Get("month"))
	if errY != nil || errM != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "year and month (1-12) are required")
		return
	}

	records, err := h.Service.GetMonthlyAttendance(r.Context(), userID, year, time.Month(month))
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Monthly attendance lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to load attendance.")
		return
	}

	ref := time.Now()
	if d, ok := parseDateParam(w, q.Get("date")); !ok {
		return
	} else if d != nil {
		ref = *d
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records":   records,
		"weekHours": core.WeeklyHours(records, ref),
	})
}

// parseDateParam parses an optional YYYY-MM-DD value; replies 400 when the
// value is present but malformed.
func parseDateParam(w http.ResponseWriter, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	d, err := time.ParseInLocation(dateParamLayout, value, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}
