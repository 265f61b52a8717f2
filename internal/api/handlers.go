package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/habitual/internal/agenda"
	"github.com/julianstephens/habitual/internal/completion"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

const maxBodyBytes = 1 << 20

type agendaItem struct {
	models.Habit
	Completed bool `json:"completed"`
}

type agendaDay struct {
	Date    string               `json:"date"`
	Habits  []agendaItem         `json:"habits"`
	Summary models.AgendaSummary `json:"summary"`
}

// habitRequest is the create payload. Dates are YYYY-MM-DD; an empty start
// date means today.
type habitRequest struct {
	OwnerID   string           `json:"owner_id"`
	Name      string           `json:"name"`
	Details   string           `json:"details"`
	Frequency models.Frequency `json:"frequency"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
}

type patchRequest struct {
	Name      *string           `json:"name"`
	Details   *string           `json:"details"`
	Frequency *models.Frequency `json:"frequency"`
	StartDate *string           `json:"start_date"`
	EndDate   *string           `json:"end_date"`
	Paused    *bool             `json:"paused"`
}

type toggleResponse struct {
	HabitID   string     `json:"habit_id"`
	Date      string     `json:"date"`
	Completed bool       `json:"completed"`
	Streak    int        `json:"streak"`
	LastDone  *time.Time `json:"last_done,omitempty"`
}

func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	date, err := s.queryDay(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	owner := r.URL.Query().Get("owner")

	due, err := s.svc.GetHabitsForDate(date, owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildDay(date, due))
}

func (s *Server) handleAgendaRange(w http.ResponseWriter, r *http.Request) {
	base, err := s.queryDay(r, "base")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	from, err := queryInt(r, "from", 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	to, err := queryInt(r, "to", 6)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	byDay, err := s.svc.GetHabitsForRange(base, from, to, r.URL.Query().Get("owner"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]agendaDay, 0, len(days))
	for _, d := range days {
		out = append(out, buildDay(d, byDay[d]))
	}
	writeJSON(w, http.StatusOK, out)
}

func buildDay(date time.Time, due []models.Habit) agendaDay {
	day := agendaDay{
		Date:    utils.FormatDay(date),
		Habits:  make([]agendaItem, 0, len(due)),
		Summary: agenda.SummarizeDue(due, date),
	}
	for _, h := range due {
		day.Habits = append(day.Habits, agendaItem{Habit: h, Completed: completion.IsCompletedOn(h, date)})
	}
	return day
}

// handleReminder returns the digest due now, or 204 outside the reminder windows
func (s *Server) handleReminder(w http.ResponseWriter, r *http.Request) {
	reminder, ok, err := s.svc.Reminder(r.URL.Query().Get("owner"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, reminder)
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.svc.ListHabits(r.URL.Query().Get("owner"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	input := models.HabitInput{
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Details:   req.Details,
		Frequency: req.Frequency,
	}
	start, err := utils.ParseDayOrToday(req.StartDate, s.svc.Now())
	if err != nil {
		writeServiceError(w, apperrors.NewValidation("start_date", "%v", err))
		return
	}
	input.StartDate = start
	if req.EndDate != "" {
		end, err := utils.ParseDay(req.EndDate)
		if err != nil {
			writeServiceError(w, apperrors.NewValidation("end_date", "expected YYYY-MM-DD"))
			return
		}
		input.EndDate = &end
	}

	h, err := s.svc.CreateHabit(input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	h, err := s.visibleHabit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	h, err := s.visibleHabit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req patchRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	patch := models.HabitPatch{
		Name:      req.Name,
		Details:   req.Details,
		Frequency: req.Frequency,
		Paused:    req.Paused,
	}
	if patch.StartDate, err = optionalDay("start_date", req.StartDate); err != nil {
		writeServiceError(w, err)
		return
	}
	if patch.EndDate, err = optionalDay("end_date", req.EndDate); err != nil {
		writeServiceError(w, err)
		return
	}

	updated, err := s.svc.UpdateHabit(h.ID, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	h, err := s.visibleHabit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := s.svc.DeleteHabit(h.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	h, err := s.visibleHabit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	date, err := s.queryDay(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	res, err := s.svc.ToggleHabitCompletion(h.ID, date)
	if err != nil {
		s.metrics.Toggled("rejected")
		writeServiceError(w, err)
		return
	}
	if res.Completed {
		s.metrics.Toggled("completed")
	} else {
		s.metrics.Toggled("uncompleted")
	}
	writeJSON(w, http.StatusOK, toggleResponse{
		HabitID:   h.ID,
		Date:      utils.FormatDay(date),
		Completed: res.Completed,
		Streak:    res.Streak,
		LastDone:  res.LastDone,
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	h, err := s.visibleHabit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	date, err := s.queryDay(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := s.svc.Progress(h.ID, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	h, err := s.visibleHabit(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	stats, err := s.svc.Stats(h.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// visibleHabit loads the {id} habit. With an owner query parameter, habits
// of other owners are reported as not found.
func (s *Server) visibleHabit(r *http.Request) (models.Habit, error) {
	id := chi.URLParam(r, "id")
	h, err := s.svc.GetHabit(id)
	if err != nil {
		return models.Habit{}, err
	}
	if owner := r.URL.Query().Get("owner"); owner != "" && h.OwnerID != owner {
		return models.Habit{}, apperrors.NewNotFound("habit", id)
	}
	return h, nil
}

func (s *Server) queryDay(r *http.Request, key string) (time.Time, error) {
	d, err := utils.ParseDayOrToday(r.URL.Query().Get(key), s.svc.Now())
	if err != nil {
		return time.Time{}, apperrors.NewValidation(key, "%v", err)
	}
	return d, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.NewValidation(key, "must be an integer")
	}
	return n, nil
}

func optionalDay(field string, v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	d, err := utils.ParseDay(*v)
	if err != nil {
		return nil, apperrors.NewValidation(field, "expected YYYY-MM-DD")
	}
	return &d, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.NewValidation("body", "invalid JSON: %v", err)
	}
	return nil
}
