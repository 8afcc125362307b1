// Package api is the REST surface. Handlers stay thin: decode, resolve
// the caller's subject, delegate to the services, map errors to status
// codes. Ownership on the id-addressed routes follows the not-found-first
// contract: 404 while the record is unknown, 403 once it is known to
// belong to someone else.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/pvolkov/remindly/internal/auth"
	"github.com/pvolkov/remindly/internal/model"
	"github.com/pvolkov/remindly/internal/query"
	"github.com/pvolkov/remindly/internal/service"
)

// Server bundles the handlers and their dependencies.
type Server struct {
	reminders *service.ReminderService
	users     *service.UserService
	verifier  *auth.Verifier
	logger    *log.Logger
}

// New creates the API server.
func New(reminders *service.ReminderService, users *service.UserService, verifier *auth.Verifier, logger *log.Logger) *Server {
	return &Server{reminders: reminders, users: users, verifier: verifier, logger: logger}
}

// Handler returns the routed handler with authentication applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/reminder/create", s.createReminder)
	mux.HandleFunc("GET /api/v1/reminder/list", s.listReminders)
	mux.HandleFunc("GET /api/v1/reminder/paged", s.pagedReminders)
	mux.HandleFunc("GET /api/v1/reminder/sort", s.sortReminders)
	mux.HandleFunc("GET /api/v1/reminder/filter", s.filterReminders)
	mux.HandleFunc("GET /api/v1/reminder/search", s.searchReminders)
	mux.HandleFunc("GET /api/v1/reminder/{id}", s.getReminder)
	mux.HandleFunc("PUT /api/v1/reminder/update", s.updateReminder)
	mux.HandleFunc("DELETE /api/v1/reminder/delete/{id}", s.deleteReminder)

	mux.HandleFunc("POST /api/v1/user", s.upsertUser)
	mux.HandleFunc("GET /api/v1/user/{id}", s.getUser)
	mux.HandleFunc("DELETE /api/v1/user/{id}", s.deleteUser)

	return s.verifier.Middleware(mux)
}

// ------------------ reminders ------------------

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) {
	var in service.CreateReminderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.reminders.Create(auth.SubjectFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, created)
}

func (s *Server) getReminder(w http.ResponseWriter, r *http.Request) {
	reminder, ok := s.ownedReminder(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, reminder)
}

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.reminders.List(auth.SubjectFrom(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) pagedReminders(w http.ResponseWriter, r *http.Request) {
	page := intQueryParam(r, "page", 0)
	size := intQueryParam(r, "size", 10)

	result, err := s.reminders.Paged(auth.SubjectFrom(r.Context()), page, size)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) updateReminder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID uint `json:"id"`
		service.UpdateReminderInput
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	existing, err := s.reminders.Get(in.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if existing.OwnerSub() != auth.SubjectFrom(r.Context()) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	updated, err := s.reminders.Update(in.ID, in.UpdateReminderInput)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteReminder(w http.ResponseWriter, r *http.Request) {
	reminder, ok := s.ownedReminder(w, r)
	if !ok {
		return
	}

	deleted, err := s.reminders.Delete(reminder.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !deleted {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) sortReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.reminders.Sort(auth.SubjectFrom(r.Context()), r.URL.Query().Get("by"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) filterReminders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	beforeDate, err1 := dateQueryParam(q.Get("beforeDate"))
	afterDate, err2 := dateQueryParam(q.Get("afterDate"))
	beforeTime, err3 := timeQueryParam(q.Get("beforeTime"))
	afterTime, err4 := timeQueryParam(q.Get("afterTime"))
	if err := firstError(err1, err2, err3, err4); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := service.FilterParams{
		BeforeDate: beforeDate,
		AfterDate:  afterDate,
		BeforeTime: beforeTime,
		AfterTime:  afterTime,
	}
	reminders, err := s.reminders.Filter(auth.SubjectFrom(r.Context()), params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) searchReminders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	remindDate, err1 := dateQueryParam(q.Get("remindDate"))
	remindTime, err2 := timeQueryParam(q.Get("remindTime"))
	if err := firstError(err1, err2); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := service.SearchParams{
		Name:        q.Get("name"),
		Description: q.Get("description"),
		RemindDate:  remindDate,
		RemindTime:  remindTime,
	}
	reminders, err := s.reminders.Search(auth.SubjectFrom(r.Context()), params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reminders)
}

// ownedReminder loads the reminder from the {id} path segment and enforces
// ownership, writing the error response itself when the check fails.
func (s *Server) ownedReminder(w http.ResponseWriter, r *http.Request) (*model.Reminder, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}

	reminder, err := s.reminders.Get(uint(id))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	if reminder.OwnerSub() != auth.SubjectFrom(r.Context()) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return reminder, true
}

// ------------------ users ------------------

func (s *Server) upsertUser(w http.ResponseWriter, r *http.Request) {
	var in service.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.users.Upsert(auth.SubjectFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	user, err := s.users.Get(uint(id))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	deleted, err := s.users.Delete(uint(id))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !deleted {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ------------------ helpers ------------------

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("api: encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, query.ErrInvalidSortField):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrUserNotFound):
		s.logger.Printf("api: %v", err)
		http.Error(w, "caller is not registered", http.StatusInternalServerError)
	default:
		s.logger.Printf("api: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func intQueryParam(r *http.Request, key string, def int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func dateQueryParam(value string) (*model.Date, error) {
	if value == "" {
		return nil, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func timeQueryParam(value string) (*model.ClockTime, error) {
	if value == "" {
		return nil, nil
	}
	t, err := model.ParseClockTime(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
