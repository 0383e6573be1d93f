package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"garden-care/internal/logging"
	"garden-care/internal/model"
	"garden-care/internal/recurrence"
	"garden-care/internal/repository"
	"garden-care/internal/service"
)

// Handler serves the JSON API.
type Handler struct {
	db       *gorm.DB
	rules    *service.RuleService
	tasks    *service.TaskService
	cycles   *service.CycleService
	validate *validator.Validate
	log      zerolog.Logger
}

func NewHandler(db *gorm.DB, rules *service.RuleService, tasks *service.TaskService, cycles *service.CycleService, log zerolog.Logger) *Handler {
	return &Handler{
		db:       db,
		rules:    rules,
		tasks:    tasks,
		cycles:   cycles,
		validate: validator.New(),
		log:      logging.Component(log, "api"),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := repository.Ping(r.Context(), h.db); err != nil {
		h.log.Error().Err(err).Msg("health check failed")
		h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTasks handles GET /api/users/{userID}/tasks?status=pending,done.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var statuses []model.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := model.TaskStatus(strings.TrimSpace(part))
			if !status.Valid() {
				h.respondError(w, r, fmt.Errorf("%w: unknown status %q", errBadRequest, part))
				return
			}
			statuses = append(statuses, status)
		}
	}

	tasks, err := h.tasks.ListTasks(r.Context(), userID, statuses...)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		resp = append(resp, newTaskResponse(task))
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// CreateTask handles POST /api/users/{userID}/tasks for one-off tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req createTaskRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	due, _ := time.Parse(recurrence.DateLayout, req.Due)

	task, err := h.tasks.CreateManualTask(r.Context(), userID, service.ManualTaskInput{
		PlantName: req.Plant,
		Kind:      req.Kind,
		Title:     req.Title,
		Due:       due,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, newTaskResponse(*task))
}

// GetTask handles GET /api/tasks/{taskID}?user_id=1.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := idParam(r, "taskID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	userID, err := parseID(r.URL.Query().Get("user_id"), "user_id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	task, err := h.tasks.GetTask(r.Context(), userID, taskID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newTaskResponse(*task))
}

// DeleteTask handles DELETE /api/tasks/{taskID}?user_id=1.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := idParam(r, "taskID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	userID, err := parseID(r.URL.Query().Get("user_id"), "user_id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), userID, taskID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTaskStatus handles POST /api/tasks/{taskID}/status.
func (h *Handler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := idParam(r, "taskID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req statusRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	task, err := h.tasks.Transition(r.Context(), req.UserID, taskID, model.TaskStatus(req.Status))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, newTaskResponse(*task))
}

// ListRules handles GET /api/users/{userID}/rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rules, err := h.rules.ListRules(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		item := newRuleResponse(rule)
		if rule.Active {
			due, ok, err := h.rules.NextDue(r.Context(), rule)
			if err != nil {
				h.respondError(w, r, err)
				return
			}
			if ok {
				item.NextDue = due.Format(recurrence.DateLayout)
			}
		}
		resp = append(resp, item)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// CreateRule handles POST /api/users/{userID}/rules.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req createRuleRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	anchor, _ := time.Parse(recurrence.DateLayout, req.AnchorDate)

	rule, err := h.rules.CreateRule(r.Context(), userID, service.RuleInput{
		PlantName:   req.Plant,
		Plot:        req.Plot,
		Kind:        req.Kind,
		AnchorDate:  anchor,
		EveryDays:   req.EveryDays,
		EveryMonths: req.EveryMonths,
		Note:        req.Note,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := newRuleResponse(*rule)
	if due, ok, err := recurrence.NextDue(*rule, nil); err == nil && ok {
		resp.NextDue = due.Format(recurrence.DateLayout)
	}
	h.respondJSON(w, http.StatusCreated, resp)
}

// DeleteRule handles DELETE /api/rules/{ruleID}?user_id=1.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := idParam(r, "ruleID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	userID, err := parseID(r.URL.Query().Get("user_id"), "user_id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.rules.DeleteRule(r.Context(), userID, ruleID); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunCycle handles POST /api/cycles. An empty body runs the cycle for today.
func (h *Handler) RunCycle(w http.ResponseWriter, r *http.Request) {
	var req cycleRequest
	if r.ContentLength != 0 {
		if err := h.decode(r, &req); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	var (
		run service.CycleRun
		err error
	)
	if req.AsOf == "" {
		run, err = h.cycles.RunToday(r.Context())
	} else {
		asOf, _ := time.Parse(recurrence.DateLayout, req.AsOf)
		run, err = h.cycles.Run(r.Context(), asOf)
	}
	switch {
	case errors.Is(err, recurrence.ErrCycleInProgress):
		h.respondError(w, r, err)
	case err != nil:
		h.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("cycle aborted")
		h.respondJSON(w, http.StatusInternalServerError, newCycleResponse(run))
	default:
		h.respondJSON(w, http.StatusOK, newCycleResponse(run))
	}
}

// LastCycle handles GET /api/cycles/last.
func (h *Handler) LastCycle(w http.ResponseWriter, r *http.Request) {
	run, ok := h.cycles.Last()
	if !ok {
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "no cycle has run yet", RequestID: middleware.GetReqID(r.Context())})
		return
	}
	h.respondJSON(w, http.StatusOK, newCycleResponse(run))
}

func (h *Handler) decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if err := h.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func idParam(r *http.Request, name string) (uint, error) {
	return parseID(chi.URLParam(r, name), name)
}

func parseID(raw, name string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
	}
	return uint(id), nil
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	reqID := middleware.GetReqID(r.Context())
	event := h.log.Debug()
	if status >= http.StatusInternalServerError {
		event = h.log.Error()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Str("request_id", reqID).Msg("API error response")
	h.respondJSON(w, status, errorResponse{Error: safeMessage(err), RequestID: reqID})
}
