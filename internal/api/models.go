package api

import (
	"time"

	"github.com/google/uuid"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
	"garden-care/internal/service"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type taskResponse struct {
	ID         uint       `json:"id"`
	RuleID     *uint      `json:"rule_id,omitempty"`
	Plant      string     `json:"plant"`
	Plot       string     `json:"plot,omitempty"`
	Kind       string     `json:"kind"`
	Title      string     `json:"title,omitempty"`
	Due        string     `json:"due"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func newTaskResponse(task model.TaskInstance) taskResponse {
	resp := taskResponse{
		ID:         task.ID,
		RuleID:     task.RuleID,
		Kind:       string(task.Kind),
		Title:      task.Title,
		Due:        task.Due.Format(recurrence.DateLayout),
		Status:     string(task.Status),
		ResolvedAt: task.ResolvedAt,
	}
	if task.Plant != nil {
		resp.Plant = task.Plant.Name
		resp.Plot = task.Plant.Plot
	}
	return resp
}

type ruleResponse struct {
	ID          uint   `json:"id"`
	Plant       string `json:"plant"`
	Plot        string `json:"plot,omitempty"`
	Kind        string `json:"kind"`
	AnchorDate  string `json:"anchor_date"`
	EveryDays   *int   `json:"every_days,omitempty"`
	EveryMonths *int   `json:"every_months,omitempty"`
	Note        string `json:"note,omitempty"`
	Active      bool   `json:"active"`
	NextDue     string `json:"next_due,omitempty"`
}

func newRuleResponse(rule model.CareRule) ruleResponse {
	resp := ruleResponse{
		ID:          rule.ID,
		Kind:        string(rule.Kind),
		AnchorDate:  rule.AnchorDate.Format(recurrence.DateLayout),
		EveryDays:   rule.EveryDays,
		EveryMonths: rule.EveryMonths,
		Note:        rule.Note,
		Active:      rule.Active,
	}
	if rule.Plant != nil {
		resp.Plant = rule.Plant.Name
		resp.Plot = rule.Plant.Plot
	}
	return resp
}

type createRuleRequest struct {
	Plant       string `json:"plant" validate:"required"`
	Plot        string `json:"plot"`
	Kind        string `json:"kind" validate:"required"`
	AnchorDate  string `json:"anchor_date" validate:"required,datetime=2006-01-02"`
	EveryDays   *int   `json:"every_days"`
	EveryMonths *int   `json:"every_months"`
	Note        string `json:"note"`
}

type createTaskRequest struct {
	Plant string `json:"plant" validate:"required"`
	Kind  string `json:"kind" validate:"required"`
	Title string `json:"title"`
	Due   string `json:"due" validate:"required,datetime=2006-01-02"`
}

type statusRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Status string `json:"status" validate:"required,oneof=done snoozed rejected"`
}

type cycleRequest struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

type ruleFailure struct {
	RuleID uint   `json:"rule_id"`
	Error  string `json:"error"`
}

type cycleResponse struct {
	RunID      uuid.UUID     `json:"run_id"`
	AsOf       string        `json:"as_of"`
	Evaluated  int           `json:"evaluated"`
	Created    int           `json:"created"`
	Skipped    int           `json:"skipped"`
	Invalid    []uint        `json:"invalid"`
	Failures   []ruleFailure `json:"failures"`
	Generated  []uint        `json:"generated"`
	DurationMS int64         `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
}

func newCycleResponse(run service.CycleRun) cycleResponse {
	r := run.Report
	resp := cycleResponse{
		RunID:      run.ID,
		AsOf:       r.AsOf.Format(recurrence.DateLayout),
		Evaluated:  r.Evaluated,
		Created:    r.Created,
		Skipped:    r.Skipped,
		Invalid:    append([]uint{}, r.Invalid...),
		Failures:   make([]ruleFailure, 0, len(r.Failures)),
		Generated:  make([]uint, 0, len(r.Generated)),
		DurationMS: r.Duration().Milliseconds(),
	}
	for _, f := range r.Failures {
		resp.Failures = append(resp.Failures, ruleFailure{RuleID: f.RuleID, Error: f.Err.Error()})
	}
	for _, t := range r.Generated {
		resp.Generated = append(resp.Generated, t.ID)
	}
	if run.Err != nil {
		resp.Error = run.Err.Error()
	}
	return resp
}
