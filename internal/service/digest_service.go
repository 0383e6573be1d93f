package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
	"garden-care/internal/repository"
)

// upcomingWindow is how far ahead the digest looks for rules coming due.
const upcomingWindow = 7 * 24 * time.Hour

// Digest groups a user's open work relative to one day.
type Digest struct {
	Today    time.Time
	Overdue  []model.TaskInstance
	DueToday []model.TaskInstance
	// Scheduled holds pending tasks due after today.
	Scheduled []model.TaskInstance
	Upcoming  []Upcoming
}

// Upcoming is a projected instance of an active rule.
type Upcoming struct {
	Rule model.CareRule
	Due  time.Time
}

// Empty reports whether there is nothing to tell the user.
func (d Digest) Empty() bool {
	return len(d.Overdue) == 0 && len(d.DueToday) == 0 && len(d.Scheduled) == 0 && len(d.Upcoming) == 0
}

// DigestService builds human-readable summaries for daily notifications.
type DigestService struct {
	taskRepo *repository.TaskRepository
	ruleRepo *repository.RuleRepository
}

func NewDigestService(taskRepo *repository.TaskRepository, ruleRepo *repository.RuleRepository) *DigestService {
	return &DigestService{taskRepo: taskRepo, ruleRepo: ruleRepo}
}

// Build collects pending tasks and the rules coming due within a week.
func (s *DigestService) Build(ctx context.Context, userID uint, today time.Time) (Digest, error) {
	today = recurrence.Day(today)
	digest := Digest{Today: today}

	pending, err := s.taskRepo.ListByUser(ctx, userID, model.StatusPending)
	if err != nil {
		return Digest{}, err
	}
	for _, task := range pending {
		switch {
		case task.Due.Before(today):
			digest.Overdue = append(digest.Overdue, task)
		case task.Due.After(today):
			digest.Scheduled = append(digest.Scheduled, task)
		default:
			digest.DueToday = append(digest.DueToday, task)
		}
	}

	rules, err := s.ruleRepo.ListByUser(ctx, userID)
	if err != nil {
		return Digest{}, err
	}
	horizon := today.Add(upcomingWindow)
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		latest, err := s.taskRepo.LatestForRule(ctx, rule.ID)
		if err != nil {
			return Digest{}, err
		}
		due, ok, err := recurrence.NextDue(rule, latest)
		if err != nil || !ok {
			continue
		}
		if due.After(today) && !due.After(horizon) {
			digest.Upcoming = append(digest.Upcoming, Upcoming{Rule: rule, Due: due})
		}
	}
	sort.SliceStable(digest.Upcoming, func(i, j int) bool {
		return digest.Upcoming[i].Due.Before(digest.Upcoming[j].Due)
	})
	return digest, nil
}

// DailySummary renders the digest as Telegram HTML.
func (s *DigestService) DailySummary(ctx context.Context, user model.User, today time.Time) (string, error) {
	digest, err := s.Build(ctx, user.ID, today)
	if err != nil {
		return "", err
	}
	return RenderDigest(digest), nil
}

func RenderDigest(d Digest) string {
	var builder strings.Builder
	builder.WriteString("🌿 <b>Garden digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", d.Today.Format(displayDate)))

	if d.Empty() {
		builder.WriteString("\nNothing to do. Enjoy the garden!")
		return builder.String()
	}

	writeTasks := func(title string, tasks []model.TaskInstance) {
		if len(tasks) == 0 {
			return
		}
		builder.WriteString("\n" + title + "\n")
		for _, task := range tasks {
			builder.WriteString("• " + FormatTask(task, d.Today) + "\n")
		}
	}
	writeTasks("⚠️ <b>Overdue</b>", d.Overdue)
	writeTasks("🔥 <b>Today</b>", d.DueToday)
	writeTasks("🗓 <b>Scheduled</b>", d.Scheduled)

	if len(d.Upcoming) > 0 {
		builder.WriteString("\n📅 <b>Coming up</b>\n")
		for _, up := range d.Upcoming {
			builder.WriteString(fmt.Sprintf("• %s %s %s · %s\n", KindIcon(up.Rule.Kind), up.Rule.Kind,
				html.EscapeString(PlantLabel(up.Rule.Plant)), dueLabel(up.Due, d.Today)))
		}
	}
	return strings.TrimSpace(builder.String())
}
