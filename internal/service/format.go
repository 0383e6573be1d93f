package service

import (
	"fmt"
	"html"
	"time"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
)

const displayDate = "Mon 02 Jan"

var kindIcons = map[model.TaskKind]string{
	model.KindWater:     "💧",
	model.KindFertilize: "🌱",
	model.KindPrune:     "✂️",
	model.KindTreat:     "🧪",
	model.KindHarvest:   "🧺",
	model.KindOther:     "📌",
}

// KindIcon returns the emoji shown next to tasks of the given kind.
func KindIcon(kind model.TaskKind) string {
	if icon, ok := kindIcons[kind]; ok {
		return icon
	}
	return kindIcons[model.KindOther]
}

// PlantLabel renders "Name (Plot)" or just the name.
func PlantLabel(plant *model.Plant) string {
	if plant == nil {
		return "unknown plant"
	}
	if plant.Plot == "" {
		return plant.Name
	}
	return fmt.Sprintf("%s (%s)", plant.Name, plant.Plot)
}

// FormatTask renders one HTML line for a task relative to today.
func FormatTask(task model.TaskInstance, today time.Time) string {
	line := fmt.Sprintf("%s <b>%s</b> %s", KindIcon(task.Kind), html.EscapeString(string(task.Kind)), html.EscapeString(PlantLabel(task.Plant)))
	if task.Title != "" {
		line += " · " + html.EscapeString(task.Title)
	}
	return line + " · " + dueLabel(task.Due, today)
}

// FormatRule renders one HTML line for a rule.
func FormatRule(rule model.CareRule) string {
	period := "once"
	if p, recurring, err := recurrence.PeriodOf(rule); err != nil {
		period = "invalid period"
	} else if recurring {
		period = "every " + p.String()
	}
	line := fmt.Sprintf("%s <b>%s</b> %s · %s from %s", KindIcon(rule.Kind), html.EscapeString(string(rule.Kind)),
		html.EscapeString(PlantLabel(rule.Plant)), period, rule.AnchorDate.Format(recurrence.DateLayout))
	if rule.Note != "" {
		line += " · " + html.EscapeString(rule.Note)
	}
	if !rule.Active {
		line += " ⏸"
	}
	return line
}

func dueLabel(due, today time.Time) string {
	days := int(recurrence.Day(due).Sub(recurrence.Day(today)).Hours() / 24)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "⚠️ 1 day overdue"
	case days < 0:
		return fmt.Sprintf("⚠️ %d days overdue", -days)
	default:
		return due.Format(displayDate)
	}
}
