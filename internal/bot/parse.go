package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
)

var periodPattern = regexp.MustCompile(`^(\d+)\s*([a-z]*)$`)

// parsePeriod reads "3d", "2 weeks", "1m" or "once". A bare number means days.
func parsePeriod(raw string) (days, months *int, err error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "once" || value == "never" {
		return nil, nil, nil
	}
	m := periodPattern.FindStringSubmatch(value)
	if m == nil {
		return nil, nil, fmt.Errorf("use a period like 3d, 2w or 1m")
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return nil, nil, fmt.Errorf("the period must be a positive number")
	}
	switch m[2] {
	case "", "d", "day", "days":
		return &n, nil, nil
	case "w", "week", "weeks":
		d := n * 7
		return &d, nil, nil
	case "m", "month", "months":
		return nil, &n, nil
	default:
		return nil, nil, fmt.Errorf("unknown unit %q, use d, w or m", m[2])
	}
}

// parseDate accepts YYYY-MM-DD, "today" and "yesterday".
func parseDate(raw string, today time.Time) (time.Time, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "today", strings.ToLower(btnToday):
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	parsed, err := time.Parse(recurrence.DateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}

// parsePlant splits "Name / Plot".
func parsePlant(raw string) (name, plot string) {
	name, plot, _ = strings.Cut(raw, "/")
	return strings.TrimSpace(name), strings.TrimSpace(plot)
}

// parseKind accepts a kind name with or without its icon.
func parseKind(raw string) (model.TaskKind, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", false
	}
	return model.ParseTaskKind(fields[len(fields)-1])
}

// parseCallback splits callback data of the form "entity:action:id".
func parseCallback(data string) (entity, action string, id uint, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("malformed callback %q", data)
	}
	id64, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil || id64 == 0 {
		return "", "", 0, fmt.Errorf("malformed callback id %q", parts[2])
	}
	return parts[0], parts[1], uint(id64), nil
}

func callbackData(entity, action string, id uint) string {
	return fmt.Sprintf("%s:%s:%d", entity, action, id)
}

func shortTitle(title string, maxLen int) string {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) <= maxLen {
		return title
	}
	runes := []rune(title)
	return string(runes[:maxLen-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func isCancelInput(text string) bool {
	value := strings.ToLower(strings.TrimSpace(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}

func isSkipInput(text string) bool {
	value := strings.ToLower(strings.TrimSpace(text))
	return value == strings.ToLower(btnSkip) || value == "skip" || value == "-"
}
