package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"garden-care/internal/model"
	"garden-care/internal/service"
)

const (
	btnSkip          = "⏭️ Skip"
	btnToday         = "📅 Today"
	btnCancelDialog  = "⏪ Cancel"
	menuLabelNewRule = "➕ New rule"
	menuLabelTasks   = "📋 Tasks"
	menuLabelRules   = "🌿 Rules"
	menuLabelHelp    = "ℹ️ Help"
)

const (
	entityTask = "task"
	entityRule = "rule"

	actionDone          = "done"
	actionSnooze        = "snooze"
	actionReject        = "reject"
	actionPause         = "pause"
	actionResume        = "resume"
	actionDelete        = "delete"
	actionConfirmDelete = "confirm"
	actionKeep          = "keep"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewRule),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelRules),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func todayKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnToday),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func kindKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, kind := range model.TaskKinds {
		row = append(row, tgbotapi.NewKeyboardButton(fmt.Sprintf("%s %s", service.KindIcon(kind), kind)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func periodKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("3d"),
			tgbotapi.NewKeyboardButton("1w"),
			tgbotapi.NewKeyboardButton("2w"),
			tgbotapi.NewKeyboardButton("1m"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("once"),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func taskKeyboard(tasks []model.TaskInstance) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		label := fmt.Sprintf("✅ #%d %s", task.ID, shortTitle(service.PlantLabel(task.Plant), 18))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackData(entityTask, actionDone, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("💤", callbackData(entityTask, actionSnooze, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✖️", callbackData(entityTask, actionReject, task.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ruleKeyboard(rules []model.CareRule) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rules))
	for _, rule := range rules {
		toggle := tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("⏸ #%d", rule.ID), callbackData(entityRule, actionPause, rule.ID))
		if !rule.Active {
			toggle = tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("▶️ #%d", rule.ID), callbackData(entityRule, actionResume, rule.ID))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			toggle,
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 #%d", rule.ID), callbackData(entityRule, actionDelete, rule.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmDeleteKeyboard(ruleID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Delete rule and its tasks", callbackData(entityRule, actionConfirmDelete, ruleID)),
		tgbotapi.NewInlineKeyboardButtonData("↩️ Keep", callbackData(entityRule, actionKeep, ruleID)),
	))
}
