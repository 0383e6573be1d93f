package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"garden-care/internal/model"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	entity, action, id, err := parseCallback(cb.Data)
	if err != nil {
		b.answerCallback(ctx, cb.ID, "")
		return nil
	}
	b.log.Info().Int64("from", cb.From.ID).Str("entity", entity).Str("action", action).Uint("id", id).Msg("callback")

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		b.answerCallback(ctx, cb.ID, "")
		return err
	}
	chatID := cb.Message.Chat.ID

	switch entity {
	case entityTask:
		return b.handleTaskCallback(ctx, cb, user, action, id)
	case entityRule:
		return b.handleRuleCallback(ctx, cb, user, action, id)
	default:
		b.answerCallback(ctx, cb.ID, "")
		return b.sendText(ctx, chatID, "That button is no longer supported.")
	}
}

func (b *Bot) handleTaskCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, user *model.User, action string, taskID uint) error {
	var (
		task *model.TaskInstance
		err  error
		ack  string
	)
	switch action {
	case actionDone:
		task, err = b.deps.Work.Complete(ctx, user.ID, taskID)
		ack = "Done ✅"
	case actionSnooze:
		task, err = b.deps.Work.Snooze(ctx, user.ID, taskID)
		ack = "Snoozed 💤"
	case actionReject:
		task, err = b.deps.Work.Reject(ctx, user.ID, taskID)
		ack = "Rejected ✖️"
	default:
		b.answerCallback(ctx, cb.ID, "")
		return nil
	}
	chatID := cb.Message.Chat.ID
	if err != nil {
		b.answerCallback(ctx, cb.ID, "")
		return b.sendText(ctx, chatID, userError(err))
	}
	b.answerCallback(ctx, cb.ID, ack)
	b.log.Info().Uint("task_id", task.ID).Str("status", string(task.Status)).Msg("task resolved")
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleRuleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, user *model.User, action string, ruleID uint) error {
	chatID := cb.Message.Chat.ID
	var err error
	switch action {
	case actionPause:
		err = b.deps.Rules.PauseRule(ctx, user.ID, ruleID)
	case actionResume:
		err = b.deps.Rules.ResumeRule(ctx, user.ID, ruleID)
	case actionDelete:
		rule, err := b.deps.Rules.GetRule(ctx, user.ID, ruleID)
		b.answerCallback(ctx, cb.ID, "")
		if err != nil {
			return b.sendText(ctx, chatID, userError(err))
		}
		text := fmt.Sprintf("Delete rule #%d for %s? Tasks it generated are deleted too.", rule.ID, escape(rulePlantName(rule)))
		return b.sendWithReplyMarkup(ctx, chatID, text, confirmDeleteKeyboard(rule.ID))
	case actionConfirmDelete:
		err = b.deps.Rules.DeleteRule(ctx, user.ID, ruleID)
	case actionKeep:
		b.answerCallback(ctx, cb.ID, "Kept")
		return nil
	default:
		b.answerCallback(ctx, cb.ID, "")
		return nil
	}
	if err != nil {
		b.answerCallback(ctx, cb.ID, "")
		return b.sendText(ctx, chatID, userError(err))
	}
	b.answerCallback(ctx, cb.ID, "Saved")
	return b.sendRuleList(ctx, chatID, user)
}

func rulePlantName(rule *model.CareRule) string {
	if rule.Plant == nil {
		return "a plant"
	}
	return rule.Plant.Name
}
