package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"garden-care/internal/recurrence"
	"garden-care/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stagePlant
	stageKind
	stageAnchor
	stagePeriod
	stageNote
)

type conversationState struct {
	stage conversationStage
	input service.RuleInput
}

func (b *Bot) startNewRuleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stagePlant})
	return b.sendWithReplyMarkup(ctx, msg.Chat.ID,
		"🆕 New care rule.\n<b>Step 1:</b> which plant? Add the bed after a slash, e.g. <code>Tomato / Bed A</code>.", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stagePlant:
		name, plot := parsePlant(text)
		if name == "" {
			return b.sendWithReplyMarkup(ctx, msg.Chat.ID, "Please send a plant name.", cancelKeyboard())
		}
		state.input.PlantName, state.input.Plot = name, plot
		state.stage = stageKind
		return b.sendWithReplyMarkup(ctx, msg.Chat.ID, "<b>Step 2:</b> what needs doing?", kindKeyboard())
	case stageKind:
		kind, ok := parseKind(text)
		if !ok {
			return b.sendWithReplyMarkup(ctx, msg.Chat.ID, "Pick one of the buttons.", kindKeyboard())
		}
		state.input.Kind = string(kind)
		state.stage = stageAnchor
		return b.sendWithReplyMarkup(ctx, msg.Chat.ID,
			"<b>Step 3:</b> when was it last done? Send <code>2024-05-01</code> or «today».", todayKeyboard())
	case stageAnchor:
		anchor, err := parseDate(text, b.today())
		if err != nil {
			return b.sendWithReplyMarkup(ctx, msg.Chat.ID, "I could not read that date. Use <code>2024-05-01</code>.", todayKeyboard())
		}
		state.input.AnchorDate = anchor
		state.stage = stagePeriod
		return b.sendWithReplyMarkup(ctx, msg.Chat.ID,
			"<b>Step 4:</b> how often? e.g. <code>3d</code>, <code>2w</code>, <code>1m</code> or «once».", periodKeyboard())
	case stagePeriod:
		days, months, err := parsePeriod(text)
		if err != nil {
			return b.sendWithReplyMarkup(ctx, msg.Chat.ID, escape(err.Error()), periodKeyboard())
		}
		state.input.EveryDays, state.input.EveryMonths = days, months
		state.stage = stageNote
		return b.sendWithReplyMarkup(ctx, msg.Chat.ID, "<b>Step 5:</b> a short note for the task (or skip).", skipKeyboard())
	case stageNote:
		if !isSkipInput(text) {
			state.input.Note = text
		}
		err := b.finishRuleCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(ctx, msg.Chat.ID, "Let's start over with /newrule.")
	}
}

func (b *Bot) finishRuleCreation(ctx context.Context, from *tgbotapi.User, input service.RuleInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	rule, err := b.deps.Rules.CreateRule(ctx, user.ID, input)
	if err != nil {
		return b.sendText(ctx, chatID, userError(err))
	}
	b.log.Info().Uint("rule_id", rule.ID).Uint("user_id", user.ID).Msg("rule created")

	text := fmt.Sprintf("✅ <b>Rule saved</b>\n%s", service.FormatRule(*rule))
	if due, ok, err := b.deps.Rules.NextDue(ctx, *rule); err == nil && ok {
		text += fmt.Sprintf("\nFirst task due %s.", due.Format(recurrence.DateLayout))
	}
	return b.sendText(ctx, chatID, text)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	return b.getConversation(userID) != nil
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
