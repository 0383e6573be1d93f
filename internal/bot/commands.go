package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
	"garden-care/internal/service"
)

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /newrule — add a recurring care rule step by step\n" +
	"• /rules — list rules, pause, resume or delete them\n" +
	"• /tasks — open tasks with done, snooze and reject buttons\n" +
	"• /plants — your plants\n" +
	"• /report — today's digest\n" +
	"• /run [YYYY-MM-DD] — generate due tasks now\n" +
	"• /notify on|off — task notifications\n" +
	"• /cancel — cancel the current input"

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(ctx, msg.Chat.ID, helpText)
	case "newrule":
		return b.startNewRuleConversation(ctx, msg)
	case "rules":
		return b.handleListRules(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "plants":
		return b.handlePlants(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "run":
		return b.handleRun(ctx, msg)
	case "notify":
		return b.handleNotify(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(ctx, msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(ctx, msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewRule:
		return true, b.startNewRuleConversation(ctx, msg)
	case menuLabelTasks:
		return true, b.handleListTasks(ctx, msg)
	case menuLabelRules:
		return true, b.handleListRules(ctx, msg)
	case menuLabelHelp:
		return true, b.sendText(ctx, msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "gardener"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep track of watering, feeding and pruning so you don't have to.</b>\n\n%s",
		escape(name), helpText)
	return b.sendText(ctx, msg.Chat.ID, text)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.deps.Work.ListPending(ctx, user.ID)
	if err != nil {
		return b.sendText(ctx, chatID, userError(err))
	}
	if len(tasks) == 0 {
		return b.sendText(ctx, chatID, "✨ No open tasks.")
	}

	today := b.today()
	var builder strings.Builder
	builder.WriteString("📋 <b>Open tasks</b>\n\n")
	for _, task := range tasks {
		builder.WriteString(fmt.Sprintf("<b>#%d</b> %s\n", task.ID, service.FormatTask(task, today)))
	}
	return b.sendWithReplyMarkup(ctx, chatID, strings.TrimSpace(builder.String()), taskKeyboard(tasks))
}

func (b *Bot) handleListRules(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendRuleList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendRuleList(ctx context.Context, chatID int64, user *model.User) error {
	rules, err := b.deps.Rules.ListRules(ctx, user.ID)
	if err != nil {
		return b.sendText(ctx, chatID, userError(err))
	}
	if len(rules) == 0 {
		return b.sendText(ctx, chatID, "No care rules yet. Add one with /newrule.")
	}

	var builder strings.Builder
	builder.WriteString("🌿 <b>Care rules</b>\n\n")
	for _, rule := range rules {
		builder.WriteString(fmt.Sprintf("<b>#%d</b> %s\n", rule.ID, service.FormatRule(rule)))
		if !rule.Active {
			continue
		}
		if due, ok, err := b.deps.Rules.NextDue(ctx, rule); err == nil && ok {
			builder.WriteString(fmt.Sprintf("   next: %s\n", due.Format(recurrence.DateLayout)))
		}
	}
	return b.sendWithReplyMarkup(ctx, chatID, strings.TrimSpace(builder.String()), ruleKeyboard(rules))
}

func (b *Bot) handlePlants(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	plants, err := b.deps.Plants.ListByUser(ctx, user.ID)
	if err != nil {
		return b.sendText(ctx, msg.Chat.ID, userError(err))
	}
	if len(plants) == 0 {
		return b.sendText(ctx, msg.Chat.ID, "No plants yet. They are added with your first rule.")
	}
	var builder strings.Builder
	builder.WriteString("🪴 <b>Plants</b>\n")
	for _, plant := range plants {
		builder.WriteString("• " + escape(service.PlantLabel(&plant)) + "\n")
	}
	return b.sendText(ctx, msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.deps.Digest.DailySummary(ctx, *user, b.today())
	if err != nil {
		return b.sendText(ctx, msg.Chat.ID, userError(err))
	}
	return b.sendText(ctx, msg.Chat.ID, text)
}

func (b *Bot) handleRun(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	asOf := b.today()
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		parsed, err := parseDate(arg, asOf)
		if err != nil {
			return b.sendText(ctx, msg.Chat.ID, "Use /run or /run 2024-05-01.")
		}
		asOf = parsed
	}

	run, err := b.deps.Cycles.Run(ctx, asOf)
	if errors.Is(err, recurrence.ErrCycleInProgress) {
		return b.sendText(ctx, msg.Chat.ID, "⏳ A cycle is already running, try again in a moment.")
	}
	return b.sendText(ctx, msg.Chat.ID, formatRun(run))
}

func (b *Bot) handleNotify(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	var notify bool
	switch strings.ToLower(strings.TrimSpace(msg.CommandArguments())) {
	case "on":
		notify = true
	case "off":
		notify = false
	default:
		state := "off"
		if user.Notify {
			state = "on"
		}
		return b.sendText(ctx, msg.Chat.ID, fmt.Sprintf("Notifications are %s. Use /notify on or /notify off.", state))
	}
	if err := b.deps.Users.SetNotify(ctx, user.ID, notify); err != nil {
		return b.sendText(ctx, msg.Chat.ID, userError(err))
	}
	if notify {
		return b.sendText(ctx, msg.Chat.ID, "🔔 I will message you when tasks come due.")
	}
	return b.sendText(ctx, msg.Chat.ID, "🔕 Notifications off. /tasks still shows everything.")
}

func formatRun(run service.CycleRun) string {
	r := run.Report
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🔁 <b>Cycle %s</b> as of %s\n", shortID(run.ID.String()), r.AsOf.Format(recurrence.DateLayout)))
	builder.WriteString(fmt.Sprintf("evaluated %d · created %d · skipped %d", r.Evaluated, r.Created, r.Skipped))
	if len(r.Invalid) > 0 {
		builder.WriteString(fmt.Sprintf("\n⚠️ invalid rules: %v", r.Invalid))
	}
	if r.Partial() {
		builder.WriteString(fmt.Sprintf("\n❗ failed rules: %v", r.FailedRuleIDs()))
	}
	if run.Err != nil {
		builder.WriteString("\n❗ " + escape(run.Err.Error()))
	}
	if r.Duration() > 0 {
		builder.WriteString(fmt.Sprintf("\n⏱ %s", r.Duration().Round(time.Millisecond)))
	}
	return builder.String()
}
