package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"garden-care/internal/model"
	"garden-care/internal/service"
)

// CycleFinished tells every user with notifications on about the tasks a
// cycle generated for them.
func (b *Bot) CycleFinished(ctx context.Context, run service.CycleRun) {
	ids := make([]uint, 0, len(run.Report.Generated))
	for _, task := range run.Report.Generated {
		ids = append(ids, task.ID)
	}
	tasks, err := b.deps.Tasks.ListByIDs(ctx, ids)
	if err != nil {
		b.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("load generated tasks")
		return
	}

	byUser := make(map[uint][]model.TaskInstance)
	for _, task := range tasks {
		byUser[task.UserID] = append(byUser[task.UserID], task)
	}
	userIDs := make([]uint, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	today := b.today()
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		user, err := b.deps.Users.FindByID(ctx, userID)
		if err != nil {
			b.log.Warn().Err(err).Uint("user_id", userID).Msg("notify: load user")
			continue
		}
		if !user.Notify {
			continue
		}
		userTasks := byUser[userID]
		msg := tgbotapi.NewMessage(user.TelegramID, formatGenerated(userTasks, today))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = taskKeyboard(userTasks)
		if err := b.send(ctx, msg); err != nil {
			b.log.Warn().Err(err).Int64("chat_id", user.TelegramID).Msg("notify: send")
		}
	}
}

// SendDailyDigests sends the digest to every user with notifications on and
// something to do.
func (b *Bot) SendDailyDigests(ctx context.Context) error {
	users, err := b.deps.Users.ListAll(ctx)
	if err != nil {
		return err
	}
	today := b.today()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !user.Notify {
			continue
		}
		digest, err := b.deps.Digest.Build(ctx, user.ID, today)
		if err != nil {
			b.log.Warn().Err(err).Uint("user_id", user.ID).Msg("build digest")
			continue
		}
		if digest.Empty() {
			continue
		}
		if err := b.sendText(ctx, user.TelegramID, service.RenderDigest(digest)); err != nil {
			b.log.Warn().Err(err).Int64("chat_id", user.TelegramID).Msg("send digest")
		}
	}
	return nil
}

func formatGenerated(tasks []model.TaskInstance, today time.Time) string {
	var builder strings.Builder
	if len(tasks) == 1 {
		builder.WriteString("🌱 <b>A garden task is due</b>\n")
	} else {
		builder.WriteString(fmt.Sprintf("🌱 <b>%d garden tasks are due</b>\n", len(tasks)))
	}
	for _, task := range tasks {
		builder.WriteString(fmt.Sprintf("<b>#%d</b> %s\n", task.ID, service.FormatTask(task, today)))
	}
	return strings.TrimSpace(builder.String())
}
