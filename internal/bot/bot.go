package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"garden-care/internal/logging"
	"garden-care/internal/model"
	"garden-care/internal/recurrence"
	"garden-care/internal/repository"
	"garden-care/internal/service"
)

// sender is the part of the Telegram API used to talk to users.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps lists the repositories and services the bot works with.
type Deps struct {
	Users  *repository.UserRepository
	Plants *repository.PlantRepository
	Tasks  *repository.TaskRepository
	Rules  *service.RuleService
	Work   *service.TaskService
	Digest *service.DigestService
	Cycles *service.CycleService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api     *tgbotapi.BotAPI
	out     sender
	limiter *rate.Limiter
	deps    Deps
	loc     *time.Location
	log     zerolog.Logger

	mu            sync.Mutex
	conversations map[int64]*conversationState
}

func New(token string, ratePerSec float64, deps Deps, loc *time.Location, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	b := newBot(api, ratePerSec, deps, loc, log)
	b.api = api
	b.log.Info().Str("account", api.Self.UserName).Msg("bot authorized")
	return b, nil
}

func newBot(out sender, ratePerSec float64, deps Deps, loc *time.Location, log zerolog.Logger) *Bot {
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		out:           out,
		limiter:       rate.NewLimiter(rate.Limit(ratePerSec), 1),
		deps:          deps,
		loc:           loc,
		log:           logging.Component(log, "bot"),
		conversations: make(map[int64]*conversationState),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error().Err(err).Msg("handle callback")
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error().Err(err).Msg("handle message")
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(ctx, msg.Chat.ID, "⏪ Cancelled. What next?")
	}

	if msg.IsCommand() {
		b.log.Info().Int64("from", msg.From.ID).Str("command", msg.Command()).Msg("command")
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(ctx, msg.Chat.ID, "I did not get that. Send /newrule to add a care rule or /help for the command list.")
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.deps.Users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) today() time.Time {
	return recurrence.Day(time.Now().In(b.loc))
}

// userError turns a service error into a message for the user.
func userError(err error) string {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "Not found. It may have been deleted."
	case errors.Is(err, service.ErrInvalidTransition):
		return "That task is already closed."
	case errors.Is(err, service.ErrValidation):
		return "⚠️ " + escape(strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
	default:
		return "Something went wrong: " + escape(err.Error())
	}
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := b.out.Send(c)
	return err
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	return b.send(ctx, msg)
}

func (b *Bot) sendWithReplyMarkup(ctx context.Context, chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	return b.send(ctx, msg)
}

func (b *Bot) answerCallback(ctx context.Context, id, text string) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.out.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}
}

func escape(s string) string {
	return html.EscapeString(s)
}
