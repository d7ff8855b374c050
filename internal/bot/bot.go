package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ad-rewards-go/internal/commands"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// CommandHandler turns one command into replies
type CommandHandler interface {
	Handle(ctx context.Context, req commands.Request) []commands.Reply
}

// Sender delivers outbound messages. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Dispatcher maps Telegram updates onto the command protocol
type Dispatcher struct {
	sender  Sender
	handler CommandHandler
}

func NewDispatcher(sender Sender, handler CommandHandler) *Dispatcher {
	return &Dispatcher{sender: sender, handler: handler}
}

// HandleUpdate processes one update. Non-command messages are ignored.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	req := commands.Request{
		CallerId: msg.From.ID,
		Command:  msg.Command(),
		Args:     strings.Fields(msg.CommandArguments()),
	}

	for _, reply := range d.handler.Handle(ctx, req) {
		if _, err := d.sender.Send(renderReply(msg.Chat.ID, reply)); err != nil {
			zap.L().Error("Failed to send reply",
				zap.String("command", req.Command),
				zap.Int64("chat_id", msg.Chat.ID),
				zap.Error(err))
			return
		}
	}
}

func renderReply(chatId int64, reply commands.Reply) tgbotapi.MessageConfig {
	out := tgbotapi.NewMessage(chatId, reply.Text)
	if reply.LinkURL != "" {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL(reply.LinkLabel, reply.LinkURL),
			),
		)
	}
	return out
}

// Bot long-polls Telegram and dispatches each update on its own goroutine
type Bot struct {
	api         *tgbotapi.BotAPI
	dispatcher  *Dispatcher
	pollTimeout int
}

func New(token string, handler CommandHandler, pollTimeout int) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token cannot be empty")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot initialization failed: %w", err)
	}
	api.Debug = false

	zap.L().Info("Bot authorized", zap.String("username", api.Self.UserName))
	return &Bot{
		api:         api,
		dispatcher:  NewDispatcher(api, handler),
		pollTimeout: pollTimeout,
	}, nil
}

// Run polls until ctx is cancelled and waits for in-flight updates before returning.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	u.AllowedUpdates = []string{"message"}

	updates := b.api.GetUpdatesChan(u)
	zap.L().Info("Bot is polling for updates", zap.Int("timeout", b.pollTimeout))

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			zap.L().Info("Bot stopped receiving updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func(update tgbotapi.Update) {
				defer wg.Done()
				b.dispatcher.HandleUpdate(ctx, update)
			}(update)
		}
	}
}
