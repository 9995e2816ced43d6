package telegram

import (
	"context"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// chatAPI is the part of *tgbotapi.BotAPI used for outgoing messages.
type chatAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api           *tgbotapi.BotAPI
	handlers      *Handlers
	pollTimeout   int
	maxConcurrent int
}

func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

func NewBot(api *tgbotapi.BotAPI, handlers *Handlers, pollTimeout, maxConcurrent int) *Bot {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Bot{api: api, handlers: handlers, pollTimeout: pollTimeout, maxConcurrent: maxConcurrent}
}

// Start polls for updates until ctx is done. Updates are handled concurrently
// up to maxConcurrent; Start returns after in-flight handlers finish.
func (b *Bot) Start(ctx context.Context) error {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(config)

	var g errgroup.Group
	g.SetLimit(b.maxConcurrent)
	defer func() { _ = g.Wait() }()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			g.Go(func() error {
				b.handlers.HandleUpdate(ctx, b.api, update)
				return nil
			})
		}
	}
}

type Notifier struct {
	api    chatAPI
	logger *zap.Logger
}

func NewNotifier(api *tgbotapi.BotAPI, logger *zap.Logger) *Notifier {
	return &Notifier{api: api, logger: logger}
}

func (n *Notifier) Notify(telegramUserID int64, text string) error {
	n.logger.Info("telegram notify send", zap.Int64("telegram_user_id", telegramUserID), zap.String("text", text))
	msg := tgbotapi.NewMessage(telegramUserID, text)
	_, err := n.api.Send(msg)
	if err != nil {
		n.logger.Warn("failed to notify", zap.Int64("telegram_user_id", telegramUserID), zap.Error(err))
	}
	return err
}
