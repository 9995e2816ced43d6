package telegram

import (
	"context"
	"errors"

	"github.com/NasaVasa/mira/internal/domain"
	"github.com/NasaVasa/mira/internal/usecase"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type MessageRouter interface {
	Route(ctx context.Context, sender usecase.Sender, text string) string
}

type UserStarter interface {
	StartOrGetUser(ctx context.Context, telegramUserID int64, firstName string) (*domain.User, error)
}

type AlertLister interface {
	ListAlerts(ctx context.Context, telegramUserID int64) (*domain.UserAlerts, error)
}

type Handlers struct {
	users  UserStarter
	alerts AlertLister
	router MessageRouter
	logger *zap.Logger
}

func NewHandlers(users UserStarter, alerts AlertLister, router MessageRouter, logger *zap.Logger) *Handlers {
	return &Handlers{users: users, alerts: alerts, router: router, logger: logger}
}

func (h *Handlers) HandleUpdate(ctx context.Context, api chatAPI, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	if update.Message.From == nil {
		return
	}
	if update.Message.IsCommand() {
		h.handleCommand(ctx, api, update)
		return
	}
	h.handleText(ctx, api, update)
}

func (h *Handlers) handleCommand(ctx context.Context, api chatAPI, update tgbotapi.Update) {
	command := update.Message.Command()
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	firstName := update.Message.From.FirstName

	h.logger.Info(
		"telegram command received",
		zap.Int64("chat_id", chatID),
		zap.Int64("telegram_user_id", userID),
		zap.String("username", update.Message.From.UserName),
		zap.String("command", command),
	)

	switch command {
	case "start":
		_, err := h.users.StartOrGetUser(ctx, userID, firstName)
		if err != nil {
			h.logger.Warn("start command failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(api, chatID, "Failed to register. Please try again.")
			return
		}
		h.logger.Info("start command complete", zap.Int64("telegram_user_id", userID))
		h.reply(api, chatID, usecase.WelcomeMessage(firstName))
	case "help":
		h.reply(api, chatID, HelpText)
	case "alerts":
		alerts, err := h.alerts.ListAlerts(ctx, userID)
		if err != nil {
			if errors.Is(err, usecase.ErrUserNotFound) {
				h.reply(api, chatID, formatUserAlerts(nil))
				return
			}
			h.logger.Warn("alerts list failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(api, chatID, "Something went wrong. Please try again.")
			return
		}
		h.reply(api, chatID, formatUserAlerts(alerts))
	default:
		h.logger.Warn("unknown command", zap.Int64("telegram_user_id", userID), zap.String("command", command))
		h.reply(api, chatID, "Unknown command.\n\n"+HelpText)
	}
}

func (h *Handlers) handleText(ctx context.Context, api chatAPI, update tgbotapi.Update) {
	text := update.Message.Text
	if text == "" {
		return
	}
	chatID := update.Message.Chat.ID

	if _, err := api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		h.logger.Debug("failed to send typing action", zap.Error(err))
	}

	sender := usecase.Sender{TelegramUserID: update.Message.From.ID, FirstName: update.Message.From.FirstName}
	h.reply(api, chatID, h.router.Route(ctx, sender, text))
}

func (h *Handlers) reply(api chatAPI, chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if _, err := api.Send(msg); err != nil {
			h.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}
}
