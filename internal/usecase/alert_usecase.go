package usecase

import (
	"context"
	"errors"

	"github.com/NasaVasa/mira/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrUserNotFound     = errors.New("user not found")
)

// Sender identifies the chat user a message came from.
type Sender struct {
	TelegramUserID int64
	FirstName      string
}

type AlertUsecase struct {
	users  *UserUsecase
	alerts domain.AlertRepository
}

func NewAlertUsecase(users *UserUsecase, alerts domain.AlertRepository) *AlertUsecase {
	return &AlertUsecase{users: users, alerts: alerts}
}

func (u *AlertUsecase) AddPriceAlert(ctx context.Context, sender Sender, collection domain.ResolvedCollection, threshold decimal.Decimal, direction domain.Direction) (*domain.PriceAlert, error) {
	if threshold.IsNegative() {
		return nil, ErrInvalidThreshold
	}
	if direction != domain.DirectionAbove && direction != domain.DirectionBelow {
		return nil, domain.ErrInvalidDirection
	}

	user, err := u.users.StartOrGetUser(ctx, sender.TelegramUserID, sender.FirstName)
	if err != nil {
		return nil, err
	}

	alert := &domain.PriceAlert{
		UserID:            user.ID,
		CollectionName:    collection.Name,
		Chain:             collection.Chain,
		CollectionAddress: collection.Address,
		Threshold:         threshold,
		Direction:         direction,
		Active:            true,
	}
	if err := u.alerts.CreatePriceAlert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (u *AlertUsecase) AddNewListingAlert(ctx context.Context, sender Sender, collection domain.ResolvedCollection) (*domain.NewListingAlert, error) {
	user, err := u.users.StartOrGetUser(ctx, sender.TelegramUserID, sender.FirstName)
	if err != nil {
		return nil, err
	}

	alert := &domain.NewListingAlert{
		UserID:            user.ID,
		CollectionName:    collection.Name,
		Chain:             collection.Chain,
		CollectionAddress: collection.Address,
		Active:            true,
	}
	if err := u.alerts.CreateNewListingAlert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (u *AlertUsecase) TrackWallet(ctx context.Context, sender Sender, walletAddress string) (*domain.TrackedWallet, error) {
	user, err := u.users.StartOrGetUser(ctx, sender.TelegramUserID, sender.FirstName)
	if err != nil {
		return nil, err
	}

	wallet := &domain.TrackedWallet{
		UserID:        user.ID,
		WalletAddress: walletAddress,
		Active:        true,
	}
	if err := u.alerts.CreateTrackedWallet(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (u *AlertUsecase) ListAlerts(ctx context.Context, telegramUserID int64) (*domain.UserAlerts, error) {
	user, err := u.users.users.GetByTelegramID(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u.alerts.ListByUser(ctx, user.ID)
}
