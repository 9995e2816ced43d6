package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotDeactivated means the notification was delivered but the alert
	// could not be marked inactive, so it may be delivered again.
	ErrNotDeactivated = errors.New("alert notified but not deactivated")
)

type UserRepository interface {
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*User, error)
	GetByID(ctx context.Context, userID uint) (*User, error)
	Create(ctx context.Context, user *User) error
}

// FireFunc delivers the notification for a triggered alert. The alert is
// deactivated only when it returns nil.
type FireFunc func(ctx context.Context, alert ActivePriceAlert) error

type AlertRepository interface {
	CreatePriceAlert(ctx context.Context, alert *PriceAlert) error
	CreateNewListingAlert(ctx context.Context, alert *NewListingAlert) error
	CreateTrackedWallet(ctx context.Context, wallet *TrackedWallet) error
	ListByUser(ctx context.Context, userID uint) (*UserAlerts, error)
	ListActivePriceAlerts(ctx context.Context) ([]ActivePriceAlert, error)
	// FirePriceAlert calls fire for the alert if it is still active and
	// deactivates it in the same transaction when fire succeeds. A failure
	// after fire succeeded is reported as ErrNotDeactivated.
	FirePriceAlert(ctx context.Context, alertID uint, fire FireFunc) (bool, error)
}
