package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidDirection = errors.New("invalid direction")

// Direction is the side of the threshold a price alert waits for.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

func ParseDirection(input string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(input))) {
	case DirectionAbove:
		return DirectionAbove, nil
	case DirectionBelow:
		return DirectionBelow, nil
	default:
		return "", ErrInvalidDirection
	}
}

// Triggered reports whether price has crossed threshold in direction d.
// Equality never triggers.
func (d Direction) Triggered(price, threshold decimal.Decimal) bool {
	switch d {
	case DirectionBelow:
		return price.LessThan(threshold)
	case DirectionAbove:
		return price.GreaterThan(threshold)
	default:
		return false
	}
}

// PriceAlert is a one-way latch: once Active is false it is never set back.
type PriceAlert struct {
	ID                uint
	UserID            uint
	CollectionName    string
	Chain             string
	CollectionAddress string
	Threshold         decimal.Decimal
	Direction         Direction
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type NewListingAlert struct {
	ID                uint
	UserID            uint
	CollectionName    string
	Chain             string
	CollectionAddress string
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type TrackedWallet struct {
	ID            uint
	UserID        uint
	WalletAddress string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ActivePriceAlert is an active price alert joined with the chat identity of its owner.
type ActivePriceAlert struct {
	PriceAlert
	TelegramUserID int64
}

// UserAlerts groups every standing watch owned by one user.
type UserAlerts struct {
	PriceAlerts      []PriceAlert
	NewListingAlerts []NewListingAlert
	TrackedWallets   []TrackedWallet
}

func (a UserAlerts) Empty() bool {
	return len(a.PriceAlerts) == 0 && len(a.NewListingAlerts) == 0 && len(a.TrackedWallets) == 0
}
