package db

import (
	"time"

	"gorm.io/gorm"
)

type userModel struct {
	ID             uint   `gorm:"primaryKey"`
	TelegramUserID int64  `gorm:"uniqueIndex;not null"`
	FirstName      string `gorm:""`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (userModel) TableName() string { return "users" }

type priceAlertModel struct {
	ID                uint   `gorm:"primaryKey"`
	UserID            uint   `gorm:"index:idx_price_alerts_user_active,priority:1;not null"`
	CollectionName    string `gorm:"not null"`
	Chain             string `gorm:"not null"`
	CollectionAddress string `gorm:"not null"`
	Threshold         string `gorm:"not null"`
	Direction         string `gorm:"not null"`
	Active            bool   `gorm:"index:idx_price_alerts_user_active,priority:2;index:idx_price_alerts_active;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (priceAlertModel) TableName() string { return "price_alerts" }

type newListingAlertModel struct {
	ID                uint   `gorm:"primaryKey"`
	UserID            uint   `gorm:"index:idx_new_listing_alerts_user_active,priority:1;not null"`
	CollectionName    string `gorm:"not null"`
	Chain             string `gorm:"not null"`
	CollectionAddress string `gorm:"not null"`
	Active            bool   `gorm:"index:idx_new_listing_alerts_user_active,priority:2;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (newListingAlertModel) TableName() string { return "new_listing_alerts" }

type trackedWalletModel struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        uint   `gorm:"index:idx_tracked_wallets_user_active,priority:1;not null"`
	WalletAddress string `gorm:"not null"`
	Active        bool   `gorm:"index:idx_tracked_wallets_user_active,priority:2;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (trackedWalletModel) TableName() string { return "tracked_wallets" }

// activePriceAlertRow is the shape of the alerts-with-owner join.
type activePriceAlertRow struct {
	ID                uint
	UserID            uint
	CollectionName    string
	Chain             string
	CollectionAddress string
	Threshold         string
	Direction         string
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	TelegramUserID    int64
}
