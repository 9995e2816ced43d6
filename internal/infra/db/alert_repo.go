package db

import (
	"context"
	"fmt"

	"github.com/NasaVasa/mira/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) CreatePriceAlert(ctx context.Context, alert *domain.PriceAlert) error {
	model := mapPriceAlertToModel(*alert)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	alert.ID = model.ID
	alert.CreatedAt = model.CreatedAt
	alert.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *AlertRepository) CreateNewListingAlert(ctx context.Context, alert *domain.NewListingAlert) error {
	model := newListingAlertModel{
		UserID:            alert.UserID,
		CollectionName:    alert.CollectionName,
		Chain:             alert.Chain,
		CollectionAddress: alert.CollectionAddress,
		Active:            alert.Active,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	alert.ID = model.ID
	alert.CreatedAt = model.CreatedAt
	alert.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *AlertRepository) CreateTrackedWallet(ctx context.Context, wallet *domain.TrackedWallet) error {
	model := trackedWalletModel{
		UserID:        wallet.UserID,
		WalletAddress: wallet.WalletAddress,
		Active:        wallet.Active,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	wallet.ID = model.ID
	wallet.CreatedAt = model.CreatedAt
	wallet.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *AlertRepository) ListByUser(ctx context.Context, userID uint) (*domain.UserAlerts, error) {
	db := r.db.WithContext(ctx)

	var prices []priceAlertModel
	if err := db.Where("user_id = ?", userID).Order("id").Find(&prices).Error; err != nil {
		return nil, err
	}
	var listings []newListingAlertModel
	if err := db.Where("user_id = ?", userID).Order("id").Find(&listings).Error; err != nil {
		return nil, err
	}
	var wallets []trackedWalletModel
	if err := db.Where("user_id = ?", userID).Order("id").Find(&wallets).Error; err != nil {
		return nil, err
	}

	result := &domain.UserAlerts{
		PriceAlerts:      make([]domain.PriceAlert, 0, len(prices)),
		NewListingAlerts: make([]domain.NewListingAlert, 0, len(listings)),
		TrackedWallets:   make([]domain.TrackedWallet, 0, len(wallets)),
	}
	for _, model := range prices {
		alert, err := mapPriceAlertToDomain(model)
		if err != nil {
			return nil, err
		}
		result.PriceAlerts = append(result.PriceAlerts, alert)
	}
	for _, model := range listings {
		result.NewListingAlerts = append(result.NewListingAlerts, domain.NewListingAlert{
			ID:                model.ID,
			UserID:            model.UserID,
			CollectionName:    model.CollectionName,
			Chain:             model.Chain,
			CollectionAddress: model.CollectionAddress,
			Active:            model.Active,
			CreatedAt:         model.CreatedAt,
			UpdatedAt:         model.UpdatedAt,
		})
	}
	for _, model := range wallets {
		result.TrackedWallets = append(result.TrackedWallets, domain.TrackedWallet{
			ID:            model.ID,
			UserID:        model.UserID,
			WalletAddress: model.WalletAddress,
			Active:        model.Active,
			CreatedAt:     model.CreatedAt,
			UpdatedAt:     model.UpdatedAt,
		})
	}
	return result, nil
}

func (r *AlertRepository) ListActivePriceAlerts(ctx context.Context) ([]domain.ActivePriceAlert, error) {
	var rows []activePriceAlertRow
	if err := r.db.WithContext(ctx).
		Model(&priceAlertModel{}).
		Select("price_alerts.*, users.telegram_user_id").
		Joins("JOIN users ON users.id = price_alerts.user_id AND users.deleted_at IS NULL").
		Where("price_alerts.active = ?", true).
		Order("price_alerts.id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	alerts := make([]domain.ActivePriceAlert, 0, len(rows))
	for _, row := range rows {
		alert, err := mapPriceAlertToDomain(priceAlertModel{
			ID:                row.ID,
			UserID:            row.UserID,
			CollectionName:    row.CollectionName,
			Chain:             row.Chain,
			CollectionAddress: row.CollectionAddress,
			Threshold:         row.Threshold,
			Direction:         row.Direction,
			Active:            row.Active,
			CreatedAt:         row.CreatedAt,
			UpdatedAt:         row.UpdatedAt,
		})
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, domain.ActivePriceAlert{PriceAlert: alert, TelegramUserID: row.TelegramUserID})
	}
	return alerts, nil
}

func (r *AlertRepository) FirePriceAlert(ctx context.Context, alertID uint, fire domain.FireFunc) (bool, error) {
	fired, notified := false, false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		// sqlite connections begin IMMEDIATE (see sqliteDSN) and hold the file write lock instead.
		if tx.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var model priceAlertModel
		result := query.Where("id = ? AND active = ?", alertID, true).Limit(1).Find(&model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var owner userModel
		if err := tx.First(&owner, model.UserID).Error; err != nil {
			return fmt.Errorf("load alert owner: %w", err)
		}

		alert, err := mapPriceAlertToDomain(model)
		if err != nil {
			return err
		}
		if err := fire(ctx, domain.ActivePriceAlert{PriceAlert: alert, TelegramUserID: owner.TelegramUserID}); err != nil {
			return err
		}
		notified = true

		update := tx.Model(&priceAlertModel{}).Where("id = ? AND active = ?", alertID, true).Update("active", false)
		if update.Error != nil {
			return update.Error
		}
		fired = update.RowsAffected == 1
		return nil
	})
	if err != nil {
		if notified {
			return false, fmt.Errorf("price alert %d: %w: %w", alertID, domain.ErrNotDeactivated, err)
		}
		return false, err
	}
	return fired, nil
}

func mapPriceAlertToDomain(model priceAlertModel) (domain.PriceAlert, error) {
	threshold, err := decimal.NewFromString(model.Threshold)
	if err != nil {
		return domain.PriceAlert{}, fmt.Errorf("price alert %d: invalid threshold %q: %w", model.ID, model.Threshold, err)
	}
	direction, err := domain.ParseDirection(model.Direction)
	if err != nil {
		return domain.PriceAlert{}, fmt.Errorf("price alert %d: %w", model.ID, err)
	}
	return domain.PriceAlert{
		ID:                model.ID,
		UserID:            model.UserID,
		CollectionName:    model.CollectionName,
		Chain:             model.Chain,
		CollectionAddress: model.CollectionAddress,
		Threshold:         threshold,
		Direction:         direction,
		Active:            model.Active,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}, nil
}

func mapPriceAlertToModel(alert domain.PriceAlert) priceAlertModel {
	return priceAlertModel{
		ID:                alert.ID,
		UserID:            alert.UserID,
		CollectionName:    alert.CollectionName,
		Chain:             alert.Chain,
		CollectionAddress: alert.CollectionAddress,
		Threshold:         alert.Threshold.String(),
		Direction:         string(alert.Direction),
		Active:            alert.Active,
		CreatedAt:         alert.CreatedAt,
		UpdatedAt:         alert.UpdatedAt,
	}
}
