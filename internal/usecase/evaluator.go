package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/NasaVasa/mira/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrBatchInProgress = errors.New("alert batch already in progress")

type Notifier interface {
	Notify(telegramUserID int64, text string) error
}

type MetricsSource interface {
	GetCollectionMetrics(ctx context.Context, chain, address string) (*domain.CollectionMetrics, error)
}

// BatchLocker guards a whole evaluation batch. TryLock returns ok=false
// without error when another holder has it.
type BatchLocker interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// LocalBatchLock serializes batches inside a single process.
type LocalBatchLock struct {
	mu sync.Mutex
}

func (l *LocalBatchLock) TryLock(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}

type collectionKey struct {
	chain   string
	address string
}

type AlertEvaluator struct {
	alerts      domain.AlertRepository
	metrics     MetricsSource
	notifier    Notifier
	lock        BatchLocker
	parallelism int
	logger      *zap.Logger
}

func NewAlertEvaluator(alerts domain.AlertRepository, metrics MetricsSource, notifier Notifier, lock BatchLocker, parallelism int, logger *zap.Logger) *AlertEvaluator {
	if lock == nil {
		lock = &LocalBatchLock{}
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &AlertEvaluator{
		alerts:      alerts,
		metrics:     metrics,
		notifier:    notifier,
		lock:        lock,
		parallelism: parallelism,
		logger:      logger,
	}
}

// EvaluateBatch checks every active price alert once and returns how many
// notifications were delivered. Per-alert failures are logged and skipped;
// only failing to acquire the batch or to load the alerts is an error.
func (e *AlertEvaluator) EvaluateBatch(ctx context.Context) (int, error) {
	release, ok, err := e.lock.TryLock(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire batch lock: %w", err)
	}
	if !ok {
		return 0, ErrBatchInProgress
	}
	defer release()

	active, err := e.alerts.ListActivePriceAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("load active price alerts: %w", err)
	}
	if len(active) == 0 {
		return 0, nil
	}

	groups := make(map[collectionKey][]domain.ActivePriceAlert)
	order := make([]collectionKey, 0)
	for _, alert := range active {
		key := collectionKey{chain: alert.Chain, address: alert.CollectionAddress}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], alert)
	}

	var sent atomic.Int64
	var g errgroup.Group
	g.SetLimit(e.parallelism)
	for _, key := range order {
		alerts := groups[key]
		g.Go(func() error {
			sent.Add(int64(e.evaluateCollection(ctx, key, alerts)))
			return nil
		})
	}
	_ = g.Wait()

	total := int(sent.Load())
	e.logger.Info("alert batch evaluated",
		zap.Int("active_alerts", len(active)),
		zap.Int("collections", len(order)),
		zap.Int("notifications_sent", total),
	)
	return total, nil
}

func (e *AlertEvaluator) evaluateCollection(ctx context.Context, key collectionKey, alerts []domain.ActivePriceAlert) int {
	if ctx.Err() != nil {
		return 0
	}

	metrics, err := e.metrics.GetCollectionMetrics(ctx, key.chain, key.address)
	if err != nil {
		e.logger.Warn("skipping collection, metrics unavailable",
			zap.String("chain", key.chain),
			zap.String("address", key.address),
			zap.Error(err),
		)
		return 0
	}
	if metrics == nil || metrics.FloorPrice == nil {
		e.logger.Debug("skipping collection without floor price",
			zap.String("chain", key.chain),
			zap.String("address", key.address),
		)
		return 0
	}
	floor := *metrics.FloorPrice

	sent := 0
	for _, alert := range alerts {
		if !alert.Direction.Triggered(floor, alert.Threshold) {
			continue
		}

		fired, err := e.alerts.FirePriceAlert(ctx, alert.ID, func(ctx context.Context, current domain.ActivePriceAlert) error {
			return e.notifier.Notify(current.TelegramUserID, PriceAlertNotification(current.PriceAlert, floor))
		})
		if errors.Is(err, domain.ErrNotDeactivated) {
			sent++
			e.logger.Error("price alert delivered but still active, it may be sent again",
				zap.Uint("alert_id", alert.ID),
				zap.Int64("telegram_user_id", alert.TelegramUserID),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			e.logger.Warn("price alert not delivered, keeping it active",
				zap.Uint("alert_id", alert.ID),
				zap.Int64("telegram_user_id", alert.TelegramUserID),
				zap.Error(err),
			)
			continue
		}
		if fired {
			sent++
			e.logger.Info("price alert fired",
				zap.Uint("alert_id", alert.ID),
				zap.Int64("telegram_user_id", alert.TelegramUserID),
				zap.String("floor_price", floor.String()),
			)
		}
	}
	return sent
}
