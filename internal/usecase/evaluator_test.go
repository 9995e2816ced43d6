package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/NasaVasa/mira/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var doodles = domain.ResolvedCollection{Name: "Doodles", Chain: "ethereum", Address: "0x8a90cab2b38dba80c64b7734e58ee1db38b8992e"}

type evaluatorFixture struct {
	users     *memoryUsers
	alerts    *memoryAlerts
	analytics *fakeAnalytics
	notifier  *recordingNotifier
	evaluator *AlertEvaluator
}

func newEvaluatorFixture(t *testing.T) *evaluatorFixture {
	t.Helper()
	users := newMemoryUsers()
	alerts := newMemoryAlerts(users)
	analytics := &fakeAnalytics{metrics: make(map[collectionRef]*domain.CollectionMetrics)}
	notifier := &recordingNotifier{}
	return &evaluatorFixture{
		users:     users,
		alerts:    alerts,
		analytics: analytics,
		notifier:  notifier,
		evaluator: NewAlertEvaluator(alerts, analytics, notifier, &LocalBatchLock{}, 4, zap.NewNop()),
	}
}

func (f *evaluatorFixture) addAlert(t *testing.T, telegramUserID int64, collection domain.ResolvedCollection, threshold string, direction domain.Direction) domain.PriceAlert {
	t.Helper()
	uc := NewAlertUsecase(NewUserUsecase(f.users), f.alerts)
	alert, err := uc.AddPriceAlert(context.Background(), Sender{TelegramUserID: telegramUserID, FirstName: "Ana"}, collection, decimal.RequireFromString(threshold), direction)
	require.NoError(t, err)
	return *alert
}

func (f *evaluatorFixture) setFloor(collection domain.ResolvedCollection, floor string) {
	value := decimal.RequireFromString(floor)
	f.analytics.metrics[collectionRef{chain: collection.Chain, address: collection.Address}] = &domain.CollectionMetrics{FloorPrice: &value}
}

func TestEvaluateBatch_FiresBelowThresholdOnce(t *testing.T) {
	f := newEvaluatorFixture(t)
	alert := f.addAlert(t, 42, doodles, "2.0", domain.DirectionBelow)
	f.setFloor(doodles, "1.9")

	sent, err := f.evaluator.EvaluateBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	messages := f.notifier.messages()
	require.Len(t, messages, 1)
	assert.Equal(t, int64(42), messages[0].telegramUserID)
	assert.Equal(t, "🔔 Price alert for Doodles: the floor price is now 1.9 ETH (your alert: below 2.0 ETH).", messages[0].text)
	assert.False(t, f.alerts.priceAlert(alert.ID).Active)

	sent, err = f.evaluator.EvaluateBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, f.notifier.messages(), 1)
}

func TestEvaluateBatch_StrictPredicate(t *testing.T) {
	tests := []struct {
		name      string
		threshold string
		direction domain.Direction
		floor     string
		fires     bool
	}{
		{name: "below, equal floor", threshold: "2", direction: domain.DirectionBelow, floor: "2.0", fires: false},
		{name: "below, lower floor", threshold: "2", direction: domain.DirectionBelow, floor: "1.99", fires: true},
		{name: "below, higher floor", threshold: "2", direction: domain.DirectionBelow, floor: "2.5", fires: false},
		{name: "above, equal floor", threshold: "2", direction: domain.DirectionAbove, floor: "2", fires: false},
		{name: "above, higher floor", threshold: "2", direction: domain.DirectionAbove, floor: "2.01", fires: true},
		{name: "above, lower floor", threshold: "2", direction: domain.DirectionAbove, floor: "1", fires: false},
		{name: "below zero threshold never fires on zero floor", threshold: "0", direction: domain.DirectionBelow, floor: "0", fires: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEvaluatorFixture(t)
			alert := f.addAlert(t, 7, doodles, tt.threshold, tt.direction)
			f.setFloor(doodles, tt.floor)

			sent, err := f.evaluator.EvaluateBatch(context.Background())
			require.NoError(t, err)
			if tt.fires {
				assert.Equal(t, 1, sent)
				assert.False(t, f.alerts.priceAlert(alert.ID).Active)
			} else {
				assert.Zero(t, sent)
				assert.True(t, f.alerts.priceAlert(alert.ID).Active)
			}
		})
	}
}

func TestEvaluateBatch_SendFailureKeepsAlertActive(t *testing.T) {
	f := newEvaluatorFixture(t)
	alert := f.addAlert(t, 42, doodles, "2", domain.DirectionBelow)
	f.setFloor(doodles, "1.5")
	f.notifier.err = errors.New("telegram down")

	sent, err := f.evaluator.EvaluateBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.True(t, f.alerts.priceAlert(alert.ID).Active)

	f.notifier.err = nil
	sent, err = f.evaluator.EvaluateBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.False(t, f.alerts.priceAlert(alert.ID).Active)
}

func TestEvaluateBatch_SkipsCollectionsWithoutMetrics(t *testing.T) {
	f := newEvaluatorFixture(t)
	pudgy := domain.ResolvedCollection{Name: "Pudgy Penguins", Chain: "ethereum", Address: "0xbd3531da5cf5857e7cfaa92426877b022e612cf8"}
	azuki := domain.ResolvedCollection{Name: "Azuki", Chain: "ethereum", Address: "0xed5af388653567af2f388e6224dc7c4b3241c544"}

	skipped := f.addAlert(t, 1, doodles, "2", domain.DirectionBelow)
	noFloor := f.addAlert(t, 2, azuki, "2", domain.DirectionBelow)
	fired := f.addAlert(t, 3, pudgy, "10", domain.DirectionAbove)
	f.analytics.metrics[collectionRef{chain: azuki.Chain, address: azuki.Address}] = &domain.CollectionMetrics{}
	f.setFloor(pudgy, "11")

	sent, err := f.evaluator.EvaluateBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.True(t, f.alerts.priceAlert(skipped.ID).Active)
	assert.True(t, f.alerts.priceAlert(noFloor.ID).Active)
	assert.False(t, f.alerts.priceAlert(fired.ID).Active)
}

func TestEvaluateBatch_FetchesMetricsOncePerCollection(t *testing.T) {
	f := newEvaluatorFixture(t)
	for i := int64(1); i <= 5; i++ {
		f.addAlert(t, i, doodles, "2", domain.DirectionBelow)
	}
	f.setFloor(doodles, "1")

	sent, err := f.evaluator.EvaluateBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, sent)
	assert.Equal(t, 1, f.analytics.metricsCalls[collectionRef{chain: doodles.Chain, address: doodles.Address}])
}

func TestEvaluateBatch_LoadFailure(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.alerts.listErr = errors.New("db down")

	_, err := f.evaluator.EvaluateBatch(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.notifier.messages())
}

func TestEvaluateBatch_RejectsOverlappingBatch(t *testing.T) {
	f := newEvaluatorFixture(t)
	lock := &LocalBatchLock{}
	evaluator := NewAlertEvaluator(f.alerts, f.analytics, f.notifier, lock, 1, zap.NewNop())

	release, ok, err := lock.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = evaluator.EvaluateBatch(context.Background())
	assert.ErrorIs(t, err, ErrBatchInProgress)

	release()
	_, err = evaluator.EvaluateBatch(context.Background())
	assert.NoError(t, err)
}

func TestEvaluateBatch_ConcurrentEvaluatorsNotifyOnce(t *testing.T) {
	f := newEvaluatorFixture(t)
	alert := f.addAlert(t, 42, doodles, "2", domain.DirectionBelow)
	f.setFloor(doodles, "1")

	// Separate locks model two processes that both passed their batch guard.
	evaluators := []*AlertEvaluator{
		NewAlertEvaluator(f.alerts, f.analytics, f.notifier, &LocalBatchLock{}, 2, zap.NewNop()),
		NewAlertEvaluator(f.alerts, f.analytics, f.notifier, &LocalBatchLock{}, 2, zap.NewNop()),
	}

	var wg sync.WaitGroup
	for _, evaluator := range evaluators {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := evaluator.EvaluateBatch(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.notifier.messages(), 1)
	assert.False(t, f.alerts.priceAlert(alert.ID).Active)
}

func TestEvaluateBatch_LogsAlertLeftActiveAfterDelivery(t *testing.T) {
	f := newEvaluatorFixture(t)
	alert := f.addAlert(t, 42, doodles, "2", domain.DirectionBelow)
	f.setFloor(doodles, "1")
	f.alerts.deactivateErr = errors.New("commit failed")

	core, logs := observer.New(zap.ErrorLevel)
	evaluator := NewAlertEvaluator(f.alerts, f.analytics, f.notifier, &LocalBatchLock{}, 1, zap.New(core))

	sent, err := evaluator.EvaluateBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, f.notifier.messages(), 1)
	assert.True(t, f.alerts.priceAlert(alert.ID).Active)

	entries := logs.FilterMessage("price alert delivered but still active, it may be sent again").All()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(alert.ID), entries[0].ContextMap()["alert_id"])
}
