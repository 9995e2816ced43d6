package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NasaVasa/mira/internal/domain"
)

type memoryUsers struct {
	mu     sync.Mutex
	nextID uint
	byTG   map[int64]*domain.User
	getErr error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byTG: make(map[int64]*domain.User)}
}

func (m *memoryUsers) GetByTelegramID(_ context.Context, telegramUserID int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.byTG[telegramUserID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memoryUsers) GetByID(_ context.Context, userID uint) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byTG {
		if user.ID == userID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byTG[user.TelegramUserID]; ok {
		return domain.ErrAlreadyExists
	}
	m.nextID++
	user.ID = m.nextID
	copied := *user
	m.byTG[user.TelegramUserID] = &copied
	return nil
}

type memoryAlerts struct {
	mu            sync.Mutex
	users         *memoryUsers
	nextID        uint
	priceAlerts   []domain.PriceAlert
	listings      []domain.NewListingAlert
	wallets       []domain.TrackedWallet
	createErr     error
	listErr       error
	deactivateErr error // fails the flip after a successful fire
}

func newMemoryAlerts(users *memoryUsers) *memoryAlerts {
	return &memoryAlerts{users: users}
}

func (m *memoryAlerts) CreatePriceAlert(_ context.Context, alert *domain.PriceAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	alert.ID = m.nextID
	m.priceAlerts = append(m.priceAlerts, *alert)
	return nil
}

func (m *memoryAlerts) CreateNewListingAlert(_ context.Context, alert *domain.NewListingAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	alert.ID = m.nextID
	m.listings = append(m.listings, *alert)
	return nil
}

func (m *memoryAlerts) CreateTrackedWallet(_ context.Context, wallet *domain.TrackedWallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	wallet.ID = m.nextID
	m.wallets = append(m.wallets, *wallet)
	return nil
}

func (m *memoryAlerts) ListByUser(_ context.Context, userID uint) (*domain.UserAlerts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := &domain.UserAlerts{}
	for _, alert := range m.priceAlerts {
		if alert.UserID == userID {
			result.PriceAlerts = append(result.PriceAlerts, alert)
		}
	}
	for _, alert := range m.listings {
		if alert.UserID == userID {
			result.NewListingAlerts = append(result.NewListingAlerts, alert)
		}
	}
	for _, wallet := range m.wallets {
		if wallet.UserID == userID {
			result.TrackedWallets = append(result.TrackedWallets, wallet)
		}
	}
	return result, nil
}

func (m *memoryAlerts) ListActivePriceAlerts(ctx context.Context) ([]domain.ActivePriceAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var active []domain.ActivePriceAlert
	for _, alert := range m.priceAlerts {
		if !alert.Active {
			continue
		}
		owner, err := m.users.GetByID(ctx, alert.UserID)
		if err != nil {
			continue
		}
		active = append(active, domain.ActivePriceAlert{PriceAlert: alert, TelegramUserID: owner.TelegramUserID})
	}
	return active, nil
}

// FirePriceAlert holds the store lock across fire, like the row lock held by
// the database transaction.
func (m *memoryAlerts) FirePriceAlert(ctx context.Context, alertID uint, fire domain.FireFunc) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.priceAlerts {
		alert := &m.priceAlerts[i]
		if alert.ID != alertID {
			continue
		}
		if !alert.Active {
			return false, nil
		}
		owner, err := m.users.GetByID(ctx, alert.UserID)
		if err != nil {
			return false, err
		}
		if err := fire(ctx, domain.ActivePriceAlert{PriceAlert: *alert, TelegramUserID: owner.TelegramUserID}); err != nil {
			return false, err
		}
		if m.deactivateErr != nil {
			return false, fmt.Errorf("%w: %w", domain.ErrNotDeactivated, m.deactivateErr)
		}
		alert.Active = false
		return true, nil
	}
	return false, nil
}

func (m *memoryAlerts) priceAlert(id uint) domain.PriceAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alert := range m.priceAlerts {
		if alert.ID == id {
			return alert
		}
	}
	return domain.PriceAlert{}
}

type sentMessage struct {
	telegramUserID int64
	text           string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Notify(telegramUserID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{telegramUserID: telegramUserID, text: text})
	return nil
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type collectionRef struct {
	chain   string
	address string
}

type fakeAnalytics struct {
	mu           sync.Mutex
	search       []domain.CollectionListing
	searchErr    error
	pages        [][]domain.CollectionListing
	dropped      map[int]int // upstream rows per page filtered out as incomplete
	listErr      error
	metrics      map[collectionRef]*domain.CollectionMetrics
	metricsErr   error
	trend        *domain.MarketTrend
	trendErr     error
	searchCalls  int
	listCalls    int
	metricsCalls map[collectionRef]int
}

func (f *fakeAnalytics) SearchCollections(context.Context, string) ([]domain.CollectionListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	return f.search, f.searchErr
}

func (f *fakeAnalytics) ListCollections(_ context.Context, page, pageSize int) (domain.CollectionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return domain.CollectionPage{}, f.listErr
	}
	if page >= len(f.pages) {
		return domain.CollectionPage{}, nil
	}
	listings := f.pages[page]
	return domain.CollectionPage{
		Listings: listings,
		More:     len(listings)+f.dropped[page] >= pageSize,
	}, nil
}

func (f *fakeAnalytics) GetCollectionMetrics(_ context.Context, chain, address string) (*domain.CollectionMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := collectionRef{chain: chain, address: address}
	if f.metricsCalls == nil {
		f.metricsCalls = make(map[collectionRef]int)
	}
	f.metricsCalls[ref]++
	if f.metricsErr != nil {
		return nil, f.metricsErr
	}
	metrics, ok := f.metrics[ref]
	if !ok {
		return nil, domain.ErrMetricsUnavailable
	}
	return metrics, nil
}

func (f *fakeAnalytics) GetMarketTrend(context.Context) (*domain.MarketTrend, error) {
	return f.trend, f.trendErr
}

type fakeModel struct {
	mu      sync.Mutex
	output  string
	err     error
	prompts []string
}

func (f *fakeModel) Generate(_ context.Context, prompt string, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.output, f.err
}

type panickingModel struct{}

func (panickingModel) Generate(context.Context, string, bool) (string, error) {
	panic("model exploded")
}

type fakeCache struct {
	entries map[string]domain.ResolvedCollection
	getErr  error
	setErr  error
}

func (f *fakeCache) Get(_ context.Context, key string) (*domain.ResolvedCollection, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	entry, ok := f.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (f *fakeCache) Set(_ context.Context, key string, collection domain.ResolvedCollection, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.entries == nil {
		f.entries = make(map[string]domain.ResolvedCollection)
	}
	f.entries[key] = collection
	return nil
}

var errUpstream = errors.New("upstream unavailable")
