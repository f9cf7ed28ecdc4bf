package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kadewerk/tally/tally-backend/internal/domain"
	"github.com/kadewerk/tally/tally-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// MockDataProvider is a mock implementation of domain.DataProvider
type MockDataProvider struct {
	mu sync.Mutex

	Billables    map[int][]domain.Billable
	KPIs         map[int]domain.YearKPIs
	BillablesErr map[int]error
	KPIsErr      map[int]error

	BillableFetches map[int]int
	KPIFetches      map[int]int

	FetchBillablesFn func(ctx context.Context, year int) ([]domain.Billable, error)
	FetchYearKPIsFn  func(ctx context.Context, year int) (domain.YearKPIs, error)
}

// NewMockDataProvider creates a new MockDataProvider
func NewMockDataProvider() *MockDataProvider {
	return &MockDataProvider{
		Billables:       make(map[int][]domain.Billable),
		KPIs:            make(map[int]domain.YearKPIs),
		BillablesErr:    make(map[int]error),
		KPIsErr:         make(map[int]error),
		BillableFetches: make(map[int]int),
		KPIFetches:      make(map[int]int),
	}
}

// AddBillables seeds the billables served for a year
func (m *MockDataProvider) AddBillables(year int, billables []domain.Billable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Billables[year] = billables
}

// AddKPIs seeds the KPI rows served for a year
func (m *MockDataProvider) AddKPIs(year int, kpis domain.YearKPIs) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KPIs[year] = kpis
}

// FailBillables makes billable fetches for a year return err
func (m *MockDataProvider) FailBillables(year int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BillablesErr[year] = err
}

// FailKPIs makes KPI fetches for a year return err
func (m *MockDataProvider) FailKPIs(year int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KPIsErr[year] = err
}

// FetchBillables returns the seeded billables for the year
func (m *MockDataProvider) FetchBillables(ctx context.Context, year int) ([]domain.Billable, error) {
	if m.FetchBillablesFn != nil {
		return m.FetchBillablesFn(ctx, year)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BillableFetches[year]++
	if err := m.BillablesErr[year]; err != nil {
		return nil, err
	}
	return m.Billables[year], nil
}

// FetchYearKPIs returns the seeded KPI rows for the year
func (m *MockDataProvider) FetchYearKPIs(ctx context.Context, year int) (domain.YearKPIs, error) {
	if m.FetchYearKPIsFn != nil {
		return m.FetchYearKPIsFn(ctx, year)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KPIFetches[year]++
	if err := m.KPIsErr[year]; err != nil {
		return domain.YearKPIs{}, err
	}
	return m.KPIs[year], nil
}

// BillableFetchCount returns how often billables were fetched for a year
func (m *MockDataProvider) BillableFetchCount(year int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.BillableFetches[year]
}

// KPIFetchCount returns how often KPI rows were fetched for a year
func (m *MockDataProvider) KPIFetchCount(year int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.KPIFetches[year]
}

// KPIUpdateCall records one UpdateKPIField invocation
type KPIUpdateCall struct {
	Year  int
	Month string
	Field domain.KPIField
	Value decimal.Decimal
}

// ConsumptionUpdateCall records one UpdateConsumption invocation
type ConsumptionUpdateCall struct {
	BillableID int64
	TargetYear int
	Amount     decimal.Decimal
	Unit       domain.ViewMode
}

// MockMutationService is a mock implementation of domain.MutationService
type MockMutationService struct {
	mu sync.Mutex

	KPIUpdates         []KPIUpdateCall
	ConsumptionUpdates []ConsumptionUpdateCall

	KPIErr         error
	ConsumptionErr error
}

// NewMockMutationService creates a new MockMutationService
func NewMockMutationService() *MockMutationService {
	return &MockMutationService{}
}

// UpdateKPIField records the call and returns the configured error
func (m *MockMutationService) UpdateKPIField(ctx context.Context, year int, month string, field domain.KPIField, value decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.KPIErr != nil {
		return m.KPIErr
	}
	m.KPIUpdates = append(m.KPIUpdates, KPIUpdateCall{Year: year, Month: month, Field: field, Value: value})
	return nil
}

// UpdateConsumption records the call and returns the configured error
func (m *MockMutationService) UpdateConsumption(ctx context.Context, billableID int64, targetYear int, amount decimal.Decimal, unit domain.ViewMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConsumptionErr != nil {
		return m.ConsumptionErr
	}
	m.ConsumptionUpdates = append(m.ConsumptionUpdates, ConsumptionUpdateCall{
		BillableID: billableID,
		TargetYear: targetYear,
		Amount:     amount,
		Unit:       unit,
	})
	return nil
}

// MockSnapshotStore is a mock implementation of storage.SnapshotStore
type MockSnapshotStore struct {
	mu sync.Mutex

	Objects      map[string][]byte
	ContentTypes map[string]string

	UploadErr   error
	PresignErr  error
	PresignBase string
}

// NewMockSnapshotStore creates a new MockSnapshotStore
func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{
		Objects:      make(map[string][]byte),
		ContentTypes: make(map[string]string),
		PresignBase:  "https://snapshots.test",
	}
}

// Upload stores the object in memory
func (m *MockSnapshotStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.Objects[objectPath] = stored
	m.ContentTypes[objectPath] = contentType
	return objectPath, nil
}

// GeneratePresignedURL returns a deterministic fake URL for the object
func (m *MockSnapshotStore) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	if _, ok := m.Objects[objectPath]; !ok {
		return "", fmt.Errorf("object not found: %s", objectPath)
	}
	return fmt.Sprintf("%s/%s?expires=%d", m.PresignBase, objectPath, int64(expiry.Seconds())), nil
}

// Object returns the stored bytes for an object path (helper for tests)
func (m *MockSnapshotStore) Object(objectPath string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Objects[objectPath]
	return data, ok
}

// MockServiceTokenRepository is a mock implementation of
// domain.ServiceTokenRepository
type MockServiceTokenRepository struct {
	mu sync.Mutex

	Tokens map[string]*domain.ServiceToken

	CreateErr error
	ListErr   error
	RevokeErr error
}

// NewMockServiceTokenRepository creates a new MockServiceTokenRepository
func NewMockServiceTokenRepository() *MockServiceTokenRepository {
	return &MockServiceTokenRepository{
		Tokens: make(map[string]*domain.ServiceToken),
	}
}

// Create stores the token keyed by its hash
func (m *MockServiceTokenRepository) Create(ctx context.Context, token *domain.ServiceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	m.Tokens[token.TokenHash] = token
	return nil
}

// List returns all tokens that have not been revoked
func (m *MockServiceTokenRepository) List(ctx context.Context) ([]*domain.ServiceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var result []*domain.ServiceToken
	for _, t := range m.Tokens {
		if t.RevokedAt == nil {
			result = append(result, t)
		}
	}
	return result, nil
}

// GetByID returns the token with the given ID
func (m *MockServiceTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Tokens {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrTokenNotFound
}

// GetByHash returns the active token with the given hash
func (m *MockServiceTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.ServiceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.Tokens[hash]; ok && t.RevokedAt == nil {
		return t, nil
	}
	return nil, domain.ErrTokenNotFound
}

// Revoke marks the token as revoked
func (m *MockServiceTokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RevokeErr != nil {
		return m.RevokeErr
	}
	for _, t := range m.Tokens {
		if t.ID == id && t.RevokedAt == nil {
			now := time.Now()
			t.RevokedAt = &now
			return nil
		}
	}
	return domain.ErrTokenNotFound
}

// UpdateLastUsed stamps the token's last-used time
func (m *MockServiceTokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Tokens {
		if t.ID == id {
			now := time.Now()
			t.LastUsedAt = &now
			return nil
		}
	}
	return domain.ErrTokenNotFound
}

// AddToken adds a token to the mock repository (helper for tests)
func (m *MockServiceTokenRepository) AddToken(token *domain.ServiceToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	m.Tokens[token.TokenHash] = token
}

// PublishedEvent records one event handed to the publisher together with
// the year scope it was published under. Year 0 means all clients.
type PublishedEvent struct {
	Year  int
	Event websocket.Event
}

// MockEventPublisher is a mock implementation of websocket.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records a year-scoped event
func (m *MockEventPublisher) Publish(year int, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{Year: year, Event: event})
}

// PublishAll records an event addressed to every client
func (m *MockEventPublisher) PublishAll(event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{Year: 0, Event: event})
}

// EventCount returns how many events were published (helper for tests)
func (m *MockEventPublisher) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}

// LastEvent returns the most recently published event, or false when none
// were published yet
func (m *MockEventPublisher) LastEvent() (PublishedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Events) == 0 {
		return PublishedEvent{}, false
	}
	return m.Events[len(m.Events)-1], true
}
