package querystate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "roster-search/internal/common/errors"
	"roster-search/internal/common/logger"
	"roster-search/internal/models"
	"roster-search/internal/search/hierarchy"
)

const testNamespace = "creator-search-state"

// ==========================
// Test Helper Functions
// ==========================

type manualScheduler struct {
	mu  sync.Mutex
	fns []func()
}

func (m *manualScheduler) Schedule(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fns = append(m.fns, fn)
}

func (m *manualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fns)
}

func (m *manualScheduler) RunAll() {
	m.mu.Lock()
	fns := m.fns
	m.fns = nil
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func createTestStore(t *testing.T, storage Storage, sch Scheduler) *Store {
	return New(testNamespace, models.DefaultQueryState(), storage,
		WithLogger(logger.NewTestLogger(t)),
		WithScheduler(sch),
		WithHierarchy(hierarchy.Default()),
	)
}

func persisted(t *testing.T, storage Storage) (models.QueryState, bool) {
	t.Helper()
	raw, ok, err := storage.Get(context.Background(), testNamespace)
	require.NoError(t, err)
	if !ok {
		return models.QueryState{}, false
	}
	var q models.QueryState
	require.NoError(t, json.Unmarshal([]byte(raw), &q))
	return q, true
}

// ==========================
// Hydration Tests
// ==========================

func TestStore_StartsWithDefaultsBeforeHydrate(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(context.Background(), testNamespace, `{"searchQuery":"ram"}`))

	store := createTestStore(t, storage, &manualScheduler{})

	assert.Equal(t, models.DefaultQueryState(), store.Value())
}

func TestStore_Hydrate(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *string
		expected models.QueryState
	}{
		{
			name:     "absent key keeps defaults",
			snapshot: nil,
			expected: models.DefaultQueryState(),
		},
		{
			name:     "full snapshot restored",
			snapshot: Ptr(`{"searchQuery":"ram","selectedCountry":"Nepal","selectedProvince":"Bagmati","selectedDistrict":"Kathmandu","selectedFollowers":"10K - 100K","selectedScore":"greaterOrEqual","scoreValue":"80","currentPage":3,"showAdvancedFilters":true}`),
			expected: models.QueryState{
				SearchQuery:         "ram",
				Country:             "Nepal",
				Province:            "Bagmati",
				District:            "Kathmandu",
				Followers:           "10K - 100K",
				ScoreOperator:       models.ScoreGreaterOrEqual,
				ScoreValue:          "80",
				CurrentPage:         3,
				ShowAdvancedFilters: true,
			},
		},
		{
			name:     "one corrupt field falls back alone",
			snapshot: Ptr(`{"searchQuery":"ram","selectedCountry":42,"selectedCategory":"Food","currentPage":2}`),
			expected: models.QueryState{SearchQuery: "ram", Category: "Food", CurrentPage: 2},
		},
		{
			name:     "unparseable snapshot is treated as absent",
			snapshot: Ptr(`{"searchQuery":`),
			expected: models.DefaultQueryState(),
		},
		{
			name:     "non-object snapshot is treated as absent",
			snapshot: Ptr(`["ram"]`),
			expected: models.DefaultQueryState(),
		},
		{
			name:     "null fields keep defaults",
			snapshot: Ptr(`{"searchQuery":null,"currentPage":null,"radius":"25"}`),
			expected: models.QueryState{Radius: "25", CurrentPage: 1},
		},
		{
			name:     "unknown and legacy keys are ignored",
			snapshot: Ptr(`{"legacyFilter":"x","version":7,"selectedStatus":"approved"}`),
			expected: models.QueryState{Status: "approved", CurrentPage: 1},
		},
		{
			name:     "invalid enum values fall back",
			snapshot: Ptr(`{"selectedVerified":"yes","selectedScore":"between","currentPage":0,"scoreValue":"50"}`),
			expected: models.QueryState{ScoreValue: "50", CurrentPage: 1},
		},
		{
			name:     "province outside restored country is dropped",
			snapshot: Ptr(`{"selectedCountry":"Nepal","selectedProvince":"Punjab","selectedDistrict":"Lahore"}`),
			expected: models.QueryState{Country: "Nepal", CurrentPage: 1},
		},
		{
			name:     "district outside restored province is dropped",
			snapshot: Ptr(`{"selectedCountry":"Nepal","selectedProvince":"Bagmati","selectedDistrict":"Kaski"}`),
			expected: models.QueryState{Country: "Nepal", Province: "Bagmati", CurrentPage: 1},
		},
		{
			name:     "levels without hierarchy data are kept",
			snapshot: Ptr(`{"selectedCountry":"India","selectedProvince":"Kerala"}`),
			expected: models.QueryState{Country: "India", Province: "Kerala", CurrentPage: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, client := setupRedis(t)
			if tt.snapshot != nil {
				require.NoError(t, mr.Set(testNamespace, *tt.snapshot))
			}
			store := createTestStore(t, NewRedisStorage(client, 0), &manualScheduler{})

			got := store.Hydrate(context.Background())

			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.expected, store.Value())
		})
	}
}

func TestStore_HydrateOnlyReadsOnce(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, storage.Set(ctx, testNamespace, `{"searchQuery":"first"}`))

	store := createTestStore(t, storage, &manualScheduler{})
	store.Hydrate(ctx)
	store.Update(Changes{Category: Ptr("Travel")})

	require.NoError(t, storage.Set(ctx, testNamespace, `{"searchQuery":"second"}`))
	got := store.Hydrate(ctx)

	assert.Equal(t, "first", got.SearchQuery)
	assert.Equal(t, "Travel", got.Category)
}

func TestStore_HydrateReadFailureKeepsDefaults(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet(testNamespace).SetErr(errors.New("connection refused"))

	store := createTestStore(t, NewRedisStorage(client, 0), &manualScheduler{})
	got := store.Hydrate(context.Background())

	assert.Equal(t, models.DefaultQueryState(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Update / Persistence Tests
// ==========================

func TestStore_UpdateCoalescesAndWritesLatest(t *testing.T) {
	storage := NewMemoryStorage()
	sch := &manualScheduler{}
	store := createTestStore(t, storage, sch)
	store.Hydrate(context.Background())

	store.Update(Changes{SearchQuery: Ptr("r")})
	store.Update(Changes{SearchQuery: Ptr("ra")})
	store.Update(Changes{SearchQuery: Ptr("ram")})

	assert.Equal(t, 1, sch.Pending())
	_, ok := persisted(t, storage)
	assert.False(t, ok, "write must be deferred")

	sch.RunAll()

	got, ok := persisted(t, storage)
	require.True(t, ok)
	assert.Equal(t, "ram", got.SearchQuery)
}

func TestStore_DeferredWriteObservesLaterUpdates(t *testing.T) {
	storage := NewMemoryStorage()
	sch := &manualScheduler{}
	store := createTestStore(t, storage, sch)
	store.Hydrate(context.Background())

	store.Update(Changes{Country: Ptr("Nepal")})
	store.Update(Changes{ShowAdvancedFilters: Ptr(true)})
	sch.RunAll()

	got, ok := persisted(t, storage)
	require.True(t, ok)
	assert.Equal(t, "Nepal", got.Country)
	assert.True(t, got.ShowAdvancedFilters)

	// a new update after the write schedules a new one
	store.Update(Changes{Country: Ptr("India")})
	assert.Equal(t, 1, sch.Pending())
	sch.RunAll()

	got, _ = persisted(t, storage)
	assert.Equal(t, "India", got.Country)
}

func TestStore_EarlyUpdateDoesNotOverwriteSnapshot(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	snapshot := `{"selectedCountry":"Nepal","selectedProvince":"Bagmati","searchQuery":"momo"}`
	require.NoError(t, mr.Set(testNamespace, snapshot))

	storage := NewRedisStorage(client, 0)
	sch := &manualScheduler{}
	store := createTestStore(t, storage, sch)

	store.Update(Changes{ShowAdvancedFilters: Ptr(true)})
	sch.RunAll()
	require.NoError(t, store.Flush(ctx))

	raw, err := mr.Get(testNamespace)
	require.NoError(t, err)
	assert.Equal(t, snapshot, raw)

	got := store.Hydrate(ctx)
	assert.Equal(t, "Nepal", got.Country)
	assert.Equal(t, "Bagmati", got.Province)
	assert.Equal(t, "momo", got.SearchQuery)

	// the write held back before hydration now stores the restored value
	assert.Equal(t, 1, sch.Pending())
	sch.RunAll()
	stored, ok := persisted(t, storage)
	require.True(t, ok)
	assert.Equal(t, got, stored)
}

func TestStore_SetPageBelowOne(t *testing.T) {
	storage := NewMemoryStorage()
	store := createTestStore(t, storage, &manualScheduler{})
	store.Hydrate(context.Background())

	assert.Equal(t, 1, store.SetPage(0).CurrentPage)
	require.NoError(t, store.Flush(context.Background()))

	got, ok := persisted(t, storage)
	require.True(t, ok)
	assert.Equal(t, 1, got.CurrentPage)
}

func TestStore_ResetPersistsImmediatelyAndCancelsPending(t *testing.T) {
	ctx := context.Background()
	_, client := setupRedis(t)
	storage := NewRedisStorage(client, time.Hour)
	sch := &manualScheduler{}

	store := createTestStore(t, storage, sch)
	store.Hydrate(ctx)
	store.Update(Changes{SearchQuery: Ptr("ram"), Country: Ptr("Nepal")})

	require.NoError(t, store.Reset(ctx))
	assert.Equal(t, models.DefaultQueryState(), store.Value())

	got, ok := persisted(t, storage)
	require.True(t, ok)
	assert.Equal(t, models.DefaultQueryState(), got)

	// the stale deferred write must not resurrect the old query
	sch.RunAll()
	got, _ = persisted(t, storage)
	assert.Equal(t, models.DefaultQueryState(), got)

	fresh := createTestStore(t, storage, &manualScheduler{})
	assert.Equal(t, models.DefaultQueryState(), fresh.Hydrate(ctx))
}

func TestStore_RoundTripThroughFreshStore(t *testing.T) {
	ctx := context.Background()
	_, client := setupRedis(t)
	storage := NewRedisStorage(client, 0)

	first := createTestStore(t, storage, &manualScheduler{})
	first.Hydrate(ctx)
	first.Update(Changes{
		Country:       Ptr("Nepal"),
		Province:      Ptr("Gandaki"),
		District:      Ptr("Kaski"),
		ScoreOperator: Ptr(models.ScoreGreaterOrEqual),
		ScoreValue:    Ptr("80"),
	})
	first.SetPage(2)
	require.NoError(t, first.Flush(ctx))

	second := createTestStore(t, storage, &manualScheduler{})
	assert.Equal(t, first.Value(), second.Hydrate(ctx))
}

func TestStore_RedisStorageAppliesTTL(t *testing.T) {
	mr, client := setupRedis(t)
	store := createTestStore(t, NewRedisStorage(client, 2*time.Hour), &manualScheduler{})
	store.Hydrate(context.Background())

	store.Update(Changes{SearchQuery: Ptr("ram")})
	require.NoError(t, store.Flush(context.Background()))

	assert.Equal(t, 2*time.Hour, mr.TTL(testNamespace))
}

func TestStore_FlushWithoutPendingIsNoop(t *testing.T) {
	storage := NewMemoryStorage()
	store := createTestStore(t, storage, &manualScheduler{})

	require.NoError(t, store.Flush(context.Background()))

	_, ok := persisted(t, storage)
	assert.False(t, ok)
}

func TestStore_PersistFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet(testNamespace).RedisNil()
	store := createTestStore(t, NewRedisStorage(client, 0), &manualScheduler{})
	store.Hydrate(context.Background())

	value := store.Update(Changes{SearchQuery: Ptr("ram")})
	data, err := json.Marshal(value)
	require.NoError(t, err)
	mock.ExpectSet(testNamespace, string(data), 0).SetErr(errors.New("READONLY"))

	err = store.Flush(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStatePersistFailed))
	assert.Equal(t, "ram", store.Value().SearchQuery, "live value survives a failed write")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DelaySchedulerWritesEventually(t *testing.T) {
	storage := NewMemoryStorage()
	store := New(testNamespace, models.DefaultQueryState(), storage,
		WithLogger(logger.NewTestLogger(t)),
		WithScheduler(DelayScheduler(5*time.Millisecond)),
	)
	store.Hydrate(context.Background())

	store.Update(Changes{SearchQuery: Ptr("ram")})

	assert.Eventually(t, func() bool {
		got, ok := persisted(t, storage)
		return ok && got.SearchQuery == "ram"
	}, time.Second, 5*time.Millisecond)
}

func TestStore_NamespacesAreIndependent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	creators := New("creator-search-state", models.DefaultQueryState(), storage, WithScheduler(&manualScheduler{}))
	brands := New("brand-search-state", models.DefaultQueryState(), storage, WithScheduler(&manualScheduler{}))
	creators.Hydrate(ctx)

	creators.Update(Changes{SearchQuery: Ptr("ram")})
	require.NoError(t, creators.Flush(ctx))

	assert.Equal(t, models.DefaultQueryState(), brands.Hydrate(ctx))
}
