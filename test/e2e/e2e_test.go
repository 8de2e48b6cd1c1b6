// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster-search/internal/common/config"
	"roster-search/internal/common/database"
	"roster-search/internal/common/logger"
	"roster-search/internal/location"
	"roster-search/internal/models"
	"roster-search/internal/querystate"
	"roster-search/internal/roster"
	"roster-search/internal/search/hierarchy"
	"roster-search/internal/search/surface"
)

const creatorsJSON = `[
  {"id": 1, "name": "Aarav Shrestha", "niche": "Food", "description": "Momo and street food tours",
   "country": "Nepal", "province": "Bagmati", "district": "Kathmandu", "status": "approved",
   "verified": true, "followers": "12.5K", "creatorScore": 86,
   "coordinates": {"latitude": 27.7172, "longitude": 85.3240}},
  {"id": 2, "name": "Bina Gurung", "niche": "Travel", "description": "Treks around the Annapurna",
   "country": "Nepal", "province": "Gandaki", "district": "Kaski", "status": "approved",
   "verified": true, "followers": "48K", "creatorScore": 91,
   "coordinates": {"latitude": 28.2096, "longitude": 83.9856}},
  {"id": 3, "name": "Chirag Mehta", "niche": "Food", "description": "Home cooking",
   "country": "India", "status": "pending", "verified": false, "followers": "3,200"},
  {"id": 4, "name": "Diya Tamang", "niche": "Food", "description": "Newari feasts",
   "country": "Nepal", "province": "Bagmati", "district": "Lalitpur", "status": "approved",
   "verified": false, "followers": "9.8K", "creatorScore": 74,
   "coordinates": {"latitude": 27.6644, "longitude": 85.3188}},
  {"id": 5, "name": "Esha Rai", "niche": "Fitness", "description": "Trail running",
   "country": "Nepal", "province": "Koshi", "district": "Ilam", "status": "blocked",
   "verified": true, "followers": "1.1M", "creatorScore": 95}
]`

type testEnv struct {
	cfg       *config.Config
	redis     *database.RedisClient
	hierarchy *hierarchy.Hierarchy
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	dir := t.TempDir()
	creatorsPath := filepath.Join(dir, "creators.json")
	require.NoError(t, os.WriteFile(creatorsPath, []byte(creatorsJSON), 0o600))

	t.Setenv("E2E_REDIS_ADDR", mr.Addr())
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
database:
  redis:
    address: ${E2E_REDIS_ADDR}
search:
  page_size: 2
  key_prefix: "e2e:"
  state_ttl_hours: 24
roster:
  source: file
  creators_path: `+creatorsPath+`
location:
  provider: static
  latitude: 27.7172
  longitude: 85.3240
`), 0o600))

	cfg, err := config.LoadFromFile(cfgPath)
	require.NoError(t, err)

	rc, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	require.NoError(t, rc.Ping(context.Background()))
	t.Cleanup(func() { _ = rc.Close() })

	return &testEnv{cfg: cfg, redis: rc, hierarchy: hierarchy.Default()}
}

// mount builds the creators surface the way the command does, as a fresh
// page load would.
func (e *testEnv) mount(t *testing.T) *surface.Surface[models.Creator] {
	log := logger.NewTestLogger(t)
	store := querystate.New(
		e.cfg.Search.NamespaceKey(string(models.SurfaceCreators)),
		models.DefaultQueryState(),
		querystate.NewRedisStorage(e.redis.Client, e.cfg.Search.StateTTL()),
		querystate.WithLogger(log),
		querystate.WithHierarchy(e.hierarchy),
		querystate.WithScheduler(querystate.DelayScheduler(config.GetDuration(e.cfg.Search.PersistDelayMs))),
	)
	store.Hydrate(context.Background())

	provider := roster.NewCreatorFileProvider(e.cfg.Roster.CreatorsPath, log)
	return surface.New[models.Creator](models.SurfaceCreators, provider, store,
		surface.WithPageSize(e.cfg.Search.PageSize),
		surface.WithLogger(log),
	)
}

func ids(items []models.Creator) []int64 {
	out := make([]int64, len(items))
	for i, c := range items {
		out[i] = c.ID
	}
	return out
}

func TestE2E_SearchSurvivesReload(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	first := env.mount(t)
	first.Store().Update(querystate.Changes{
		Country:       querystate.Ptr("Nepal"),
		Category:      querystate.Ptr("Food"),
		ScoreOperator: querystate.Ptr(models.ScoreGreaterOrEqual),
		ScoreValue:    querystate.Ptr("80"),
	})
	res, err := first.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(res.Items))
	require.NoError(t, first.Store().Flush(ctx))

	raw, err := env.redis.Client.Get(ctx, "e2e:creator-search-state").Result()
	require.NoError(t, err)
	var persisted models.QueryState
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, "Food", persisted.Category)

	second := env.mount(t)
	assert.Equal(t, first.Store().Value(), second.Store().Value())
	res, err = second.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(res.Items))
}

func TestE2E_PaginationFollowsFilters(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	s := env.mount(t)

	s.Store().SetPage(3)
	res, err := s.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalItems)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, []int64{5}, ids(res.Items))

	// narrowing the filter sends the cursor back to the first page
	s.Store().Update(querystate.Changes{Followers: querystate.Ptr("1K - 10K")})
	res, err = s.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page.Page)
	assert.Equal(t, []int64{3, 4}, ids(res.Items))
	require.NoError(t, s.Store().Flush(ctx))
}

func TestE2E_NearMeAndReset(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	s := env.mount(t)

	resolver := location.NewFromConfig(env.cfg.Location, logger.NewTestLogger(t))
	require.Nil(t, s.UseCurrentLocation(ctx, resolver, 10))

	res, err := s.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids(res.Items))

	require.NoError(t, s.Store().Reset(ctx))

	fresh := env.mount(t)
	assert.Equal(t, models.DefaultQueryState(), fresh.Store().Value())
}

func TestE2E_CorruptedStateFallsBackPerField(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	key := env.cfg.Search.NamespaceKey(string(models.SurfaceCreators))
	require.NoError(t, env.redis.Client.Set(ctx, key,
		`{"selectedCountry":"Nepal","selectedProvince":"Bagmati","selectedStatus":["approved"],"currentPage":"two"}`, 0).Err())

	s := env.mount(t)
	state := s.Store().Value()
	assert.Equal(t, "Nepal", state.Country)
	assert.Equal(t, "Bagmati", state.Province)
	assert.Equal(t, "", state.Status)
	assert.Equal(t, 1, state.CurrentPage)

	res, err := s.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids(res.Items))
}
