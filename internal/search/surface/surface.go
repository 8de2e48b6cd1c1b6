// Package surface runs one search screen: it owns a roster, a query store and
// a page size, and renders the current page on demand.
package surface

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	apperrors "roster-search/internal/common/errors"
	"roster-search/internal/common/logger"
	"roster-search/internal/common/metrics"
	"roster-search/internal/common/observability"
	"roster-search/internal/location"
	"roster-search/internal/models"
	"roster-search/internal/querystate"
	"roster-search/internal/roster"
	"roster-search/internal/search/engine"
	"roster-search/internal/search/paginate"
)

const DefaultPageSize = 12

// Result is one rendered page plus the state it was rendered from.
type Result[T models.Entity] struct {
	paginate.Page[T]
	State         models.QueryState `json:"state"`
	ActiveFilters []string          `json:"activeFilters"`
}

type Surface[T models.Entity] struct {
	id       string
	name     models.Surface
	roster   *roster.CachedProvider[T]
	store    *querystate.Store
	pageSize int
	log      logger.Logger
	obs      *observability.Observability
}

type Option func(*options)

type options struct {
	pageSize  int
	rosterTTL time.Duration
	log       logger.Logger
	obs       *observability.Observability
}

func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithRosterTTL makes the loaded roster expire after d. By default it is
// kept until Reload.
func WithRosterTTL(d time.Duration) Option {
	return func(o *options) { o.rosterTTL = d }
}

func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *options) { o.obs = obs }
}

func New[T models.Entity](name models.Surface, provider roster.Provider[T], store *querystate.Store, opts ...Option) *Surface[T] {
	o := options{pageSize: DefaultPageSize, log: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize < 1 {
		o.pageSize = DefaultPageSize
	}

	id := uuid.New().String()
	return &Surface[T]{
		id:       id,
		name:     name,
		roster:   roster.NewCachedProvider(provider, o.rosterTTL),
		store:    store,
		pageSize: o.pageSize,
		log:      o.log.With(map[string]interface{}{"surface": string(name), "surfaceId": id}),
		obs:      o.obs,
	}
}

func (s *Surface[T]) ID() string {
	return s.id
}

func (s *Surface[T]) Store() *querystate.Store {
	return s.store
}

// Reload drops the cached roster and loads it again.
func (s *Surface[T]) Reload(ctx context.Context) error {
	s.roster.Invalidate()
	_, err := s.roster.Load(ctx)
	return err
}

// Render filters the roster with the live query and returns the current
// page. A stored page past the end is pulled back to the last page and the
// store is updated to match.
func (s *Surface[T]) Render(ctx context.Context) (Result[T], error) {
	start := time.Now()
	surface := string(s.name)

	records, err := s.roster.Load(ctx)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		metrics.SearchRenderFailures.WithLabelValues(surface, string(stdErr.Code)).Inc()
		s.obs.RecordRender(ctx, surface, "error", time.Since(start))
		return Result[T]{}, err
	}

	state := s.store.Value()
	query := engine.Compile(state)

	filterStart := time.Now()
	filtered := engine.Apply(query, records)
	metrics.FilterDuration.WithLabelValues(surface).Observe(time.Since(filterStart).Seconds())

	page := paginate.Paginate(filtered, s.pageSize, state.CurrentPage)
	if page.Page != state.CurrentPage {
		stdErr := apperrors.NewInvalidPageError(state.CurrentPage, page.TotalPages)
		s.log.Debug("page out of range, clamped", map[string]interface{}{
			"code":      stdErr.Code,
			"requested": state.CurrentPage,
			"served":    page.Page,
		})
		state = s.store.SetPage(page.Page)
	}

	metrics.SearchRenders.WithLabelValues(surface).Inc()
	metrics.MatchedItems.WithLabelValues(surface).Set(float64(page.TotalItems))
	s.obs.RecordRender(ctx, surface, "ok", time.Since(start))

	return Result[T]{
		Page:          page,
		State:         state,
		ActiveFilters: query.ActiveFilters(),
	}, nil
}

// UseCurrentLocation asks resolver for the moderator's position and, on
// success, centres the radius search on it. radiusKm is applied only when
// positive. On failure the query is left untouched and the returned notice
// describes the problem.
func (s *Surface[T]) UseCurrentLocation(ctx context.Context, resolver location.Resolver, radiusKm float64) *apperrors.Notice {
	coords, err := resolver.RequestCurrentLocation(ctx)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		metrics.LocationFailures.WithLabelValues(string(stdErr.Code)).Inc()
		s.log.Warn("current location unavailable", map[string]interface{}{
			"code":  stdErr.Code,
			"error": err,
		})
		return location.Notice(err)
	}

	changes := querystate.Changes{
		Latitude:  querystate.Ptr(strconv.FormatFloat(coords.Latitude, 'f', -1, 64)),
		Longitude: querystate.Ptr(strconv.FormatFloat(coords.Longitude, 'f', -1, 64)),
	}
	if radiusKm > 0 {
		changes.Radius = querystate.Ptr(strconv.FormatFloat(radiusKm, 'f', -1, 64))
	}
	s.store.Update(changes)
	s.log.Info("radius search centred on current location", map[string]interface{}{
		"latitude":  coords.Latitude,
		"longitude": coords.Longitude,
	})
	return nil
}
