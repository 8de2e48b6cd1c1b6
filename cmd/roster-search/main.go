package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"roster-search/internal/common/config"
	"roster-search/internal/common/database"
	apperrors "roster-search/internal/common/errors"
	"roster-search/internal/common/logger"
	"roster-search/internal/common/observability"
	"roster-search/internal/location"
	"roster-search/internal/models"
	"roster-search/internal/querystate"
	"roster-search/internal/roster"
	"roster-search/internal/search/hierarchy"
	"roster-search/internal/search/surface"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// output is what the command prints for one render.
type output struct {
	Result interface{}       `json:"result,omitempty"`
	Notice *apperrors.Notice `json:"notice,omitempty"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func loadHierarchy(cfg config.SearchConfig) (*hierarchy.Hierarchy, error) {
	if cfg.HierarchyPath == "" {
		return hierarchy.Default(), nil
	}
	return hierarchy.LoadFile(cfg.HierarchyPath)
}

func runSearch(ctx context.Context, configPath string, flags *searchFlags, fs *pflag.FlagSet, stdout io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	h, err := loadHierarchy(cfg.Search)
	if err != nil {
		return err
	}

	obs := observability.New(cfg.App.Name, log)
	defer func() { _ = obs.Shutdown(context.Background()) }()

	storage, closeStorage, err := newStorage(ctx, cfg, zapLog)
	if err != nil {
		return err
	}
	defer closeStorage()

	name := flags.surfaceName()
	store := querystate.New(cfg.Search.NamespaceKey(string(name)), models.DefaultQueryState(), storage,
		querystate.WithLogger(log),
		querystate.WithScheduler(querystate.DelayScheduler(config.GetDuration(cfg.Search.PersistDelayMs))),
		querystate.WithHierarchy(h),
	)
	store.Hydrate(ctx)

	if flags.reset {
		if err := store.Reset(ctx); err != nil {
			log.Warn("saved query could not be cleared", map[string]interface{}{"error": err})
		}
	}
	if changes, ok := flags.changes(fs); ok {
		store.Update(changes)
	}

	opts := []surface.Option{
		surface.WithPageSize(cfg.Search.PageSize),
		surface.WithRosterTTL(cfg.Roster.CacheTTL()),
		surface.WithLogger(log),
		surface.WithObservability(obs),
	}
	switch name {
	case models.SurfaceBrands:
		provider, closeProvider, err := brandProvider(cfg, zapLog, log)
		if err != nil {
			return err
		}
		defer closeProvider()
		err = render(ctx, surface.New[models.Brand](name, provider, store, opts...), cfg, flags, log, stdout)
		if err != nil {
			return err
		}
	default:
		provider, closeProvider, err := creatorProvider(cfg, zapLog, log)
		if err != nil {
			return err
		}
		defer closeProvider()
		err = render(ctx, surface.New[models.Creator](name, provider, store, opts...), cfg, flags, log, stdout)
		if err != nil {
			return err
		}
	}

	if err := store.Flush(ctx); err != nil {
		log.Warn("search state not saved", map[string]interface{}{"error": err})
	}

	if flags.serve && cfg.Metrics.Enabled {
		serveMetrics(ctx, cfg.Metrics.Address, zapLog)
	}
	return nil
}

func render[T models.Entity](ctx context.Context, s *surface.Surface[T], cfg *config.Config, flags *searchFlags, log logger.Logger, w io.Writer) error {
	var notice *apperrors.Notice
	if flags.nearMe {
		notice = s.UseCurrentLocation(ctx, location.NewFromConfig(cfg.Location, log), flags.nearMeRadius)
	}

	res, err := s.Render(ctx)
	if err != nil {
		if n := apperrors.NewErrorHandler(log).Handle(err); n != nil {
			return errors.New(n.Message)
		}
		return err
	}

	if flags.format == formatTable {
		return writeTable(w, res, notice)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output{Result: res, Notice: notice})
}

func newStorage(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (querystate.Storage, func(), error) {
	if cfg.Search.StateBackend == config.StateBackendMemory {
		return querystate.NewMemoryStorage(), func() {}, nil
	}

	var rc *database.RedisClient
	err := retryWithBackoff(func() error {
		var err error
		rc, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rc.Ping(ctx)
	}, 5, 500*time.Millisecond, zapLog, "Redis connection")
	if err != nil {
		return nil, nil, err
	}
	zapLog.Info("Redis connected successfully")

	closeFn := func() {
		if err := rc.Close(); err != nil {
			zapLog.Error("Error closing Redis client", zap.Error(err))
		}
	}
	return querystate.NewRedisStorage(rc.Client, cfg.Search.StateTTL()), closeFn, nil
}

func creatorProvider(cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (roster.Provider[models.Creator], func(), error) {
	switch cfg.Roster.Source {
	case config.RosterSourcePostgres:
		pg, err := connectPostgres(cfg, zapLog)
		if err != nil {
			return nil, nil, err
		}
		return roster.NewCreatorPostgresProvider(pg.DB, log), func() { _ = pg.Close() }, nil
	case config.RosterSourceElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		return roster.NewElasticsearchProvider[models.Creator](es.Client, cfg.Roster.CreatorIndex, cfg.Roster.BatchSize, log), func() {}, nil
	default:
		if cfg.Roster.CreatorsPath == "" {
			return nil, nil, apperrors.NewConfigInvalidError("roster.creators_path is not set")
		}
		return roster.NewCreatorFileProvider(cfg.Roster.CreatorsPath, log), func() {}, nil
	}
}

func brandProvider(cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (roster.Provider[models.Brand], func(), error) {
	switch cfg.Roster.Source {
	case config.RosterSourcePostgres:
		pg, err := connectPostgres(cfg, zapLog)
		if err != nil {
			return nil, nil, err
		}
		return roster.NewBrandPostgresProvider(pg.DB, log), func() { _ = pg.Close() }, nil
	case config.RosterSourceElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		return roster.NewElasticsearchProvider[models.Brand](es.Client, cfg.Roster.BrandIndex, cfg.Roster.BatchSize, log), func() {}, nil
	default:
		if cfg.Roster.BrandsPath == "" {
			return nil, nil, apperrors.NewConfigInvalidError("roster.brands_path is not set")
		}
		return roster.NewBrandFileProvider(cfg.Roster.BrandsPath, log), func() {}, nil
	}
}

func connectPostgres(cfg *config.Config, zapLog *zap.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return pg.Ping(ctx)
	}, 5, time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	zapLog.Info("PostgreSQL connected successfully")
	return pg, nil
}

func serveMetrics(ctx context.Context, addr string, zapLog *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		zapLog.Info("Metrics server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping metrics server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
