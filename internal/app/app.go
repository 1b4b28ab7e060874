package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mitchell28/masterleague/internal/config"
	"github.com/mitchell28/masterleague/internal/domain/fixture"
	"github.com/mitchell28/masterleague/internal/domain/leaderboard"
	"github.com/mitchell28/masterleague/internal/domain/organization"
	"github.com/mitchell28/masterleague/internal/domain/prediction"
	"github.com/mitchell28/masterleague/internal/infrastructure/leaderboardcache"
	cachedrepo "github.com/mitchell28/masterleague/internal/infrastructure/repository/cache"
	"github.com/mitchell28/masterleague/internal/infrastructure/repository/memory"
	"github.com/mitchell28/masterleague/internal/infrastructure/repository/postgres"
	"github.com/mitchell28/masterleague/internal/platform/cache"
	idgen "github.com/mitchell28/masterleague/internal/platform/id"
	"github.com/mitchell28/masterleague/internal/platform/logging"
	"github.com/mitchell28/masterleague/internal/platform/resilience"
	"github.com/mitchell28/masterleague/internal/usecase"
)

// Repositories groups the storage ports the services depend on.
type Repositories struct {
	Fixtures      fixture.Repository
	Predictions   prediction.Repository
	Leaderboards  leaderboard.Repository
	Organizations organization.Repository
}

// App holds the wired services for one process.
type App struct {
	Ledger       *usecase.PredictionLedgerService
	Leaderboards *usecase.LeaderboardService
	Integrity    *usecase.IntegrityService
	Ingestion    *usecase.ResultIngestionService

	cacheTier *postgres.CacheTier
	db        *sqlx.DB
}

// New builds the application from configuration, opening the database when a postgres
// backend is selected.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var db *sqlx.DB
	if cfg.UsesDatabase() {
		opened, err := OpenDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		db = opened
	}

	repos := memoryRepositories()
	if cfg.StorageBackend == config.BackendPostgres {
		repos = Repositories{
			Fixtures:      postgres.NewFixtureRepository(db),
			Predictions:   postgres.NewPredictionRepository(db),
			Leaderboards:  postgres.NewLeaderboardRepository(db),
			Organizations: postgres.NewOrganizationRepository(db),
		}
	}

	var (
		shared    cache.Tier
		cacheTier *postgres.CacheTier
	)
	if cfg.CacheSharedBackend == config.BackendPostgres {
		cacheTier = postgres.NewCacheTier(db)
		shared = cacheTier
	} else {
		shared = cache.NewMemoryTier(cache.NewStore(cfg.CacheSharedTTL))
	}

	application := NewWithRepositories(cfg, repos, shared, logger)
	application.cacheTier = cacheTier
	application.db = db

	logger.Info("application wired",
		"storage_backend", cfg.StorageBackend,
		"shared_cache_backend", cfg.CacheSharedBackend,
		"shared_cache_circuit", cfg.SharedCacheCircuit.Enabled,
	)
	return application, nil
}

// NewWithRepositories wires services over the given repositories and shared cache tier.
func NewWithRepositories(cfg config.Config, repos Repositories, shared cache.Tier, logger *logging.Logger) *App {
	if logger == nil {
		logger = logging.Default()
	}

	processCache := cache.NewStore(cfg.CacheLocalTTL)
	fixtures := cachedrepo.NewFixtureRepository(repos.Fixtures, processCache)
	organizations := cachedrepo.NewOrganizationRepository(repos.Organizations, processCache)

	if cfg.SharedCacheCircuit.Enabled {
		shared = cache.NewGuardedTier(shared, resilience.NewCircuitBreakerFromConfig(cfg.SharedCacheCircuit))
	}

	leaderboardCache := leaderboardcache.NewLayeredCache(
		cache.NewStore(cfg.CacheLocalTTL),
		shared,
		leaderboardcache.Options{
			LocalTTL:   cfg.CacheLocalTTL,
			SharedTTL:  cfg.CacheSharedTTL,
			StaleAfter: cfg.LeaderboardStaleAfter,
		},
		logger,
	)
	lock := leaderboardcache.NewRecalculationLock(shared, cfg.LeaderboardLockTTL, idgen.NewPrefixedGenerator(cfg.ServiceName+"-"))

	ledger := usecase.NewPredictionLedgerService(fixtures, repos.Predictions, repos.Leaderboards, leaderboardCache, logger)
	leaderboards := usecase.NewLeaderboardService(
		fixtures,
		repos.Predictions,
		repos.Leaderboards,
		organizations,
		leaderboardCache,
		lock,
		logger,
	)
	integrity := usecase.NewIntegrityService(
		organizations,
		repos.Predictions,
		repos.Leaderboards,
		leaderboards,
		cfg.IntegrityWorkers,
		logger,
	)
	ingestion := usecase.NewResultIngestionService(fixtures, ledger, leaderboards, logger)

	return &App{
		Ledger:       ledger,
		Leaderboards: leaderboards,
		Integrity:    integrity,
		Ingestion:    ingestion,
	}
}

// PurgeExpiredCache removes expired shared cache rows. It is a no-op without the postgres tier.
func (a *App) PurgeExpiredCache(ctx context.Context) (int64, error) {
	if a.cacheTier == nil {
		return 0, nil
	}
	purged, err := a.cacheTier.PurgeExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge shared cache: %w", err)
	}
	return purged, nil
}

func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func memoryRepositories() Repositories {
	fixtures := memory.NewFixtureRepository(memory.SeedFixtures())
	return Repositories{
		Fixtures:      fixtures,
		Predictions:   memory.NewPredictionRepository(memory.SeedPredictions(), memory.SeedUsernames(), fixtures),
		Leaderboards:  memory.NewLeaderboardRepository(),
		Organizations: memory.NewOrganizationRepository(memory.SeedOrganizations()),
	}
}
