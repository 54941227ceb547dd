package cmd

import (
	"context"
	"fmt"

	"github.com/zjrosen/reclaim/internal/assetclass"
	"github.com/zjrosen/reclaim/internal/config"
	"github.com/zjrosen/reclaim/internal/infrastructure/sqlite"
	"github.com/zjrosen/reclaim/internal/log"
	"github.com/zjrosen/reclaim/internal/recycling"
	"github.com/zjrosen/reclaim/internal/telemetry"
)

// runtime bundles everything an invocation needs: the open database,
// the restored service, and the telemetry provider.
type runtime struct {
	Service *recycling.Service

	db       *sqlite.DB
	provider *telemetry.Provider
}

// openRuntime validates configuration, opens the database, and restores
// the service from persisted state. Callers must Close the runtime.
func openRuntime() (*runtime, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	provider, err := telemetry.NewProvider(cfg.Tracing)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	svc := recycling.NewService(recycling.Options{
		Admin:       recycling.Identity(cfg.Admin),
		Custodian:   recycling.Identity(cfg.Custodian),
		Store:       db.LedgerRepository(),
		DedupWindow: cfg.Window(),
		Tracer:      provider.Tracer(),
	})

	if err := restoreState(svc, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &runtime{Service: svc, db: db, provider: provider}, nil
}

// restoreState rehydrates the registry and ledger from the database and
// binds a stored collaborator to every known class.
func restoreState(svc *recycling.Service, db *sqlite.DB) error {
	repo := db.LedgerRepository()

	classes, err := repo.LoadClasses()
	if err != nil {
		return fmt.Errorf("loading classes: %w", err)
	}
	for _, cls := range classes {
		if err := svc.RestoreClass(cls); err != nil {
			return fmt.Errorf("restoring class %q: %w", cls.ClassID, err)
		}
		if err := svc.BindCollaborator(cls.ClassID, assetclass.NewStored(cls.ClassID, db.UnitRepository())); err != nil {
			return fmt.Errorf("binding class %q: %w", cls.ClassID, err)
		}
	}

	records, err := repo.LoadRecords()
	if err != nil {
		return fmt.Errorf("loading ledger: %w", err)
	}
	for _, rec := range records {
		if err := svc.RestoreRecord(rec); err != nil {
			return fmt.Errorf("restoring record %q: %w", rec.ID, err)
		}
	}

	paused, err := repo.LoadPaused()
	if err != nil {
		return fmt.Errorf("loading pause flag: %w", err)
	}
	svc.RestorePaused(paused)

	log.Debug(log.CatDB, "state restored", "classes", len(classes), "records", len(records), "paused", paused)
	return nil
}

// UnitStore returns the persistent unit-ownership store.
func (r *runtime) UnitStore() assetclass.UnitStore {
	return r.db.UnitRepository()
}

// DBPath returns the open database's path.
func (r *runtime) DBPath() string {
	return r.db.Path()
}

// Close shuts down the runtime's resources.
func (r *runtime) Close() {
	r.Service.Close()
	if err := r.provider.Shutdown(context.Background()); err != nil {
		log.ErrorErr(log.CatConfig, "tracing shutdown", err)
	}
	if err := r.db.Close(); err != nil {
		log.ErrorErr(log.CatDB, "database close", err)
	}
}
