package postgresql

import (
	"context"
	"database/sql"
	stderrors "errors"
	"path/filepath"

	portsout "depixsync/internal/application/ports/out"
	apperrors "depixsync/internal/shared_kernel/errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

const (
	ledgerMigrationsTable = "ledger_schema_migrations"
	ledgerTable           = "app.transactions"
)

// LedgerBootstrapGateway prepares the transactions ledger on the shared pool:
// it waits for the server, applies schema migrations and confirms the ledger
// table is in place.
type LedgerBootstrapGateway struct {
	db             *sql.DB
	databaseTarget string
	migrationsPath string
	logger         *zap.Logger
}

var _ portsout.PersistenceBootstrapGateway = (*LedgerBootstrapGateway)(nil)

func NewLedgerBootstrapGateway(
	db *sql.DB,
	databaseTarget string,
	migrationsPath string,
	logger *zap.Logger,
) *LedgerBootstrapGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerBootstrapGateway{
		db:             db,
		databaseTarget: databaseTarget,
		migrationsPath: migrationsPath,
		logger:         logger.With(zap.String("database_target", databaseTarget)),
	}
}

func (g *LedgerBootstrapGateway) CheckReadiness(ctx context.Context) *apperrors.AppError {
	if g.db == nil {
		return ledgerDatabaseMissing()
	}

	var serverVersion string
	if err := g.db.QueryRowContext(ctx, `SHOW server_version`).Scan(&serverVersion); err != nil {
		g.logger.Warn("ledger database not ready", zap.Error(err))
		return apperrors.NewTransient(
			"ledger_database_unreachable",
			"transactions ledger database is unreachable",
			map[string]any{"database_target": g.databaseTarget},
		)
	}

	g.logger.Info("ledger database ready", zap.String("server_version", serverVersion))
	return nil
}

func (g *LedgerBootstrapGateway) RunMigrations(ctx context.Context) *apperrors.AppError {
	if g.db == nil {
		return ledgerDatabaseMissing()
	}

	absPath, err := filepath.Abs(g.migrationsPath)
	if err != nil {
		return apperrors.NewInternal(
			"ledger_migrations_path_invalid",
			"ledger migrations path cannot be resolved",
			map[string]any{"migrations_path": g.migrationsPath},
		)
	}

	// A dedicated connection keeps the migration lock and lets the driver
	// close it without closing the pool.
	conn, err := g.db.Conn(ctx)
	if err != nil {
		g.logger.Warn("ledger migration connection failed", zap.Error(err))
		return apperrors.NewTransient(
			"ledger_database_unreachable",
			"transactions ledger database is unreachable",
			map[string]any{"database_target": g.databaseTarget},
		)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: ledgerMigrationsTable})
	if err != nil {
		_ = conn.Close()
		g.logger.Error("ledger migration driver setup failed", zap.Error(err))
		return g.migrationError("ledger_migration_setup_failed", "ledger migration driver setup failed")
	}
	runner, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(absPath), "postgres", driver)
	if err != nil {
		_ = driver.Close()
		g.logger.Error("ledger migration source setup failed", zap.Error(err))
		return g.migrationError("ledger_migration_setup_failed", "ledger migration source setup failed")
	}
	defer func() {
		if sourceErr, dbErr := runner.Close(); sourceErr != nil || dbErr != nil {
			g.logger.Warn("ledger migration runner close failed",
				zap.NamedError("source_error", sourceErr),
				zap.NamedError("database_error", dbErr),
			)
		}
	}()

	upErr := runner.Up()
	if upErr != nil && !stderrors.Is(upErr, migrate.ErrNoChange) {
		g.logger.Error("ledger migrations failed", zap.Error(upErr))
		return g.migrationError("ledger_migration_failed", "ledger migrations failed to apply")
	}

	version, dirty, err := runner.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		g.logger.Error("ledger migration version unreadable", zap.Error(err))
		return g.migrationError("ledger_migration_failed", "ledger migration version is unreadable")
	}
	if dirty {
		appErr := g.migrationError("ledger_migration_dirty", "ledger schema is left at a dirty migration version")
		appErr.Details["version"] = version
		return appErr
	}

	if appErr := g.verifyLedgerTable(ctx); appErr != nil {
		return appErr
	}

	g.logger.Info("ledger schema ready",
		zap.Uint("version", version),
		zap.Bool("changed", upErr == nil),
	)
	return nil
}

func (g *LedgerBootstrapGateway) verifyLedgerTable(ctx context.Context) *apperrors.AppError {
	var exists bool
	if err := g.db.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, ledgerTable).Scan(&exists); err != nil {
		g.logger.Error("ledger table lookup failed", zap.Error(err))
		return g.migrationError("ledger_schema_check_failed", "ledger table lookup failed")
	}
	if !exists {
		return g.migrationError("ledger_schema_missing", "ledger table is missing after migrations")
	}
	return nil
}

func (g *LedgerBootstrapGateway) migrationError(code, message string) *apperrors.AppError {
	return apperrors.NewInternal(code, message, map[string]any{
		"database_target": g.databaseTarget,
		"migrations_path": g.migrationsPath,
		"ledger_table":    ledgerTable,
	})
}

func ledgerDatabaseMissing() *apperrors.AppError {
	return apperrors.NewInternal(
		"ledger_database_missing",
		"ledger database pool is required",
		nil,
	)
}
