// =============================================================================
// Lab Discrepancy Reconciler - Reconciliation Transactor
// =============================================================================
//
// This module owns every database round trip of the pipeline. ApplyUpdates
// pushes all corrections for one artifact through a single transaction: one
// conditional UPDATE per workorder, one commit. A workorder counts as
// confirmed only when the store reports at least one affected row, so the
// spreadsheet is never marked against a change that did not land.
//
// Any statement failure rolls the whole transaction back and nothing is
// confirmed. Correctness over throughput: the batches are human-sized, and
// one wide transaction means the artifact can never be half-applied.
//
// =============================================================================

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/config"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
)

// bagCountColumnID is the ColumnId of the bag-count column mapping in the
// manifest schema. Every update is scoped to this column.
const bagCountColumnID = 38

// connMaxLifetime recycles pooled connections so a stale one is never reused
// across widely spaced scheduled runs.
const connMaxLifetime = 5 * time.Minute

// openTimeout bounds the liveness check performed when the pool is opened.
const openTimeout = 30 * time.Second

// updateSQLServer matches a workorder's lineage through the manifest mapping
// tables and corrects the bag-count value, stamping the audit columns.
const updateSQLServer = `
UPDATE mlcmv
   SET VALUE = @value, UpdatedOn = GETDATE(), UpdatedBy = @updatedby
  FROM IdexxService i
  JOIN manifestlocationmappings mlm ON i.manifestlocationmappingid = mlm.id
  JOIN manifestlocationcolumnmappings mlcm ON mlcm.ManifestLocationMappingId = mlm.id
  JOIN manifestlocationcolumnmappingvalue mlcmv ON mlcmv.manifestlocationcolumnmappingid = mlcm.manifestlocationcolumnmappingid
 WHERE i.workorderid = @workorderid AND mlcm.ColumnId = @columnid`

// updatePostgres is the same statement in Postgres UPDATE ... FROM form with
// ordinal parameters: $1 value, $2 audit user, $3 workorder, $4 column id.
const updatePostgres = `
UPDATE manifestlocationcolumnmappingvalue mlcmv
   SET VALUE = $1, UpdatedOn = NOW(), UpdatedBy = $2
  FROM IdexxService i
  JOIN manifestlocationmappings mlm ON i.manifestlocationmappingid = mlm.id
  JOIN manifestlocationcolumnmappings mlcm ON mlcm.ManifestLocationMappingId = mlm.id
 WHERE mlcmv.manifestlocationcolumnmappingid = mlcm.manifestlocationcolumnmappingid
   AND i.workorderid = $3
   AND mlcm.ColumnId = $4`

// =============================================================================
// STORE
// =============================================================================

// Store is the process-wide connection pool the reconciler applies
// corrections through. It is shared across artifacts within one run.
type Store struct {
	db          *sql.DB
	driver      string
	auditUserID string
	logger      zerolog.Logger
}

// Open builds the DSN for the configured driver, opens the pool, and checks
// liveness once before the first artifact is processed.
//
// PARAMETERS:
//   - ctx: Bounds the initial liveness check.
//   - cfg: The store configuration.
//   - auditUserID: The GUID stamped into UpdatedBy on every corrected row.
//   - logger: The component logger.
//
// RETURNS:
//   - A ready Store. The caller owns Close.
//   - An error if the DSN cannot be built or the database is unreachable.
func Open(ctx context.Context, cfg config.StoreConfig, auditUserID string, logger zerolog.Logger) (*Store, error) {
	driver, dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store unreachable at %s: %w", cfg.Host, err)
	}

	logger.Debug().Str("driver", driver).Str("host", cfg.Host).Str("database", cfg.Database).
		Msg("store pool opened")

	return newStore(db, driver, auditUserID, logger), nil
}

// newStore wraps an already opened pool. Tests construct stores over fake
// driver connections through this path.
func newStore(db *sql.DB, driver, auditUserID string, logger zerolog.Logger) *Store {
	return &Store{
		db:          db,
		driver:      driver,
		auditUserID: auditUserID,
		logger:      logger,
	}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// UPDATE TRANSACTION
// =============================================================================

// ApplyUpdates applies every pending correction for one artifact inside a
// single transaction and reports which workorders the store confirmed.
//
// PARAMETERS:
//   - ctx: Cancels the transaction between statements.
//   - pairs: The pending corrections in sheet row order.
//
// RETURNS:
//   - The set of workorder IDs with at least one affected row. A workorder
//     the store did not match is logged as a warning and simply absent from
//     the set; it is not an error.
//   - A *TransactionError if any statement or the commit fails. The
//     transaction is rolled back and the returned set is nil: nothing was
//     applied.
func (s *Store) ApplyUpdates(ctx context.Context, pairs []types.UpdatePair) (map[int64]bool, error) {
	if len(pairs) == 0 {
		s.logger.Info().Msg("no workorders to update in the database")
		return map[int64]bool{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &TransactionError{Stage: "begin", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	confirmed := make(map[int64]bool, len(pairs))
	for _, pair := range pairs {
		s.logger.Info().Int64("workorder", pair.Workorder).Int64("value", pair.LabCount).
			Msg("executing update")

		result, err := tx.ExecContext(ctx, s.updateStatement(), s.updateArgs(pair)...)
		if err != nil {
			return nil, &TransactionError{Workorder: pair.Workorder, Stage: "update", Err: err}
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return nil, &TransactionError{Workorder: pair.Workorder, Stage: "rows-affected", Err: err}
		}

		if affected > 0 {
			s.logger.Info().Int64("workorder", pair.Workorder).Int64("rows", affected).
				Msg("rows updated")
			confirmed[pair.Workorder] = true
		} else {
			s.logger.Warn().Int64("workorder", pair.Workorder).
				Msg("no rows updated; check if the workorder exists")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &TransactionError{Stage: "commit", Err: err}
	}
	committed = true

	return confirmed, nil
}

// updateStatement returns the conditional UPDATE for the active driver.
func (s *Store) updateStatement() string {
	if s.driver == DriverPostgres {
		return updatePostgres
	}
	return updateSQLServer
}

// updateArgs returns the statement arguments in the form the active driver
// expects: named for sqlserver, ordinal for postgres.
func (s *Store) updateArgs(pair types.UpdatePair) []interface{} {
	if s.driver == DriverPostgres {
		return []interface{}{pair.LabCount, s.auditUserID, pair.Workorder, bagCountColumnID}
	}
	return []interface{}{
		sql.Named("value", pair.LabCount),
		sql.Named("updatedby", s.auditUserID),
		sql.Named("workorderid", pair.Workorder),
		sql.Named("columnid", bagCountColumnID),
	}
}
