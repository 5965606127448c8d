// =============================================================================
// Lab Discrepancy Reconciler - Store Tests
// =============================================================================

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/config"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/logging"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
)

const testAuditID = "13F6B7B1-A934-4019-B97C-2FBC493CFDF3"

// =============================================================================
// FAKE DRIVER
// =============================================================================
// The transactor is exercised against an in-package fake database/sql driver
// wired in through sql.OpenDB, so every statement, commit, and rollback the
// pool issues is observable.

type execRecord struct {
	query string
	args  []driver.NamedValue
}

type fakeConn struct {
	// affected maps a workorder ID to the row count its statement reports.
	affected map[int64]int64

	// failOn makes the statement for this workorder return an error.
	failOn int64

	// rowsAffectedErr makes every result fail its RowsAffected call.
	rowsAffectedErr error

	// commitErr makes the transaction commit fail.
	commitErr error

	begins    int
	commits   int
	rollbacks int
	execs     []execRecord
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported by fake")
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	c.begins++
	return &fakeTx{conn: c}, nil
}

func (c *fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.execs = append(c.execs, execRecord{query: query, args: args})

	workorder := workorderArg(args)
	if c.failOn != 0 && workorder == c.failOn {
		return nil, errors.New("constraint violation")
	}
	return fakeResult{rows: c.affected[workorder], err: c.rowsAffectedErr}, nil
}

type fakeTx struct{ conn *fakeConn }

func (t *fakeTx) Commit() error {
	if t.conn.commitErr != nil {
		return t.conn.commitErr
	}
	t.conn.commits++
	return nil
}

func (t *fakeTx) Rollback() error {
	t.conn.rollbacks++
	return nil
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

type fakeConnector struct{ conn *fakeConn }

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c fakeConnector) Driver() driver.Driver                        { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open through the connector")
}

// workorderArg pulls the workorder out of either arg style: named for
// sqlserver, third ordinal for postgres.
func workorderArg(args []driver.NamedValue) int64 {
	for _, a := range args {
		if a.Name == "workorderid" {
			v, _ := a.Value.(int64)
			return v
		}
	}
	for _, a := range args {
		if a.Name == "" && a.Ordinal == 3 {
			v, _ := a.Value.(int64)
			return v
		}
	}
	return 0
}

func namedArg(t *testing.T, args []driver.NamedValue, name string) driver.Value {
	t.Helper()
	for _, a := range args {
		if a.Name == name {
			return a.Value
		}
	}
	t.Fatalf("argument %q not found", name)
	return nil
}

func newFakeStore(t *testing.T, conn *fakeConn, driverName string) *Store {
	t.Helper()
	db := sql.OpenDB(fakeConnector{conn: conn})
	t.Cleanup(func() { _ = db.Close() })
	return newStore(db, driverName, testAuditID, logging.Nop)
}

// =============================================================================
// APPLY UPDATES
// =============================================================================

func TestApplyUpdatesEmptyIsNoOp(t *testing.T) {
	conn := &fakeConn{}
	s := newFakeStore(t, conn, DriverSQLServer)

	confirmed, err := s.ApplyUpdates(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, confirmed)
	assert.Equal(t, 0, conn.begins, "empty input must not open a transaction")
}

func TestApplyUpdatesConfirmsAffectedRows(t *testing.T) {
	conn := &fakeConn{affected: map[int64]int64{100: 1, 101: 2}}
	s := newFakeStore(t, conn, DriverSQLServer)

	confirmed, err := s.ApplyUpdates(context.Background(), []types.UpdatePair{
		{Workorder: 100, LabCount: 5},
		{Workorder: 101, LabCount: 7},
	})

	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{100: true, 101: true}, confirmed)
	assert.Equal(t, 1, conn.begins)
	assert.Equal(t, 1, conn.commits)
	assert.Equal(t, 0, conn.rollbacks)
	require.Len(t, conn.execs, 2)

	first := conn.execs[0]
	assert.Contains(t, first.query, "GETDATE()")
	assert.Equal(t, int64(5), namedArg(t, first.args, "value"))
	assert.Equal(t, testAuditID, namedArg(t, first.args, "updatedby"))
	assert.Equal(t, int64(100), namedArg(t, first.args, "workorderid"))
	assert.Equal(t, int64(bagCountColumnID), namedArg(t, first.args, "columnid"))
}

func TestApplyUpdatesZeroAffectedIsUnconfirmed(t *testing.T) {
	conn := &fakeConn{affected: map[int64]int64{100: 1}} // 101 matches nothing
	s := newFakeStore(t, conn, DriverSQLServer)

	confirmed, err := s.ApplyUpdates(context.Background(), []types.UpdatePair{
		{Workorder: 100, LabCount: 5},
		{Workorder: 101, LabCount: 7},
	})

	require.NoError(t, err)
	assert.True(t, confirmed[100])
	assert.False(t, confirmed[101], "zero affected rows must stay unconfirmed")
	assert.Equal(t, 1, conn.commits, "an unmatched workorder is not an error")
}

func TestApplyUpdatesStatementErrorRollsBackEverything(t *testing.T) {
	conn := &fakeConn{
		affected: map[int64]int64{100: 1, 101: 1, 102: 1},
		failOn:   101,
	}
	s := newFakeStore(t, conn, DriverSQLServer)

	confirmed, err := s.ApplyUpdates(context.Background(), []types.UpdatePair{
		{Workorder: 100, LabCount: 5},
		{Workorder: 101, LabCount: 7},
		{Workorder: 102, LabCount: 9},
	})

	require.Error(t, err)
	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, int64(101), txErr.Workorder)
	assert.Equal(t, "update", txErr.Stage)

	assert.Nil(t, confirmed, "nothing is confirmed after a rollback")
	assert.Equal(t, 0, conn.commits)
	assert.Equal(t, 1, conn.rollbacks)
	assert.Len(t, conn.execs, 2, "no statement after the failing one is issued")
}

func TestApplyUpdatesRowsAffectedError(t *testing.T) {
	conn := &fakeConn{
		affected:        map[int64]int64{100: 1},
		rowsAffectedErr: errors.New("driver cannot count"),
	}
	s := newFakeStore(t, conn, DriverSQLServer)

	confirmed, err := s.ApplyUpdates(context.Background(), []types.UpdatePair{{Workorder: 100, LabCount: 5}})

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "rows-affected", txErr.Stage)
	assert.Nil(t, confirmed)
}

func TestApplyUpdatesCommitError(t *testing.T) {
	conn := &fakeConn{
		affected:  map[int64]int64{100: 1},
		commitErr: errors.New("connection lost"),
	}
	s := newFakeStore(t, conn, DriverSQLServer)

	confirmed, err := s.ApplyUpdates(context.Background(), []types.UpdatePair{{Workorder: 100, LabCount: 5}})

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "commit", txErr.Stage)
	assert.Nil(t, confirmed)
}

func TestApplyUpdatesPostgresUsesOrdinalArgs(t *testing.T) {
	conn := &fakeConn{affected: map[int64]int64{100: 1}}
	s := newFakeStore(t, conn, DriverPostgres)

	confirmed, err := s.ApplyUpdates(context.Background(), []types.UpdatePair{{Workorder: 100, LabCount: 5}})

	require.NoError(t, err)
	assert.True(t, confirmed[100])
	require.Len(t, conn.execs, 1)

	exec := conn.execs[0]
	assert.Contains(t, exec.query, "NOW()")
	assert.Contains(t, exec.query, "$3")
	require.Len(t, exec.args, 4)
	assert.Equal(t, int64(5), exec.args[0].Value)
	assert.Equal(t, testAuditID, exec.args[1].Value)
	assert.Equal(t, int64(100), exec.args[2].Value)
	assert.Equal(t, int64(bagCountColumnID), exec.args[3].Value)
}

// =============================================================================
// DSN BUILDING
// =============================================================================

func TestBuildDSN(t *testing.T) {
	t.Run("sqlserver", func(t *testing.T) {
		driverName, dsn, err := BuildDSN(config.StoreConfig{
			Driver:   "sqlserver",
			Host:     "db.internal",
			Port:     1433,
			Database: "manifests",
			User:     "svc",
			Password: "p@ss word",
		})

		require.NoError(t, err)
		assert.Equal(t, DriverSQLServer, driverName)
		assert.True(t, strings.HasPrefix(dsn, "sqlserver://"))
		assert.Contains(t, dsn, "db.internal:1433")
		assert.Contains(t, dsn, "database=manifests")
		assert.Contains(t, dsn, "encrypt=disable")
		assert.Contains(t, dsn, "TrustServerCertificate=true")
		assert.Contains(t, dsn, "dial+timeout=30")
		assert.NotContains(t, dsn, "p@ss word", "credentials must be URL-escaped")
	})

	t.Run("postgres", func(t *testing.T) {
		driverName, dsn, err := BuildDSN(config.StoreConfig{
			Driver:   "postgres",
			Host:     "db.internal",
			Port:     5432,
			Database: "manifests",
			User:     "svc",
			Password: "secret",
		})

		require.NoError(t, err)
		assert.Equal(t, DriverPostgres, driverName)
		assert.True(t, strings.HasPrefix(dsn, "postgres://"))
		assert.Contains(t, dsn, "/manifests")
		assert.Contains(t, dsn, "sslmode=disable")
		assert.Contains(t, dsn, "connect_timeout=30")
	})

	t.Run("unsupported driver", func(t *testing.T) {
		_, _, err := BuildDSN(config.StoreConfig{Driver: "oracle"})
		assert.Error(t, err)
	})
}
