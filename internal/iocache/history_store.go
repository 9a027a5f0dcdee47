package iocache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/huangsam/popilot/internal/contract"
	"github.com/huangsam/popilot/schema"
)

// Table names for velocity history.
const (
	snapshotsTable  = "popilot_velocity_snapshots"
	migrationsTable = "schema_migrations"
)

// HistoryStoreImpl keeps one row per sprint and velocity run.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}
	if _, err := db.Exec(getCreateSnapshotsQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", snapshotsTable, err)
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// getCreateSnapshotsQuery returns the CREATE TABLE query for popilot_velocity_snapshots.
// It matches the first embedded migration.
func getCreateSnapshotsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(snapshotsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				snapshot_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				recorded_at DATETIME(6) NOT NULL,
				project VARCHAR(255) NOT NULL,
				team VARCHAR(255) NOT NULL,
				sprint_path VARCHAR(512) NOT NULL,
				sprint_start DATETIME(6) NOT NULL,
				sprint_end DATETIME(6) NOT NULL,
				items INT NOT NULL,
				stories INT NOT NULL,
				bugs INT NOT NULL,
				story_points INT NOT NULL,
				goal_reached BOOLEAN
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				snapshot_id BIGSERIAL PRIMARY KEY,
				recorded_at TIMESTAMPTZ NOT NULL,
				project TEXT NOT NULL,
				team TEXT NOT NULL,
				sprint_path TEXT NOT NULL,
				sprint_start TIMESTAMPTZ NOT NULL,
				sprint_end TIMESTAMPTZ NOT NULL,
				items INT NOT NULL,
				stories INT NOT NULL,
				bugs INT NOT NULL,
				story_points INT NOT NULL,
				goal_reached BOOLEAN
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				snapshot_id INTEGER PRIMARY KEY AUTOINCREMENT,
				recorded_at TEXT NOT NULL,
				project TEXT NOT NULL,
				team TEXT NOT NULL,
				sprint_path TEXT NOT NULL,
				sprint_start TEXT NOT NULL,
				sprint_end TEXT NOT NULL,
				items INTEGER NOT NULL,
				stories INTEGER NOT NULL,
				bugs INTEGER NOT NULL,
				story_points INTEGER NOT NULL,
				goal_reached INTEGER
			);
		`, quotedTableName)
	}
}

// RecordSnapshot stores one sprint's delivery and returns the row id.
func (hs *HistoryStoreImpl) RecordSnapshot(recordedAt time.Time, scope schema.ScopeContext, sprint schema.SprintVelocity) (int64, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return 0, nil
	}

	var goal sql.NullBool
	if sprint.GoalReached != nil {
		goal = sql.NullBool{Bool: *sprint.GoalReached, Valid: true}
	}
	args := []any{
		formatTime(recordedAt, hs.backend), scope.Project, scope.Team, sprint.Path,
		formatTime(sprint.Start, hs.backend), formatTime(sprint.End, hs.backend),
		sprint.Items, sprint.Stories, sprint.Bugs, sprint.StoryPoints, goal,
	}
	columns := `(recorded_at, project, team, sprint_path, sprint_start, sprint_end,
		items, stories, bugs, story_points, goal_reached)`
	quotedTableName := quoteTableName(snapshotsTable, hs.backend)

	var snapshotID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s %s VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING snapshot_id`,
			quotedTableName, columns)
		if err := hs.db.QueryRow(query, args...).Scan(&snapshotID); err != nil {
			return 0, fmt.Errorf("failed to insert velocity snapshot: %w", err)
		}
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s %s VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quotedTableName, columns)
		result, err := hs.db.Exec(query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert velocity snapshot: %w", err)
		}
		if snapshotID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to read snapshot id: %w", err)
		}
	}
	return snapshotID, nil
}

// ListSnapshots retrieves all snapshots ordered by id.
func (hs *HistoryStoreImpl) ListSnapshots() ([]schema.VelocitySnapshot, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT snapshot_id, recorded_at, project, team, sprint_path, sprint_start, sprint_end,
		items, stories, bugs, story_points, goal_reached FROM %s ORDER BY snapshot_id`, quoteTableName(snapshotsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query velocity snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.VelocitySnapshot
	for rows.Next() {
		var (
			s                   schema.VelocitySnapshot
			goal                sql.NullBool
			recorded, from, end = scanTime{backend: hs.backend}, scanTime{backend: hs.backend}, scanTime{backend: hs.backend}
		)
		if err := rows.Scan(&s.SnapshotID, recorded.dest(), &s.Project, &s.Team, &s.SprintPath, from.dest(), end.dest(),
			&s.Items, &s.Stories, &s.Bugs, &s.StoryPoints, &goal); err != nil {
			return nil, fmt.Errorf("failed to scan velocity snapshot: %w", err)
		}
		if s.RecordedAt, err = recorded.value(); err != nil {
			return nil, fmt.Errorf("failed to parse recorded_at: %w", err)
		}
		if s.SprintStart, err = from.value(); err != nil {
			return nil, fmt.Errorf("failed to parse sprint_start: %w", err)
		}
		if s.SprintEnd, err = end.value(); err != nil {
			return nil, fmt.Errorf("failed to parse sprint_end: %w", err)
		}
		if goal.Valid {
			s.GoalReached = &goal.Bool
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating velocity snapshots: %w", err)
	}
	return results, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(snapshotsTable, hs.backend)
	row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT sprint_path) FROM %s", quotedTableName))
	if err := row.Scan(&status.TotalSnapshots, &status.TotalSprints); err != nil {
		return status, fmt.Errorf("failed to count snapshots: %w", err)
	}
	status.TableSizes[snapshotsTable] = int64(status.TotalSnapshots)

	if status.TotalSnapshots > 0 {
		recordedAt := func(order string) (time.Time, error) {
			st := scanTime{backend: hs.backend}
			query := fmt.Sprintf("SELECT recorded_at FROM %s ORDER BY snapshot_id %s LIMIT 1", quotedTableName, order)
			if err := hs.db.QueryRow(query).Scan(st.dest()); err != nil {
				return time.Time{}, err
			}
			return st.value()
		}
		var err error
		if status.LastRecorded, err = recordedAt("DESC"); err != nil {
			return status, fmt.Errorf("failed to get last snapshot time: %w", err)
		}
		if status.OldestRecorded, err = recordedAt("ASC"); err != nil {
			return status, fmt.Errorf("failed to get oldest snapshot time: %w", err)
		}
	}

	// The migrations table only exists once `history migrate` ran.
	row = hs.db.QueryRow(fmt.Sprintf("SELECT version, dirty FROM %s LIMIT 1", quoteTableName(migrationsTable, hs.backend)))
	var version int64
	if err := row.Scan(&version, &status.Dirty); err == nil && version > 0 {
		status.SchemaVersion = uint(version)
	}
	return status, nil
}
