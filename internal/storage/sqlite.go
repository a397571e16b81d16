package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL lets readers proceed while a batch upsert is in flight
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	schema := `
	-- Launches (cores and links embedded as JSON)
	CREATE TABLE IF NOT EXISTS launches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		details TEXT,
		upcoming INTEGER NOT NULL DEFAULT 0,
		success INTEGER,
		date_utc TEXT NOT NULL,
		date_unix INTEGER NOT NULL,
		rocket_id TEXT NOT NULL DEFAULT '',
		flight_number INTEGER NOT NULL DEFAULT 0,
		cores TEXT NOT NULL DEFAULT '[]',
		links TEXT NOT NULL DEFAULT '{}',
		updated_at INTEGER NOT NULL
	);

	-- Years that have at least one launch
	CREATE TABLE IF NOT EXISTS launch_years (
		year INTEGER PRIMARY KEY
	);

	-- Rockets (images are an opaque blob)
	CREATE TABLE IF NOT EXISTS rockets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 0,
		cost_per_launch INTEGER,
		success_rate_pct INTEGER NOT NULL DEFAULT 0,
		flickr_images TEXT NOT NULL DEFAULT '[]',
		wikipedia TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);

	-- Company (singleton)
	CREATE TABLE IF NOT EXISTS company (
		id TEXT PRIMARY KEY CHECK (id = 'company'),
		name TEXT NOT NULL,
		founder TEXT NOT NULL DEFAULT '',
		founded INTEGER NOT NULL DEFAULT 0,
		employees INTEGER NOT NULL DEFAULT 0,
		ceo TEXT NOT NULL DEFAULT '',
		valuation INTEGER NOT NULL DEFAULT 0,
		headquarters TEXT NOT NULL DEFAULT '{}',
		links TEXT NOT NULL DEFAULT '{}',
		summary TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);

	-- Cache clock
	CREATE TABLE IF NOT EXISTS cache_timestamps (
		key TEXT PRIMARY KEY,
		updated_at INTEGER NOT NULL
	);

	-- User preferences
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_launches_date_utc ON launches(date_utc);
	CREATE INDEX IF NOT EXISTS idx_launches_name ON launches(name);
	`

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("database migrations complete")
	return nil
}

// SaveLaunches upserts launches by id in one transaction
func (s *SQLiteStore) SaveLaunches(ctx context.Context, launches []Launch) error {
	if len(launches) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO launches (`+launchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			details = excluded.details,
			upcoming = excluded.upcoming,
			success = excluded.success,
			date_utc = excluded.date_utc,
			date_unix = excluded.date_unix,
			rocket_id = excluded.rocket_id,
			flight_number = excluded.flight_number,
			cores = excluded.cores,
			links = excluded.links,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing launch upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, l := range launches {
		args, err := launchArgs(l, now)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upserting launch %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// GetLaunch retrieves a launch by id
func (s *SQLiteStore) GetLaunch(ctx context.Context, id string) (*Launch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+launchColumns+` FROM launches WHERE id = ?`, id)
	l, err := scanLaunch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// ListLaunches returns every cached launch, oldest first
func (s *SQLiteStore) ListLaunches(ctx context.Context) ([]Launch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+launchColumns+` FROM launches ORDER BY date_utc ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLaunches(rows)
}

// ListLaunchPage returns one offset/limit page in the given order
func (s *SQLiteStore) ListLaunchPage(ctx context.Context, page, pageSize int, order LaunchOrder) ([]Launch, error) {
	orderBy, err := orderClause(order)
	if err != nil {
		return nil, err
	}
	offset, err := pageOffset(page, pageSize)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + launchColumns + ` FROM launches ` + orderBy + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLaunches(rows)
}

// CountLaunches counts cached launches
func (s *SQLiteStore) CountLaunches(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM launches").Scan(&count)
	return count, err
}

// DeleteLaunch deletes a launch by id
func (s *SQLiteStore) DeleteLaunch(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM launches WHERE id = ?", id)
	return err
}

// ClearLaunches deletes every cached launch
func (s *SQLiteStore) ClearLaunches(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM launches")
	return err
}

// SaveLaunchYears replaces the cached year set
func (s *SQLiteStore) SaveLaunchYears(ctx context.Context, years []int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM launch_years"); err != nil {
		return fmt.Errorf("clearing years: %w", err)
	}
	for _, y := range years {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO launch_years (year) VALUES (?)", y); err != nil {
			return fmt.Errorf("inserting year %d: %w", y, err)
		}
	}
	return tx.Commit()
}

// ListLaunchYears returns cached years, newest first
func (s *SQLiteStore) ListLaunchYears(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT year FROM launch_years ORDER BY year DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// SaveRockets upserts rockets by id in one transaction
func (s *SQLiteStore) SaveRockets(ctx context.Context, rockets []Rocket) error {
	if len(rockets) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rockets (`+rocketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			active = excluded.active,
			cost_per_launch = excluded.cost_per_launch,
			success_rate_pct = excluded.success_rate_pct,
			flickr_images = excluded.flickr_images,
			wikipedia = excluded.wikipedia,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing rocket upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, r := range rockets {
		args, err := rocketArgs(r, now)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upserting rocket %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// GetRocket retrieves a rocket by id
func (s *SQLiteStore) GetRocket(ctx context.Context, id string) (*Rocket, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rocketColumns+` FROM rockets WHERE id = ?`, id)
	r, err := scanRocket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListRockets returns every cached rocket ordered by name
func (s *SQLiteStore) ListRockets(ctx context.Context) ([]Rocket, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+rocketColumns+` FROM rockets ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRockets(rows)
}

// CountRockets counts cached rockets
func (s *SQLiteStore) CountRockets(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rockets").Scan(&count)
	return count, err
}

// DeleteRocket deletes a rocket by id
func (s *SQLiteStore) DeleteRocket(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM rockets WHERE id = ?", id)
	return err
}

// ClearRockets deletes every cached rocket
func (s *SQLiteStore) ClearRockets(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM rockets")
	return err
}

// SaveCompany replaces the singleton company row
func (s *SQLiteStore) SaveCompany(ctx context.Context, c *Company) error {
	args, err := companyArgs(c, s.now())
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM company"); err != nil {
		return fmt.Errorf("clearing company: %w", err)
	}
	query := `INSERT INTO company (id, ` + companyColumns + `) VALUES ('company', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting company: %w", err)
	}
	return tx.Commit()
}

// GetCompany retrieves the cached company
func (s *SQLiteStore) GetCompany(ctx context.Context) (*Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM company WHERE id = 'company'`)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ClearCompany deletes the cached company
func (s *SQLiteStore) ClearCompany(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM company")
	return err
}

// GetCacheTimestamp returns the last write instant for key
func (s *SQLiteStore) GetCacheTimestamp(ctx context.Context, key string) (time.Time, error) {
	var nanos int64
	err := s.db.QueryRowContext(ctx, "SELECT updated_at FROM cache_timestamps WHERE key = ?", key).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos).UTC(), nil
}

// SetCacheTimestamp records the last write instant for key
func (s *SQLiteStore) SetCacheTimestamp(ctx context.Context, key string, at time.Time) error {
	query := `
		INSERT INTO cache_timestamps (key, updated_at) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, key, at.UnixNano())
	return err
}

// DeleteCacheTimestamp removes the timestamp for key
func (s *SQLiteStore) DeleteCacheTimestamp(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache_timestamps WHERE key = ?", key)
	return err
}

// ListCacheTimestamps returns every recorded timestamp
func (s *SQLiteStore) ListCacheTimestamps(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, updated_at FROM cache_timestamps")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]time.Time)
	for rows.Next() {
		var key string
		var nanos int64
		if err := rows.Scan(&key, &nanos); err != nil {
			return nil, err
		}
		result[key] = time.Unix(0, nanos).UTC()
	}
	return result, rows.Err()
}

// GetPreference returns the stored blob for key
func (s *SQLiteStore) GetPreference(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return value, err
}

// SetPreference stores a blob under key
func (s *SQLiteStore) SetPreference(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, key, value, s.now().UnixNano())
	return err
}
