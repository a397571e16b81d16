package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS launches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		details TEXT,
		upcoming BOOLEAN NOT NULL DEFAULT FALSE,
		success BOOLEAN,
		date_utc TEXT NOT NULL,
		date_unix BIGINT NOT NULL,
		rocket_id TEXT NOT NULL DEFAULT '',
		flight_number INTEGER NOT NULL DEFAULT 0,
		cores JSONB NOT NULL DEFAULT '[]',
		links JSONB NOT NULL DEFAULT '{}',
		updated_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS launch_years (
		year INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS rockets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT FALSE,
		cost_per_launch BIGINT,
		success_rate_pct INTEGER NOT NULL DEFAULT 0,
		flickr_images JSONB NOT NULL DEFAULT '[]',
		wikipedia TEXT NOT NULL DEFAULT '',
		updated_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS company (
		id TEXT PRIMARY KEY CHECK (id = 'company'),
		name TEXT NOT NULL,
		founder TEXT NOT NULL DEFAULT '',
		founded INTEGER NOT NULL DEFAULT 0,
		employees INTEGER NOT NULL DEFAULT 0,
		ceo TEXT NOT NULL DEFAULT '',
		valuation BIGINT NOT NULL DEFAULT 0,
		headquarters JSONB NOT NULL DEFAULT '{}',
		links JSONB NOT NULL DEFAULT '{}',
		summary TEXT NOT NULL DEFAULT '',
		updated_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cache_timestamps (
		key TEXT PRIMARY KEY,
		updated_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at BIGINT NOT NULL
	);

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
func (s *PostgresStore) SaveLaunches(ctx context.Context, launches []Launch) error {
	if len(launches) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO launches (` + launchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			details = EXCLUDED.details,
			upcoming = EXCLUDED.upcoming,
			success = EXCLUDED.success,
			date_utc = EXCLUDED.date_utc,
			date_unix = EXCLUDED.date_unix,
			rocket_id = EXCLUDED.rocket_id,
			flight_number = EXCLUDED.flight_number,
			cores = EXCLUDED.cores,
			links = EXCLUDED.links,
			updated_at = EXCLUDED.updated_at
	`

	now := s.now()
	for _, l := range launches {
		args, err := launchArgs(l, now)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upserting launch %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// GetLaunch retrieves a launch by id
func (s *PostgresStore) GetLaunch(ctx context.Context, id string) (*Launch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+launchColumns+` FROM launches WHERE id = $1`, id)
	l, err := scanLaunch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// ListLaunches returns every cached launch, oldest first
func (s *PostgresStore) ListLaunches(ctx context.Context) ([]Launch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+launchColumns+` FROM launches ORDER BY date_utc ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLaunches(rows)
}

// ListLaunchPage returns one offset/limit page in the given order
func (s *PostgresStore) ListLaunchPage(ctx context.Context, page, pageSize int, order LaunchOrder) ([]Launch, error) {
	orderBy, err := orderClause(order)
	if err != nil {
		return nil, err
	}
	offset, err := pageOffset(page, pageSize)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + launchColumns + ` FROM launches ` + orderBy + ` LIMIT $1 OFFSET $2`
	rows, err := s.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLaunches(rows)
}

// CountLaunches counts cached launches
func (s *PostgresStore) CountLaunches(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM launches").Scan(&count)
	return count, err
}

// DeleteLaunch deletes a launch by id
func (s *PostgresStore) DeleteLaunch(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM launches WHERE id = $1", id)
	return err
}

// ClearLaunches deletes every cached launch
func (s *PostgresStore) ClearLaunches(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM launches")
	return err
}

// SaveLaunchYears replaces the cached year set
func (s *PostgresStore) SaveLaunchYears(ctx context.Context, years []int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM launch_years"); err != nil {
		return fmt.Errorf("clearing years: %w", err)
	}
	for _, y := range years {
		if _, err := tx.ExecContext(ctx, "INSERT INTO launch_years (year) VALUES ($1) ON CONFLICT DO NOTHING", y); err != nil {
			return fmt.Errorf("inserting year %d: %w", y, err)
		}
	}
	return tx.Commit()
}

// ListLaunchYears returns cached years, newest first
func (s *PostgresStore) ListLaunchYears(ctx context.Context) ([]int, error) {
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
func (s *PostgresStore) SaveRockets(ctx context.Context, rockets []Rocket) error {
	if len(rockets) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO rockets (` + rocketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			active = EXCLUDED.active,
			cost_per_launch = EXCLUDED.cost_per_launch,
			success_rate_pct = EXCLUDED.success_rate_pct,
			flickr_images = EXCLUDED.flickr_images,
			wikipedia = EXCLUDED.wikipedia,
			updated_at = EXCLUDED.updated_at
	`

	now := s.now()
	for _, r := range rockets {
		args, err := rocketArgs(r, now)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upserting rocket %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// GetRocket retrieves a rocket by id
func (s *PostgresStore) GetRocket(ctx context.Context, id string) (*Rocket, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rocketColumns+` FROM rockets WHERE id = $1`, id)
	r, err := scanRocket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListRockets returns every cached rocket ordered by name
func (s *PostgresStore) ListRockets(ctx context.Context) ([]Rocket, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+rocketColumns+` FROM rockets ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRockets(rows)
}

// CountRockets counts cached rockets
func (s *PostgresStore) CountRockets(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rockets").Scan(&count)
	return count, err
}

// DeleteRocket deletes a rocket by id
func (s *PostgresStore) DeleteRocket(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM rockets WHERE id = $1", id)
	return err
}

// ClearRockets deletes every cached rocket
func (s *PostgresStore) ClearRockets(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM rockets")
	return err
}

// SaveCompany replaces the singleton company row
func (s *PostgresStore) SaveCompany(ctx context.Context, c *Company) error {
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
	query := `INSERT INTO company (id, ` + companyColumns + `) VALUES ('company', $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting company: %w", err)
	}
	return tx.Commit()
}

// GetCompany retrieves the cached company
func (s *PostgresStore) GetCompany(ctx context.Context) (*Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM company WHERE id = 'company'`)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ClearCompany deletes the cached company
func (s *PostgresStore) ClearCompany(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM company")
	return err
}

// GetCacheTimestamp returns the last write instant for key
func (s *PostgresStore) GetCacheTimestamp(ctx context.Context, key string) (time.Time, error) {
	var nanos int64
	err := s.db.QueryRowContext(ctx, "SELECT updated_at FROM cache_timestamps WHERE key = $1", key).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, nanos).UTC(), nil
}

// SetCacheTimestamp records the last write instant for key
func (s *PostgresStore) SetCacheTimestamp(ctx context.Context, key string, at time.Time) error {
	query := `
		INSERT INTO cache_timestamps (key, updated_at) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, key, at.UnixNano())
	return err
}

// DeleteCacheTimestamp removes the timestamp for key
func (s *PostgresStore) DeleteCacheTimestamp(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache_timestamps WHERE key = $1", key)
	return err
}

// ListCacheTimestamps returns every recorded timestamp
func (s *PostgresStore) ListCacheTimestamps(ctx context.Context) (map[string]time.Time, error) {
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
func (s *PostgresStore) GetPreference(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return value, err
}

// SetPreference stores a blob under key
func (s *PostgresStore) SetPreference(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO preferences (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, key, value, s.now().UnixNano())
	return err
}
