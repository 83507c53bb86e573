/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface the tracking engine defines
  (ecotrack.Store) plus the auth.UserStore. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:                    Accounts (identity boundary)
  categories:               Seeded reference data
  eco_actions:              Per-category action catalog
  schedules:                User calendar entries
  eco_action_achievements:  Derived join rows; UNIQUE(schedule_id, eco_action_id)
  user_statistics:          Per-user savings counters
  overall_stats:            Global singleton counter row

INVARIANTS ENFORCED HERE:
  - Achievement natural key uniqueness (primary key on the pair)
  - Cascade delete of achievements with their schedule (FK ON DELETE CASCADE)
  - Both-or-neither statistics deltas (single database transaction)

AMOUNTS:
  Money and kg-CO2 are stored as TEXT and parsed into decimal.Decimal, so
  totals never pick up float error.

WAL MODE:
  SQLite is opened with WAL and foreign keys on. A sync.RWMutex serializes
  writers; with PostgreSQL the database would handle this instead.

USAGE:
  store, err := sqlite.New("./data/eco.db")   // ":memory:" for tests

SEE ALSO:
  - ecotrack/store.go: Interface definitions
  - ecotrack/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/verdant/eco-engine/auth"
	"github.com/verdant/eco-engine/ecotrack"
)

// Store implements ecotrack.Store and auth.UserStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		category_id TEXT PRIMARY KEY,
		category_name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS eco_actions (
		eco_action_id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES categories(category_id),
		content TEXT NOT NULL,
		money_saved TEXT NOT NULL,
		co2_reduction TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_eco_actions_category
		ON eco_actions(category_id);

	CREATE TABLE IF NOT EXISTS schedules (
		schedule_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		title TEXT,
		description TEXT,
		all_day INTEGER NOT NULL DEFAULT 0,
		start_at TEXT,
		end_at TEXT,
		category_id TEXT REFERENCES categories(category_id),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_schedules_user
		ON schedules(user_id);
	CREATE INDEX IF NOT EXISTS idx_schedules_category
		ON schedules(category_id);

	-- Derived join rows. The primary key IS the natural key; reconciliation
	-- relies on the store rejecting duplicates.
	CREATE TABLE IF NOT EXISTS eco_action_achievements (
		schedule_id TEXT NOT NULL REFERENCES schedules(schedule_id) ON DELETE CASCADE,
		eco_action_id TEXT NOT NULL REFERENCES eco_actions(eco_action_id),
		is_completed INTEGER NOT NULL DEFAULT 0,
		achieved_at TEXT NOT NULL,
		PRIMARY KEY (schedule_id, eco_action_id)
	);

	CREATE INDEX IF NOT EXISTS idx_achievements_eco_action
		ON eco_action_achievements(eco_action_id);

	CREATE TABLE IF NOT EXISTS user_statistics (
		user_id TEXT PRIMARY KEY,
		total_money_saved TEXT NOT NULL,
		total_co2_reduction TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS overall_stats (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_money_saved TEXT NOT NULL,
		total_co2_reduction TEXT NOT NULL,
		calculated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USER STORE (auth.UserStore interface)
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			password_hash = excluded.password_hash
	`, u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?", email))
}

func (s *Store) GetUser(ctx context.Context, id ecotrack.UserID) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?", id))
}

func (s *Store) scanUser(row *sql.Row) (*auth.User, error) {
	var u auth.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// =============================================================================
// CATEGORY STORE (ecotrack.CategoryStore interface)
// =============================================================================

func (s *Store) GetCategory(ctx context.Context, id ecotrack.CategoryID) (*ecotrack.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c ecotrack.Category
	err := s.db.QueryRowContext(ctx,
		"SELECT category_id, category_name FROM categories WHERE category_id = ?", id,
	).Scan(&c.ID, &c.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]ecotrack.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT category_id, category_name FROM categories ORDER BY category_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []ecotrack.Category
	for rows.Next() {
		var c ecotrack.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SaveCategory upserts by name so re-running the seed is harmless.
func (s *Store) SaveCategory(ctx context.Context, c ecotrack.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (category_id, category_name)
		VALUES (?, ?)
		ON CONFLICT(category_name) DO NOTHING
	`, c.ID, c.Name)
	return err
}

// =============================================================================
// ECO-ACTION STORE (ecotrack.EcoActionStore interface)
// =============================================================================

func (s *Store) GetEcoAction(ctx context.Context, id ecotrack.EcoActionID) (*ecotrack.EcoAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	actions, err := s.queryEcoActions(ctx,
		"SELECT eco_action_id, category_id, content, money_saved, co2_reduction FROM eco_actions WHERE eco_action_id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, ecotrack.ErrEcoActionNotFound
	}
	return &actions[0], nil
}

func (s *Store) ListEcoActions(ctx context.Context) ([]ecotrack.EcoAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEcoActions(ctx,
		"SELECT eco_action_id, category_id, content, money_saved, co2_reduction FROM eco_actions ORDER BY eco_action_id")
}

func (s *Store) ListEcoActionsByCategory(ctx context.Context, categoryID ecotrack.CategoryID) ([]ecotrack.EcoAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEcoActions(ctx,
		"SELECT eco_action_id, category_id, content, money_saved, co2_reduction FROM eco_actions WHERE category_id = ? ORDER BY eco_action_id",
		categoryID)
}

func (s *Store) queryEcoActions(ctx context.Context, query string, args ...any) ([]ecotrack.EcoAction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []ecotrack.EcoAction
	for rows.Next() {
		var a ecotrack.EcoAction
		var money, co2 string
		if err := rows.Scan(&a.ID, &a.CategoryID, &a.Content, &money, &co2); err != nil {
			return nil, err
		}
		a.Savings = ecotrack.Savings{
			Money: ecotrack.MustParseDecimal(money),
			CO2:   ecotrack.MustParseDecimal(co2),
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (s *Store) SaveEcoAction(ctx context.Context, a ecotrack.EcoAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO eco_actions (eco_action_id, category_id, content, money_saved, co2_reduction)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(eco_action_id) DO UPDATE SET
			category_id = excluded.category_id,
			content = excluded.content,
			money_saved = excluded.money_saved,
			co2_reduction = excluded.co2_reduction
	`, a.ID, a.CategoryID, a.Content, a.Savings.Money.String(), a.Savings.CO2.String())
	return err
}

// =============================================================================
// SCHEDULE STORE (ecotrack.ScheduleStore interface)
// =============================================================================

const scheduleColumns = `schedule_id, user_id, title, description, all_day, start_at, end_at, category_id, created_at, updated_at`

func (s *Store) GetSchedule(ctx context.Context, id ecotrack.ScheduleID) (*ecotrack.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules, err := s.querySchedules(ctx,
		"SELECT "+scheduleColumns+" FROM schedules WHERE schedule_id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, ecotrack.ErrScheduleNotFound
	}
	return &schedules[0], nil
}

func (s *Store) ListSchedulesByUser(ctx context.Context, userID ecotrack.UserID) ([]ecotrack.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySchedules(ctx,
		"SELECT "+scheduleColumns+" FROM schedules WHERE user_id = ? ORDER BY start_at ASC, created_at ASC", userID)
}

func (s *Store) ListScheduleIDs(ctx context.Context) ([]ecotrack.ScheduleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT schedule_id FROM schedules ORDER BY schedule_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []ecotrack.ScheduleID
	for rows.Next() {
		var id ecotrack.ScheduleID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) querySchedules(ctx context.Context, query string, args ...any) ([]ecotrack.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []ecotrack.Schedule
	for rows.Next() {
		var (
			sched              ecotrack.Schedule
			startAt, endAt     sql.NullString
			categoryID         sql.NullString
			createdAt, updated string
		)
		if err := rows.Scan(&sched.ID, &sched.UserID, &sched.Title, &sched.Description,
			&sched.AllDay, &startAt, &endAt, &categoryID, &createdAt, &updated); err != nil {
			return nil, err
		}
		if startAt.Valid {
			sched.Start, _ = time.Parse(time.RFC3339, startAt.String)
		}
		if endAt.Valid {
			sched.End, _ = time.Parse(time.RFC3339, endAt.String)
		}
		if categoryID.Valid {
			cid := ecotrack.CategoryID(categoryID.String)
			sched.CategoryID = &cid
		}
		sched.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sched.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		schedules = append(schedules, sched)
	}
	return schedules, rows.Err()
}

func (s *Store) SaveSchedule(ctx context.Context, sched ecotrack.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var categoryID *string
	if sched.CategoryID != nil {
		cid := string(*sched.CategoryID)
		categoryID = &cid
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(schedule_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			all_day = excluded.all_day,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			category_id = excluded.category_id,
			updated_at = excluded.updated_at
	`,
		sched.ID, sched.UserID, sched.Title, sched.Description, sched.AllDay,
		nullTime(sched.Start), nullTime(sched.End), categoryID,
		sched.CreatedAt.Format(time.RFC3339), sched.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

// DeleteSchedule removes the schedule row; the achievement cascade is the
// foreign key's job.
func (s *Store) DeleteSchedule(ctx context.Context, id ecotrack.ScheduleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM schedules WHERE schedule_id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ecotrack.ErrScheduleNotFound
	}
	return nil
}

// =============================================================================
// ACHIEVEMENT STORE (ecotrack.AchievementStore interface)
// =============================================================================

func (s *Store) CreateAchievement(ctx context.Context, a ecotrack.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO eco_action_achievements (schedule_id, eco_action_id, is_completed, achieved_at)
		VALUES (?, ?, ?, ?)
	`, a.ScheduleID, a.EcoActionID, a.IsCompleted, a.AchievedAt.Format(time.RFC3339))

	if err != nil {
		if isUniqueConstraintError(err) {
			return ecotrack.ErrDuplicateAchievement
		}
		return fmt.Errorf("failed to create achievement: %w", err)
	}
	return nil
}

func (s *Store) FindAchievement(ctx context.Context, scheduleID ecotrack.ScheduleID, ecoActionID ecotrack.EcoActionID) (*ecotrack.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findAchievement(ctx, scheduleID, ecoActionID)
}

func (s *Store) findAchievement(ctx context.Context, scheduleID ecotrack.ScheduleID, ecoActionID ecotrack.EcoActionID) (*ecotrack.Achievement, error) {
	var a ecotrack.Achievement
	var achievedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT schedule_id, eco_action_id, is_completed, achieved_at
		FROM eco_action_achievements
		WHERE schedule_id = ? AND eco_action_id = ?
	`, scheduleID, ecoActionID).Scan(&a.ScheduleID, &a.EcoActionID, &a.IsCompleted, &achievedAt)

	if err == sql.ErrNoRows {
		return nil, ecotrack.ErrAchievementNotFound
	}
	if err != nil {
		return nil, err
	}
	a.AchievedAt, _ = time.Parse(time.RFC3339, achievedAt)
	return &a, nil
}

func (s *Store) ListAchievementsBySchedule(ctx context.Context, scheduleID ecotrack.ScheduleID) ([]ecotrack.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT schedule_id, eco_action_id, is_completed, achieved_at
		FROM eco_action_achievements
		WHERE schedule_id = ?
		ORDER BY eco_action_id
	`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []ecotrack.Achievement
	for rows.Next() {
		var a ecotrack.Achievement
		var achievedAt string
		if err := rows.Scan(&a.ScheduleID, &a.EcoActionID, &a.IsCompleted, &achievedAt); err != nil {
			return nil, err
		}
		a.AchievedAt, _ = time.Parse(time.RFC3339, achievedAt)
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

func (s *Store) DeleteAchievement(ctx context.Context, scheduleID ecotrack.ScheduleID, ecoActionID ecotrack.EcoActionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Idempotent: deleting an absent pair is fine.
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM eco_action_achievements WHERE schedule_id = ? AND eco_action_id = ?",
		scheduleID, ecoActionID)
	return err
}

func (s *Store) SetAchievementCompleted(ctx context.Context, scheduleID ecotrack.ScheduleID, ecoActionID ecotrack.EcoActionID, completed bool, at time.Time) (*ecotrack.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE eco_action_achievements
		SET is_completed = ?, achieved_at = ?
		WHERE schedule_id = ? AND eco_action_id = ?
	`, completed, at.Format(time.RFC3339), scheduleID, ecoActionID)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ecotrack.ErrAchievementNotFound
	}

	return s.findAchievement(ctx, scheduleID, ecoActionID)
}

// =============================================================================
// STATISTICS STORE (ecotrack.StatsStore interface)
// =============================================================================

func (s *Store) EnsureUserStats(ctx context.Context, userID ecotrack.UserID) (*ecotrack.UserStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Upsert-safe: concurrent creates collapse into the existing row.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_statistics (user_id, total_money_saved, total_co2_reduction)
		VALUES (?, '0', '0')
		ON CONFLICT(user_id) DO NOTHING
	`, userID)
	if err != nil {
		return nil, err
	}

	return s.readUserStats(ctx, s.db, userID)
}

func (s *Store) GetUserStats(ctx context.Context, userID ecotrack.UserID) (*ecotrack.UserStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, err := s.readUserStats(ctx, s.db, userID)
	if err == sql.ErrNoRows {
		return nil, ecotrack.ErrUserNotFound
	}
	return stats, err
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) readUserStats(ctx context.Context, db queryRower, userID ecotrack.UserID) (*ecotrack.UserStatistics, error) {
	var money, co2 string
	err := db.QueryRowContext(ctx,
		"SELECT total_money_saved, total_co2_reduction FROM user_statistics WHERE user_id = ?",
		userID,
	).Scan(&money, &co2)
	if err != nil {
		return nil, err
	}
	return &ecotrack.UserStatistics{
		UserID: userID,
		Totals: ecotrack.Savings{Money: ecotrack.MustParseDecimal(money), CO2: ecotrack.MustParseDecimal(co2)},
	}, nil
}

// ApplyStatsDelta moves the user and global counters inside one database
// transaction: a failure on either row rolls back both.
func (s *Store) ApplyStatsDelta(ctx context.Context, userID ecotrack.UserID, delta ecotrack.Savings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_statistics (user_id, total_money_saved, total_co2_reduction)
		VALUES (?, '0', '0')
		ON CONFLICT(user_id) DO NOTHING
	`, userID); err != nil {
		return err
	}

	userStats, err := s.readUserStats(ctx, tx, userID)
	if err != nil {
		return err
	}
	next := userStats.Totals.Add(delta)
	if _, err := tx.ExecContext(ctx, `
		UPDATE user_statistics SET total_money_saved = ?, total_co2_reduction = ? WHERE user_id = ?
	`, next.Money.String(), next.CO2.String(), userID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO overall_stats (id, total_money_saved, total_co2_reduction, calculated_at)
		VALUES (1, '0', '0', ?)
		ON CONFLICT(id) DO NOTHING
	`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	var money, co2 string
	if err := tx.QueryRowContext(ctx,
		"SELECT total_money_saved, total_co2_reduction FROM overall_stats WHERE id = 1",
	).Scan(&money, &co2); err != nil {
		return err
	}
	overall := ecotrack.Savings{
		Money: ecotrack.MustParseDecimal(money),
		CO2:   ecotrack.MustParseDecimal(co2),
	}.Add(delta)

	if _, err := tx.ExecContext(ctx, `
		UPDATE overall_stats SET total_money_saved = ?, total_co2_reduction = ?, calculated_at = ? WHERE id = 1
	`, overall.Money.String(), overall.CO2.String(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) GetOverallStats(ctx context.Context) (*ecotrack.OverallStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var money, co2, calculatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT total_money_saved, total_co2_reduction, calculated_at FROM overall_stats WHERE id = 1",
	).Scan(&money, &co2, &calculatedAt)

	if err == sql.ErrNoRows {
		// No deltas recorded yet.
		return &ecotrack.OverallStatistics{}, nil
	}
	if err != nil {
		return nil, err
	}

	stats := &ecotrack.OverallStatistics{
		Totals: ecotrack.Savings{Money: ecotrack.MustParseDecimal(money), CO2: ecotrack.MustParseDecimal(co2)},
	}
	stats.CalculatedAt, _ = time.Parse(time.RFC3339, calculatedAt)
	return stats, nil
}

// ComputeUserSavings is the audit read: it sums completed achievements via
// the Schedule -> Achievement -> EcoAction join. Decimal strings are summed
// in Go to keep precision.
func (s *Store) ComputeUserSavings(ctx context.Context, userID ecotrack.UserID) (ecotrack.Savings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.money_saved, e.co2_reduction
		FROM eco_action_achievements a
		JOIN schedules s ON s.schedule_id = a.schedule_id
		JOIN eco_actions e ON e.eco_action_id = a.eco_action_id
		WHERE s.user_id = ? AND a.is_completed = 1
	`, userID)
	if err != nil {
		return ecotrack.Savings{}, err
	}
	defer rows.Close()

	var total ecotrack.Savings
	for rows.Next() {
		var money, co2 string
		if err := rows.Scan(&money, &co2); err != nil {
			return ecotrack.Savings{}, err
		}
		total = total.Add(ecotrack.Savings{
			Money: ecotrack.MustParseDecimal(money),
			CO2:   ecotrack.MustParseDecimal(co2),
		})
	}
	return total, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"eco_action_achievements", "schedules", "eco_actions", "categories", "user_statistics", "overall_stats", "users"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
