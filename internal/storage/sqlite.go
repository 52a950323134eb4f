package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tazhate/workoutplanner/internal/clients/caldav"
	"github.com/tazhate/workoutplanner/internal/domain"
)

const (
	DriverName = "sqlite3"
	dateLayout = "2006-01-02"
)

var ErrNotFound = errors.New("not found")

type Storage struct {
	db *sqlx.DB
}

// New opens (creating if needed) the database at dbPath and migrates it.
// ":memory:" gives a private in-memory database.
func New(dbPath string) (*Storage, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sqlx.Open(DriverName, dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// sqlite has a single writer; one connection also keeps :memory: stable
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by the health endpoint.
func (s *Storage) Ping() error {
	return s.db.Ping()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS workouts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			workout_type TEXT NOT NULL,
			workout_description TEXT DEFAULT '',
			planned_duration REAL,
			planned_distance_meters REAL,
			originally_planned_day TEXT NOT NULL,
			coach_comments TEXT DEFAULT '',
			tss REAL,
			intensity_factor REAL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_workouts_day ON workouts(originally_planned_day)`,
		`CREATE TABLE IF NOT EXISTS workout_selections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			workout_id INTEGER NOT NULL,
			is_selected INTEGER DEFAULT 1,
			actual_date TEXT,
			time_of_day TEXT,
			user_notes TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (workout_id) REFERENCES workouts(id) ON DELETE CASCADE
		)`,
		// Custom workouts live in the workouts table
		`ALTER TABLE workouts ADD COLUMN is_custom INTEGER NOT NULL DEFAULT 0`,
		// Where the user plans to do it (indoor, outdoor, pool...)
		`ALTER TABLE workout_selections ADD COLUMN workout_location TEXT`,
		// One selection per workout: keep the newest row, then enforce it
		`DELETE FROM workout_selections WHERE id NOT IN (
			SELECT MAX(id) FROM workout_selections GROUP BY workout_id
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_workout_selections_workout ON workout_selections(workout_id)`,
		`CREATE INDEX IF NOT EXISTS idx_workout_selections_actual_date ON workout_selections(actual_date)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// Ignore "duplicate column" errors for ALTER TABLE
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("exec migration: %w", err)
			}
		}
	}
	return nil
}

// === Users ===

func (s *Storage) CreateUser(u *domain.User) error {
	res, err := s.db.Exec(
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		u.Username, u.PasswordHash,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	u.ID = id
	u.CreatedAt = time.Now()
	return nil
}

func (s *Storage) GetUserByUsername(username string) (*domain.User, error) {
	u := &domain.User{}
	err := s.db.Get(u, `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (s *Storage) GetUserByID(id int64) (*domain.User, error) {
	u := &domain.User{}
	err := s.db.Get(u, `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// ListUsers returns all users
func (s *Storage) ListUsers() ([]*domain.User, error) {
	var users []*domain.User
	err := s.db.Select(&users, `SELECT id, username, password_hash, created_at FROM users ORDER BY id`)
	return users, err
}

// === Workouts ===

const workoutSelect = `
	SELECT w.id, w.title, w.workout_type,
		COALESCE(w.workout_description, '') AS workout_description,
		w.planned_duration, w.planned_distance_meters, w.originally_planned_day,
		COALESCE(w.coach_comments, '') AS coach_comments,
		w.tss, w.intensity_factor, w.is_custom, w.created_at,
		s.id AS sel_id, s.is_selected AS sel_is_selected, s.actual_date AS sel_actual_date,
		s.time_of_day AS sel_time_of_day, s.workout_location AS sel_location,
		s.user_notes AS sel_user_notes, s.updated_at AS sel_updated_at
	FROM workouts w
	LEFT JOIN workout_selections s ON s.workout_id = w.id`

func (s *Storage) CreateWorkout(w *domain.Workout) error {
	res, err := s.db.Exec(
		`INSERT INTO workouts (title, workout_type, workout_description, planned_duration, planned_distance_meters,
			originally_planned_day, coach_comments, tss, intensity_factor, is_custom)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.Title, w.WorkoutType, w.Description, w.PlannedDuration, w.PlannedDistanceMeters,
		w.OriginallyPlannedDay.Format(dateLayout), w.CoachComments, w.TSS, w.IntensityFactor, w.IsCustom,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	w.ID = id
	w.CreatedAt = time.Now()
	return nil
}

// WorkoutExists reports whether an imported workout with this title is
// already planned on day.
func (s *Storage) WorkoutExists(title string, day time.Time) (bool, error) {
	var count int
	err := s.db.Get(&count,
		`SELECT COUNT(*) FROM workouts WHERE title = ? AND originally_planned_day = ? AND is_custom = 0`,
		title, day.Format(dateLayout),
	)
	return count > 0, err
}

func (s *Storage) GetWorkout(id int64) (*domain.Workout, error) {
	var row workoutRow
	err := s.db.Get(&row, workoutSelect+` WHERE w.id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// ListWorkouts returns every workout ordered by planned day.
func (s *Storage) ListWorkouts() ([]*domain.Workout, error) {
	return s.listWorkouts(workoutSelect + ` ORDER BY w.originally_planned_day, w.id`)
}

// ListCustomWorkouts returns the user-created workouts.
func (s *Storage) ListCustomWorkouts() ([]*domain.Workout, error) {
	return s.listWorkouts(workoutSelect + ` WHERE w.is_custom = 1 ORDER BY w.originally_planned_day, w.id`)
}

// ListWorkoutsInRange returns workouts whose effective day (moved date, else
// planned day) falls within [from, to].
func (s *Storage) ListWorkoutsInRange(from, to caldav.Date) ([]*domain.Workout, error) {
	return s.listWorkouts(workoutSelect+`
		WHERE COALESCE(s.actual_date, w.originally_planned_day) BETWEEN ? AND ?
		ORDER BY COALESCE(s.actual_date, w.originally_planned_day), w.id`,
		from.String(), to.String(),
	)
}

func (s *Storage) listWorkouts(query string, args ...any) ([]*domain.Workout, error) {
	var rows []workoutRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}

	workouts := make([]*domain.Workout, 0, len(rows))
	for _, row := range rows {
		w, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, nil
}

// UpdateWorkout rewrites the editable fields of a workout.
func (s *Storage) UpdateWorkout(w *domain.Workout) error {
	res, err := s.db.Exec(
		`UPDATE workouts SET title = ?, workout_type = ?, workout_description = ?, planned_duration = ?,
			originally_planned_day = ?
		 WHERE id = ?`,
		w.Title, w.WorkoutType, w.Description, w.PlannedDuration,
		w.OriginallyPlannedDay.Format(dateLayout), w.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (s *Storage) DeleteWorkout(id int64) error {
	res, err := s.db.Exec(`DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// === Selections ===

// UpsertSelection creates or replaces the selection for sel.WorkoutID.
func (s *Storage) UpsertSelection(sel *domain.Selection) error {
	var actual *string
	if sel.ActualDate != nil {
		d := sel.ActualDate.Format(dateLayout)
		actual = &d
	}

	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO workout_selections (workout_id, is_selected, actual_date, time_of_day, workout_location, user_notes, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(workout_id) DO UPDATE SET
			is_selected = excluded.is_selected,
			actual_date = excluded.actual_date,
			time_of_day = excluded.time_of_day,
			workout_location = excluded.workout_location,
			user_notes = excluded.user_notes,
			updated_at = excluded.updated_at`,
		sel.WorkoutID, sel.IsSelected, actual, sel.TimeOfDay, sel.Location, sel.UserNotes, now,
	)
	if err != nil {
		return err
	}

	if err := s.db.Get(&sel.ID, `SELECT id FROM workout_selections WHERE workout_id = ?`, sel.WorkoutID); err != nil {
		return err
	}
	sel.UpdatedAt = now
	return nil
}

// DeleteSelection resets a workout to its default (selected, not moved).
func (s *Storage) DeleteSelection(workoutID int64) error {
	res, err := s.db.Exec(`DELETE FROM workout_selections WHERE workout_id = ?`, workoutID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// DedupeSelections keeps only the newest selection per workout and returns
// how many rows were removed.
func (s *Storage) DedupeSelections() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM workout_selections WHERE id NOT IN (
		SELECT MAX(id) FROM workout_selections GROUP BY workout_id
	)`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// === Stats ===

func (s *Storage) Stats() (*domain.WorkoutStats, error) {
	workouts, err := s.ListWorkouts()
	if err != nil {
		return nil, err
	}

	stats := &domain.WorkoutStats{ByType: make(map[string]int)}
	for _, w := range workouts {
		stats.TotalWorkouts++
		stats.ByType[w.WorkoutType]++
		if w.IsCustom {
			stats.CustomWorkouts++
		}
		if !w.IsSelected() {
			stats.SkippedWorkouts++
			continue
		}
		// only workouts the user explicitly picked count as selected
		if w.Selection != nil {
			stats.SelectedWorkouts++
		}
		if w.EffectiveDay() != w.PlannedDay() {
			stats.MovedWorkouts++
		}
		if w.PlannedDuration != nil {
			stats.PlannedHours += *w.PlannedDuration
		}
	}
	return stats, nil
}

// Counts returns row counts per table, for diagnostics.
func (s *Storage) Counts() (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{"users", "workouts", "workout_selections"} {
		var n int
		if err := s.db.Get(&n, `SELECT COUNT(*) FROM `+table); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
