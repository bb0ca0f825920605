package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rendis/dishtap/internal/model"
)

// ErrNoRuns is returned by LatestRun on an empty database.
var ErrNoRuns = errors.New("no runs recorded")

// Run is one scan session.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    *time.Time
	OutputPath    string
	Queries       int
	Locations     int
	SheetsWritten int
	DishesKept    int
	Errors        int
}

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	// Per-connection pragmas below only hold on a single connection.
	db.SetMaxOpenConns(1)

	// Optimize for write throughput
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		output_path TEXT NOT NULL DEFAULT '',
		queries INTEGER NOT NULL DEFAULT 0,
		locations INTEGER NOT NULL DEFAULT 0,
		sheets_written INTEGER NOT NULL DEFAULT 0,
		dishes_kept INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS dishes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		query TEXT NOT NULL,
		position INTEGER NOT NULL,
		dish_name TEXT NOT NULL,
		rating TEXT,
		restaurant_name TEXT NOT NULL,
		total_ratings INTEGER,
		price REAL,
		locality TEXT,
		category TEXT,
		cost_for_two TEXT,
		description TEXT,
		area_name TEXT,
		cuisine TEXT,
		discount TEXT,
		discount_details TEXT,
		discount_type TEXT,
		source_lat TEXT,
		source_lng TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_id, query, dish_name, restaurant_name)
	);
	CREATE INDEX IF NOT EXISTS idx_dishes_run_query ON dishes(run_id, query);
	CREATE INDEX IF NOT EXISTS idx_dishes_restaurant ON dishes(restaurant_name);
	`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// StartRun records a new run and returns its id.
func (s *Store) StartRun(outputPath string, queries, locations int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, started_at, output_path, queries, locations) VALUES (?,?,?,?,?)`,
		id, time.Now().UTC(), outputPath, queries, locations,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's end time and final counters.
func (s *Store) FinishRun(id string, sheets, dishes, errCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, sheets_written = ?, dishes_kept = ?, errors = ? WHERE id = ?`,
		time.Now().UTC(), sheets, dishes, errCount, id,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// InsertBatch stores one query's kept dishes in sheet order. Rows already
// present for the same run, query and key are ignored.
func (s *Store) InsertBatch(runID string, dishes []model.Dish) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO dishes
		(run_id, query, position, dish_name, rating, restaurant_name, total_ratings, price,
		 locality, category, cost_for_two, description, area_name, cuisine,
		 discount, discount_details, discount_type, source_lat, source_lng)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing stmt: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, d := range dishes {
		res, err := stmt.Exec(
			runID, d.Query, i, d.DishName, d.Rating, d.RestaurantName, d.TotalRatings, d.Price,
			d.Locality, d.Category, d.CostForTwoMessage, d.Description, d.AreaName, d.Cuisine,
			d.DiscountHeader, d.DiscountSubHeader, d.DiscountTag, d.Source.Lat, d.Source.Lng,
		)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("inserting dish %q: %w", d.DishName, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing tx: %w", err)
	}

	return inserted, nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun() (Run, error) {
	runs, err := s.listRuns(1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNoRuns
	}
	return runs[0], nil
}

// Runs lists all runs, newest first.
func (s *Store) Runs() ([]Run, error) {
	return s.listRuns(-1)
}

func (s *Store) listRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, output_path, queries, locations,
		       sheets_written, dishes_kept, errors
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.StartedAt, &finished, &r.OutputPath, &r.Queries,
			&r.Locations, &r.SheetsWritten, &r.DishesKept, &r.Errors); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadDishes returns a run's dishes grouped by query in insertion order.
// An empty runID selects the latest run.
func (s *Store) LoadDishes(runID string) ([]model.Dish, error) {
	if runID == "" {
		latest, err := s.LatestRun()
		if err != nil {
			return nil, err
		}
		runID = latest.ID
	}

	rows, err := s.db.Query(`
		SELECT query, dish_name, rating, restaurant_name, total_ratings, price,
		       locality, category, cost_for_two, description, area_name, cuisine,
		       discount, discount_details, discount_type, source_lat, source_lng
		FROM dishes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying dishes: %w", err)
	}
	defer rows.Close()

	var dishes []model.Dish
	for rows.Next() {
		var d model.Dish
		if err := rows.Scan(&d.Query, &d.DishName, &d.Rating, &d.RestaurantName, &d.TotalRatings, &d.Price,
			&d.Locality, &d.Category, &d.CostForTwoMessage, &d.Description, &d.AreaName, &d.Cuisine,
			&d.DiscountHeader, &d.DiscountSubHeader, &d.DiscountTag, &d.Source.Lat, &d.Source.Lng); err != nil {
			return nil, fmt.Errorf("scanning dish: %w", err)
		}
		dishes = append(dishes, d)
	}
	return dishes, rows.Err()
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM dishes").Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
