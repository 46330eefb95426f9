package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/SvenDH/go-life-engine/engine"
)

var ErrNotFound = errors.New("not found")

const schema = `
	CREATE TABLE IF NOT EXISTS user (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		password TEXT
	);
	CREATE TABLE IF NOT EXISTS run (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		created INTEGER NOT NULL,
		params TEXT NOT NULL,
		generations INTEGER NOT NULL,
		steady INTEGER NOT NULL,
		steady_generation INTEGER NOT NULL,
		stats TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS population (
		run_id TEXT NOT NULL REFERENCES run(id),
		generation INTEGER NOT NULL,
		population INTEGER NOT NULL,
		PRIMARY KEY (run_id, generation)
	);
`

type Repository struct {
	Db *sql.DB
}

// Open opens (or creates) the sqlite database at path. Use ":memory:" for a
// throwaway database.
func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)
	return NewRepository(db)
}

func NewRepository(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	return &Repository{Db: db}, nil
}

func (repo *Repository) Close() error {
	return repo.Db.Close()
}

type User struct {
	Id       int64
	Name     string
	Password sql.NullString
}

func (repo *Repository) AddUser(name string) (*User, error) {
	res, err := repo.Db.Exec("INSERT INTO user(name) values(?)", name)
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	id, _ := res.LastInsertId()
	return &User{Id: id, Name: name}, nil
}

func (repo *Repository) SetPassword(user *User, password string) error {
	if err := repo.execWrap("UPDATE user SET password = ? WHERE id = ?", password, user.Id); err != nil {
		return err
	}
	user.Password = sql.NullString{String: password, Valid: true}
	return nil
}

func (repo *Repository) FindUserByName(name string) (*User, error) {
	row := repo.Db.QueryRow("SELECT id, name, password FROM user where name = ? LIMIT 1", name)
	var user User
	if err := row.Scan(&user.Id, &user.Name, &user.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	return &user, nil
}

// Run is the stored summary of a finished simulation.
type Run struct {
	Id               string        `json:"id"`
	Owner            string        `json:"owner"`
	Created          time.Time     `json:"created"`
	Params           engine.Params `json:"params"`
	Generations      int           `json:"generations"`
	SteadyState      bool          `json:"steady_state"`
	SteadyGeneration int           `json:"steady_generation,omitempty"`
	Stats            engine.Stats  `json:"stats"`
}

// SaveRun stores a result and its population trajectory under a new ulid.
func (repo *Repository) SaveRun(owner string, p engine.Params, result *engine.Result) (*Run, error) {
	run := &Run{
		Id:               ulid.Make().String(),
		Owner:            owner,
		Created:          time.Now().UTC().Truncate(time.Millisecond),
		Params:           p,
		Generations:      result.Generations,
		SteadyState:      result.SteadyState,
		SteadyGeneration: result.SteadyGeneration,
		Stats:            result.Stats,
	}
	params, err := json.Marshal(run.Params)
	if err != nil {
		return nil, err
	}
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return nil, err
	}

	tx, err := repo.Db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO run(id, owner, created, params, generations, steady, steady_generation, stats) values(?, ?, ?, ?, ?, ?, ?, ?)",
		run.Id, run.Owner, run.Created.UnixMilli(), string(params), run.Generations, run.SteadyState, run.SteadyGeneration, string(stats),
	)
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO population(run_id, generation, population) values(?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	defer stmt.Close()
	for k, n := range result.Population {
		if _, err := stmt.Exec(run.Id, k+1, n); err != nil {
			return nil, fmt.Errorf("error in db execution: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	return run, nil
}

const runColumns = "id, owner, created, params, generations, steady, steady_generation, stats"

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run     Run
		created int64
		params  string
		stats   string
	)
	err := row.Scan(&run.Id, &run.Owner, &created, &params, &run.Generations, &run.SteadyState, &run.SteadyGeneration, &stats)
	if err != nil {
		return nil, err
	}
	run.Created = time.UnixMilli(created).UTC()
	if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
		return nil, fmt.Errorf("decoding params of run %s: %w", run.Id, err)
	}
	if err := json.Unmarshal([]byte(stats), &run.Stats); err != nil {
		return nil, fmt.Errorf("decoding stats of run %s: %w", run.Id, err)
	}
	return &run, nil
}

func (repo *Repository) FindRun(id string) (*Run, error) {
	row := repo.Db.QueryRow("SELECT "+runColumns+" FROM run WHERE id = ? LIMIT 1", id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (repo *Repository) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := repo.Db.Query("SELECT "+runColumns+" FROM run ORDER BY created DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("error in db execution: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	return runs, nil
}

// Population returns the stored trajectory of a run; index k is generation k+1.
func (repo *Repository) Population(id string) ([]int, error) {
	if _, err := repo.FindRun(id); err != nil {
		return nil, err
	}
	rows, err := repo.Db.Query("SELECT population FROM population WHERE run_id = ? ORDER BY generation", id)
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	defer rows.Close()

	population := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("error in db execution: %w", err)
		}
		population = append(population, n)
	}
	return population, rows.Err()
}

func (repo *Repository) execWrap(query string, args ...any) error {
	if _, err := repo.Db.Exec(query, args...); err != nil {
		return fmt.Errorf("error in db execution: %w", err)
	}
	return nil
}
