package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Database struct {
	db     *sql.DB
	driver string
}

// GameRow is one row of the games table
type GameRow struct {
	ID              string
	IP              string
	Win             bool
	PlayerHandTotal int
	DealerHandTotal int
	CreatedAt       time.Time
}

// GameCounts are aggregate counts over the games table
type GameCounts struct {
	Games  int
	Wins   int
	Losses int
}

// Open connects to a SQLite file or a Postgres server and makes sure the
// schema exists. For SQLite, dsn is a file path or ":memory:".
func Open(driver, dsn string) (*Database, error) {
	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case DriverSQLite:
		db, err = openSQLite(dsn)
	case DriverPostgres:
		db, err = sql.Open(DriverPostgres, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	if driver == DriverPostgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	d := &Database{db: db, driver: driver}
	if err := d.initTables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open(DriverSQLite, path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// one writer at a time; also keeps a ":memory:" database on a single connection
	db.SetMaxOpenConns(1)
	return db, nil
}

// initTables creates the necessary tables if they don't exist
func (d *Database) initTables(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			ip TEXT NOT NULL,
			win BOOLEAN NOT NULL,
			player_hand_total INTEGER NOT NULL,
			dealer_hand_total INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating games table: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS games_ip_idx ON games (ip)`)
	if err != nil {
		return fmt.Errorf("error creating games index: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// Driver returns the name of the SQL driver in use
func (d *Database) Driver() string {
	return d.driver
}

// InsertGame appends a finished round to the games table
func (d *Database) InsertGame(ctx context.Context, g GameRow) error {
	_, err := d.db.ExecContext(ctx, d.rebind(
		"INSERT INTO games (id, ip, win, player_hand_total, dealer_hand_total, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		g.ID, g.IP, g.Win, g.PlayerHandTotal, g.DealerHandTotal, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", g.ID, err)
	}
	return nil
}

// GetGame retrieves a game by ID. It returns nil, nil if there is no such game.
func (d *Database) GetGame(ctx context.Context, id string) (*GameRow, error) {
	var g GameRow

	err := d.db.QueryRowContext(ctx, d.rebind(
		"SELECT id, ip, win, player_hand_total, dealer_hand_total, created_at FROM games WHERE id = ?"), id,
	).Scan(&g.ID, &g.IP, &g.Win, &g.PlayerHandTotal, &g.DealerHandTotal, &g.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get game %s: %w", id, err)
	}

	return &g, nil
}

// GameStats counts games, wins and losses, for one ip or for all when ip is empty
func (d *Database) GameStats(ctx context.Context, ip string) (GameCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN win THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN NOT win AND (player_hand_total > 21
				OR (dealer_hand_total <= 21 AND dealer_hand_total > player_hand_total)) THEN 1 ELSE 0 END), 0)
		FROM games`
	var args []interface{}
	if ip != "" {
		query += " WHERE ip = ?"
		args = append(args, ip)
	}

	var c GameCounts
	if err := d.db.QueryRowContext(ctx, d.rebind(query), args...).Scan(&c.Games, &c.Wins, &c.Losses); err != nil {
		return GameCounts{}, fmt.Errorf("game stats: %w", err)
	}
	return c, nil
}

// rebind rewrites ? placeholders to $n for Postgres
func (d *Database) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
