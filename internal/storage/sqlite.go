// Package storage persists the wardrobe, the user profile, and served
// recommendations in a single SQLite database.
package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kalambet/attire/internal/catalog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for garments, profile keys,
// and recommendations.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "attire.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for callers that need raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Garments ---

const garmentColumns = `id, category, subcategory, color_primary, color_secondary, pattern,
	material, sleeve_length, length, style_aesthetic, fit_silhouette, description, embedding`

// SaveGarments inserts or replaces garments in a single transaction.
func (s *Store) SaveGarments(garments []catalog.Garment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning garment transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO garments (` + garmentColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing garment insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, g := range garments {
		var blob []byte
		if g.HasEmbedding() {
			blob = catalog.EncodeEmbedding(g.Embedding)
		}
		if _, err := stmt.Exec(
			g.ID, string(g.Category), g.Subcategory, g.ColorPrimary, g.ColorSecondary,
			g.Pattern, g.Material, g.SleeveLength, g.Length, g.StyleAesthetic,
			g.FitSilhouette, g.Description, blob, now,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting garment %s: %w", g.ID, err)
		}
	}

	return tx.Commit()
}

// ListGarments returns all garments ordered by id.
func (s *Store) ListGarments() ([]catalog.Garment, error) {
	rows, err := s.db.Query(`SELECT ` + garmentColumns + ` FROM garments ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying garments: %w", err)
	}
	defer rows.Close()

	var garments []catalog.Garment
	for rows.Next() {
		g, err := scanGarment(rows)
		if err != nil {
			return nil, err
		}
		garments = append(garments, g)
	}
	return garments, rows.Err()
}

// GetGarment returns a single garment by id.
func (s *Store) GetGarment(id string) (catalog.Garment, error) {
	row := s.db.QueryRow(`SELECT `+garmentColumns+` FROM garments WHERE id = ?`, id)
	g, err := scanGarment(row)
	if err == sql.ErrNoRows {
		return catalog.Garment{}, ErrNotFound
	}
	if err != nil {
		return catalog.Garment{}, err
	}
	return g, nil
}

// DeleteGarment removes a garment by id.
func (s *Store) DeleteGarment(id string) error {
	res, err := s.db.Exec("DELETE FROM garments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting garment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountGarments returns the number of stored garments.
func (s *Store) CountGarments() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM garments").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGarment(r rowScanner) (catalog.Garment, error) {
	var g catalog.Garment
	var category string
	var blob []byte
	if err := r.Scan(
		&g.ID, &category, &g.Subcategory, &g.ColorPrimary, &g.ColorSecondary,
		&g.Pattern, &g.Material, &g.SleeveLength, &g.Length, &g.StyleAesthetic,
		&g.FitSilhouette, &g.Description, &blob,
	); err != nil {
		return catalog.Garment{}, err
	}
	g.Category = catalog.Category(category)
	if len(blob) > 0 {
		emb, err := catalog.DecodeEmbedding(blob)
		if err != nil {
			return catalog.Garment{}, fmt.Errorf("decoding embedding for %s: %w", g.ID, err)
		}
		g.Embedding = emb
	}
	return g, nil
}

// --- Profile keys ---

// SetProfileKey stores one profile key/value pair.
func (s *Store) SetProfileKey(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO profile_keys (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetProfileKey returns one profile value, or ErrNotFound.
func (s *Store) GetProfileKey(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM profile_keys WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// GetAllProfileKeys returns the whole profile as a flat key/value map.
func (s *Store) GetAllProfileKeys() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM profile_keys")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		keys[k] = v
	}
	return keys, rows.Err()
}

// --- Recommendations ---

// SaveRecommendation persists one recommendation run.
func (s *Store) SaveRecommendation(r Recommendation) error {
	feasible := 0
	if r.Feasible {
		feasible = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO recommendations (id, created_at, context_json, result_json, feasible)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339), r.ContextJSON, r.ResultJSON, feasible,
	)
	return err
}

// GetRecommendation returns a recommendation by id.
func (s *Store) GetRecommendation(id string) (Recommendation, error) {
	var r Recommendation
	var createdAt string
	var feasible int
	err := s.db.QueryRow(`
		SELECT id, created_at, context_json, result_json, feasible
		FROM recommendations WHERE id = ?`, id,
	).Scan(&r.ID, &createdAt, &r.ContextJSON, &r.ResultJSON, &feasible)
	if err == sql.ErrNoRows {
		return Recommendation{}, ErrNotFound
	}
	if err != nil {
		return Recommendation{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Recommendation{}, fmt.Errorf("parsing created_at: %w", err)
	}
	r.CreatedAt = t
	r.Feasible = feasible != 0
	return r, nil
}

// ListRecommendations returns recommendations, newest first.
func (s *Store) ListRecommendations(limit, offset int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, created_at, context_json, result_json, feasible
		FROM recommendations ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		var r Recommendation
		var createdAt string
		var feasible int
		if err := rows.Scan(&r.ID, &createdAt, &r.ContextJSON, &r.ResultJSON, &feasible); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		r.CreatedAt = t
		r.Feasible = feasible != 0
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// DeleteRecommendation removes a recommendation by id.
func (s *Store) DeleteRecommendation(id string) error {
	res, err := s.db.Exec("DELETE FROM recommendations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting recommendation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
