package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists scanned file metadata and the measurement log in sqlite.
// The store is a derived cache: deleting the database file loses nothing
// the filesystem cannot rebuild.
type Store struct {
	*sql.DB
}

// OpenStore opens (creating if needed) the catalog database at path and
// brings its schema up to date.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

// FileRecord caches what header parsing learned about one .las file.
// Size and ModTime key the cache: a changed file invalidates its record.
type FileRecord struct {
	Path        string
	Size        int64
	ModTime     time.Time
	PointCount  uint64
	PointFormat uint8
	HasRGB      bool
	MinZ        float64
	MaxZ        float64
	DetectionID string
}

// UpsertFile inserts or refreshes the cached record for one file.
func (s *Store) UpsertFile(rec FileRecord) error {
	_, err := s.Exec(`
		INSERT INTO las_files (
			path, size, mtime_ns, point_count, point_format,
			has_rgb, min_z, max_z, detection_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime_ns = excluded.mtime_ns,
			point_count = excluded.point_count,
			point_format = excluded.point_format,
			has_rgb = excluded.has_rgb,
			min_z = excluded.min_z,
			max_z = excluded.max_z,
			detection_id = excluded.detection_id,
			scanned_at = CURRENT_TIMESTAMP`,
		rec.Path, rec.Size, rec.ModTime.UnixNano(), int64(rec.PointCount),
		rec.PointFormat, rec.HasRGB, rec.MinZ, rec.MaxZ, rec.DetectionID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert file record: %w", err)
	}
	return nil
}

// LookupFile returns the cached record for path when the file's size and
// modification time still match. A missing or stale record returns
// ok=false with no error.
func (s *Store) LookupFile(path string, size int64, modTime time.Time) (*FileRecord, bool, error) {
	row := s.QueryRow(`
		SELECT path, size, mtime_ns, point_count, point_format,
		       has_rgb, min_z, max_z, detection_id
		FROM las_files WHERE path = ?`, path)

	var (
		rec     FileRecord
		mtimeNs int64
		count   int64
		format  int
	)
	err := row.Scan(&rec.Path, &rec.Size, &mtimeNs, &count, &format,
		&rec.HasRGB, &rec.MinZ, &rec.MaxZ, &rec.DetectionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up file record: %w", err)
	}

	if rec.Size != size || mtimeNs != modTime.UnixNano() {
		return nil, false, nil
	}

	rec.ModTime = time.Unix(0, mtimeNs).UTC()
	rec.PointCount = uint64(count)
	rec.PointFormat = uint8(format)
	return &rec, true, nil
}

// Measurement is one completed two-point Z-distance measurement.
type Measurement struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	DetectionID string    `json:"detection_id,omitempty"`
	FilePath    string    `json:"file_path"`
	ZDistance   float64   `json:"z_distance"`
	X1          float64   `json:"x1"`
	Y1          float64   `json:"y1"`
	Z1          float64   `json:"z1"`
	X2          float64   `json:"x2"`
	Y2          float64   `json:"y2"`
	Z2          float64   `json:"z2"`
	TakenAt     time.Time `json:"taken_at"`
}

// RecordMeasurement appends one measurement to the log. A zero TakenAt is
// stamped with the current time.
func (s *Store) RecordMeasurement(m Measurement) error {
	takenAt := m.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}

	_, err := s.Exec(`
		INSERT INTO measurements (
			session_id, detection_id, file_path, z_distance,
			x1, y1, z1, x2, y2, z2, taken_at_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.SessionID, m.DetectionID, m.FilePath, m.ZDistance,
		m.X1, m.Y1, m.Z1, m.X2, m.Y2, m.Z2, takenAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record measurement: %w", err)
	}
	return nil
}

// Measurements returns the most recent measurements, newest first,
// optionally filtered by detection ID. Limit values outside 1..500 are
// clamped.
func (s *Store) Measurements(detectionID string, limit int) ([]Measurement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT measurement_id, session_id, detection_id, file_path, z_distance,
		       x1, y1, z1, x2, y2, z2, taken_at_unix
		FROM measurements`
	args := []any{}
	if detectionID != "" {
		query += " WHERE detection_id = ?"
		args = append(args, detectionID)
	}
	query += " ORDER BY measurement_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	var measurements []Measurement
	for rows.Next() {
		var m Measurement
		var takenAtUnix int64
		if err := rows.Scan(
			&m.ID, &m.SessionID, &m.DetectionID, &m.FilePath, &m.ZDistance,
			&m.X1, &m.Y1, &m.Z1, &m.X2, &m.Y2, &m.Z2, &takenAtUnix,
		); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		m.TakenAt = time.Unix(takenAtUnix, 0).UTC()
		measurements = append(measurements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("measurement rows iteration failed: %w", err)
	}

	return measurements, nil
}
