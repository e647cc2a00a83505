package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/banshee-data/lasview/internal/catalog"
	"github.com/banshee-data/lasview/internal/fsutil"
	"github.com/banshee-data/lasview/internal/las"
	"github.com/banshee-data/lasview/internal/monitoring"
	"github.com/banshee-data/lasview/internal/security"
	"github.com/banshee-data/lasview/internal/timeutil"
)

var logf = monitoring.Scoped("viewer")

// Default lifecycle settings when ManagerOptions leaves them zero.
const (
	DefaultSessionTTL      = 30 * time.Minute
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCleanupInterval = time.Minute
)

// ManagerOptions configures session lifecycle and folder handling for
// every session the manager creates.
type ManagerOptions struct {
	// Roots are the directories folder-open requests must live under.
	// An empty list refuses every folder.
	Roots []string

	// Scan tunes folder scanning (file limit, recursion).
	Scan catalog.ScanOptions

	// Session carries the per-session render and navigation options.
	Session Options

	// SessionTTL drops sessions idle for longer than this.
	SessionTTL time.Duration

	// CacheTTL bounds how long parsed clouds stay cached between loads.
	CacheTTL time.Duration

	// DisableCache turns the parsed-cloud cache off entirely.
	DisableCache bool
}

// ManagerStats is a point-in-time snapshot of manager activity for the
// status endpoint.
type ManagerStats struct {
	Sessions   int   `json:"sessions"`
	Loads      int64 `json:"loads"`
	LoadErrors int64 `json:"load_errors"`
	CacheHits  int64 `json:"cache_hits"`
	RecordHits int64 `json:"record_hits"`
	Expired    int64 `json:"expired_sessions"`
}

// Manager owns every live session: creation, lookup, TTL expiry, and the
// background folder loads that fill sessions with parsed clouds. Parsed
// clouds are cached across sessions keyed by path, size and mtime, so
// re-opening a folder or sharing one between sessions skips re-parsing.
type Manager struct {
	opts  ManagerOptions
	fsys  fsutil.FileSystem
	store *catalog.Store // may be nil: no file cache, no measurement log
	clock timeutil.Clock

	clouds *gocache.Cache // nil when caching is disabled

	mu       sync.RWMutex
	sessions map[string]*Session

	statsMu    sync.Mutex
	loads      int64
	loadErrors int64
	cacheHits  int64
	recordHits int64
	expired    int64
}

// NewManager builds a session manager. store may be nil, which disables
// the sqlite file cache and measurement log but nothing else.
func NewManager(fsys fsutil.FileSystem, store *catalog.Store, clock timeutil.Clock, opts ManagerOptions) *Manager {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	m := &Manager{
		opts:     opts,
		fsys:     fsys,
		store:    store,
		clock:    clock,
		sessions: make(map[string]*Session),
	}
	if !opts.DisableCache {
		m.clouds = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return m
}

// Create registers a new idle session and returns it.
func (m *Manager) Create() *Session {
	s := NewSession(uuid.NewString(), m.opts.Session, m.clock, m.recordMeasurement)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	logf("session %s created", s.ID)
	return s
}

// Get returns the session with the given ID and refreshes its TTL.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

// Delete removes a session. Removing an unknown ID reports false.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		logf("session %s deleted", id)
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// OpenFolder validates the folder against the allowed roots, scans it for
// .las files, installs the result on the session and starts loading every
// file's cloud in the background. The returned event carries the scan
// outcome; load progress is polled via the session state.
func (m *Manager) OpenFolder(s *Session, path string) (Event, error) {
	if err := security.ValidateFolderWithinRoots(path, m.opts.Roots); err != nil {
		return Event{}, err
	}

	folder, err := catalog.Scan(m.fsys, path, m.opts.Scan)
	if err != nil {
		return Event{}, err
	}

	ev, generation := s.SetFolder(folder)
	go m.loadFolder(s, generation, folder)
	return ev, nil
}

// loadFolder parses every file in the folder and attaches the results to
// the session. It stops as soon as the session moves to a newer folder
// generation.
func (m *Manager) loadFolder(s *Session, generation int, folder *catalog.Folder) {
	start := m.clock.Now()
	for i, entry := range folder.Files {
		cloud, err := m.loadCloud(entry)
		if err != nil {
			logf("session %s: load %s: %v", s.ID, entry.Name, err)
		}
		if !s.AttachCloud(generation, i, cloud, err) {
			logf("session %s: folder load superseded after %d of %d files",
				s.ID, i, len(folder.Files))
			return
		}
	}
	logf("session %s: loaded %d files from %s in %v",
		s.ID, len(folder.Files), folder.Path, m.clock.Since(start))
}

// loadCloud parses one .las file, going through the TTL cache when it is
// enabled. The sqlite file record is refreshed only when the file's size
// or mtime moved since it was last recorded; unchanged files skip the
// metadata pass and the write.
func (m *Manager) loadCloud(entry catalog.FileEntry) (*las.Cloud, error) {
	key := fmt.Sprintf("%s|%d|%d", entry.Path, entry.Size, entry.ModTime.UnixNano())
	if m.clouds != nil {
		if cached, ok := m.clouds.Get(key); ok {
			m.statsMu.Lock()
			m.cacheHits++
			m.statsMu.Unlock()
			return cached.(*las.Cloud), nil
		}
	}

	cloud, err := las.ReadFile(m.fsys, entry.Path)

	m.statsMu.Lock()
	m.loads++
	if err != nil {
		m.loadErrors++
	}
	m.statsMu.Unlock()

	if err != nil {
		return nil, err
	}

	if m.clouds != nil {
		m.clouds.Set(key, cloud, gocache.DefaultExpiration)
	}
	if m.store != nil {
		m.recordFile(entry, cloud)
	}
	return cloud, nil
}

// recordFile refreshes the sqlite record for one file, skipping both the
// Z-range pass and the write when the stored record still matches the
// file's size and mtime.
func (m *Manager) recordFile(entry catalog.FileEntry, cloud *las.Cloud) {
	_, ok, err := m.store.LookupFile(entry.Path, entry.Size, entry.ModTime)
	if err != nil {
		logf("file record for %s not checked: %v", entry.Name, err)
	} else if ok {
		m.statsMu.Lock()
		m.recordHits++
		m.statsMu.Unlock()
		return
	}

	minZ, maxZ := cloud.ZRange()
	rec := catalog.FileRecord{
		Path:        entry.Path,
		Size:        entry.Size,
		ModTime:     entry.ModTime,
		PointCount:  uint64(cloud.Len()),
		PointFormat: cloud.Header.PointFormat,
		HasRGB:      cloud.HasColor(),
		MinZ:        minZ,
		MaxZ:        maxZ,
		DetectionID: entry.DetectionID,
	}
	if err := m.store.UpsertFile(rec); err != nil {
		logf("file record for %s not cached: %v", entry.Name, err)
	}
}

// recordMeasurement appends a completed measurement to the sqlite log.
func (m *Manager) recordMeasurement(meas catalog.Measurement) {
	if m.store == nil {
		return
	}
	if err := m.store.RecordMeasurement(meas); err != nil {
		logf("measurement not recorded: %v", err)
	}
}

// Measurements returns the measurement log, newest first. Without a store
// the log is always empty.
func (m *Manager) Measurements(detectionID string, limit int) ([]catalog.Measurement, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.Measurements(detectionID, limit)
}

// Roots returns the allowed folder roots.
func (m *Manager) Roots() []string {
	return m.opts.Roots
}

// Stats snapshots manager activity.
func (m *Manager) Stats() ManagerStats {
	sessions := m.Len()
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return ManagerStats{
		Sessions:   sessions,
		Loads:      m.loads,
		LoadErrors: m.loadErrors,
		CacheHits:  m.cacheHits,
		RecordHits: m.recordHits,
		Expired:    m.expired,
	}
}

// ExpireSessions drops every session idle for longer than the TTL and
// returns how many were removed.
func (m *Manager) ExpireSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.clock.Since(s.LastTouched()) > m.opts.SessionTTL {
			delete(m.sessions, id)
			removed++
			logf("session %s expired after %v idle", id, m.opts.SessionTTL)
		}
	}
	if removed > 0 {
		m.statsMu.Lock()
		m.expired += int64(removed)
		m.statsMu.Unlock()
	}
	return removed
}

// CleanupLoop expires idle sessions on the given interval until the
// context is cancelled. Run it in its own goroutine.
func (m *Manager) CleanupLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			m.ExpireSessions()
		}
	}
}
