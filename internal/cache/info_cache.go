package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vidgrab/vidgrab/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS video_info (
	url        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
);`

// InfoCache is a sqlite-backed cache for metadata lookups. Repeat
// format-list fetches for the same URL are the main source of upstream
// rate limiting, so hits here avoid spawning the extractor at all.
type InfoCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewInfoCache(dbPath string, ttl time.Duration) (*InfoCache, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &InfoCache{db: db, ttl: ttl, now: time.Now}, nil
}

func (c *InfoCache) GetVideo(url string) (*domain.VideoInfo, bool) {
	var payload string
	var fetchedAt int64

	row := c.db.QueryRow(`SELECT payload, fetched_at FROM video_info WHERE url = ? LIMIT 1`, url)
	if err := row.Scan(&payload, &fetchedAt); err != nil {
		return nil, false
	}

	if c.now().Unix()-fetchedAt > int64(c.ttl.Seconds()) {
		// Expired; the next Put sweeps it
		return nil, false
	}

	var info domain.VideoInfo
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		return nil, false
	}

	return &info, true
}

func (c *InfoCache) PutVideo(url string, info *domain.VideoInfo) {
	payload, err := json.Marshal(info)
	if err != nil {
		return
	}

	// Sweep rows past the ttl so never-revisited URLs don't accumulate.
	_, _ = c.db.Exec(`DELETE FROM video_info WHERE fetched_at < ?`, c.now().Add(-c.ttl).Unix())

	_, _ = c.db.Exec(
		`INSERT OR REPLACE INTO video_info (url, payload, fetched_at) VALUES (?, ?, ?)`,
		url, string(payload), c.now().Unix(),
	)
}

func (c *InfoCache) Close() error {
	return c.db.Close()
}
