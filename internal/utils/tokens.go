package utils

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"dmlabels/internal/domain"
)

// TokenStore caches API tokens and their per-interval request limits.
// A nil cache means the store was never loaded.
type TokenStore struct {
	mu    sync.RWMutex
	cache map[string]int

	dbMu sync.Mutex
	dsn  string
	db   *sql.DB
}

// Tokens is the store consulted by the HTTP middleware.
var Tokens = &TokenStore{}

const tokensDDL = `CREATE TABLE IF NOT EXISTS api_tokens (
	token TEXT PRIMARY KEY,
	rate_limit INTEGER NOT NULL DEFAULT 60,
	label TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

func postgresDSN(cfg PostgresConfig) (string, error) {
	if strings.HasPrefix(cfg.Host, "postgres://") || strings.HasPrefix(cfg.Host, "postgresql://") {
		return cfg.Host, nil
	}
	switch {
	case cfg.Host == "":
		return "", fmt.Errorf("postgres host is empty")
	case cfg.Database == "":
		return "", fmt.Errorf("postgres database is empty")
	case cfg.User == "":
		return "", fmt.Errorf("postgres user is empty")
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	hostPort := cfg.Host
	switch {
	case strings.HasPrefix(hostPort, "["):
		if !strings.Contains(hostPort, "]:") {
			hostPort = fmt.Sprintf("%s:%d", hostPort, port)
		}
	case strings.Count(hostPort, ":") >= 2:
		hostPort = fmt.Sprintf("[%s]:%d", hostPort, port)
	case !strings.Contains(hostPort, ":"):
		hostPort = fmt.Sprintf("%s:%d", hostPort, port)
	}

	u := &url.URL{Scheme: "postgres", Host: hostPort, Path: "/" + cfg.Database}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	if cfg.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", cfg.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// open returns a pooled connection for cfg, replacing it when the DSN changes.
func (s *TokenStore) open(ctx context.Context, cfg PostgresConfig) (*sql.DB, error) {
	dsn, err := postgresDSN(cfg)
	if err != nil {
		return nil, err
	}

	s.dbMu.Lock()
	defer s.dbMu.Unlock()

	if s.db != nil && s.dsn == dsn {
		return s.db, nil
	}
	if s.db != nil {
		_ = s.db.Close()
		s.db, s.dsn = nil, ""
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// small control-plane table
	db.SetMaxOpenConns(3)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(pingCtx, tokensDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure api_tokens: %w", err)
	}

	s.db, s.dsn = db, dsn
	return db, nil
}

// LoadFromPostgres replaces the cache with the api_tokens table. On error
// the previous cache is kept.
func (s *TokenStore) LoadFromPostgres(ctx context.Context, cfg PostgresConfig) error {
	db, err := s.open(ctx, cfg)
	if err != nil {
		return err
	}

	qctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.QueryContext(qctx, `SELECT token, rate_limit FROM api_tokens;`)
	if err != nil {
		return err
	}
	defer rows.Close()

	cache := make(map[string]int)
	for rows.Next() {
		var token string
		var limit int
		if err := rows.Scan(&token, &limit); err != nil {
			return err
		}
		cache[token] = limit
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.Replace(cache)
	return nil
}

// Replace swaps the cache for a copy of m.
func (s *TokenStore) Replace(m map[string]int) {
	cache := make(map[string]int, len(m))
	for k, v := range m {
		cache[k] = v
	}
	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
}

// Reset forgets every token and marks the store as not loaded.
func (s *TokenStore) Reset() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

// Ready reports whether the cache has been loaded at least once.
func (s *TokenStore) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache != nil
}

// Check validates a token against the cache.
func (s *TokenStore) Check(token string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil {
		return domain.ErrTokenStoreNotReady
	}
	if _, ok := s.cache[token]; !ok {
		return domain.ErrInvalidAPIKey
	}
	return nil
}

// RateLimit returns the token's limit; 0 disables limiting for it.
func (s *TokenStore) RateLimit(token string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[token]
}

// Refresh reloads from Postgres every interval until ctx is done.
func (s *TokenStore) Refresh(ctx context.Context, cfg PostgresConfig, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.LoadFromPostgres(ctx, cfg); err != nil {
				Error("Failed to reload API tokens", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close releases the database handle.
func (s *TokenStore) Close() error {
	s.dbMu.Lock()
	defer s.dbMu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db, s.dsn = nil, ""
	return err
}
