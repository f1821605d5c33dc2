package session

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/InternHub-KE/client/internal/domain/users"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Persisted keys. Token and user are written and cleared together, always
// inside one transaction.
const (
	keyToken    = "session_token"
	keyUser     = "session_user"
	keyIssuedAt = "session_issued_at"
)

// Cache is the persisted key-value store backing session restoration across
// process restarts. The token is encrypted at rest; the profile is plain
// JSON.
type Cache struct {
	db   *sql.DB
	aead cipher.AEAD
}

// OpenCache opens (creating if needed) the cache database at path and runs
// its schema migrations. masterSecret keys the token encryption; when empty,
// a secret is generated once and kept beside the database with owner-only
// permissions.
func OpenCache(path, masterSecret string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	if masterSecret == "" {
		secret, err := loadOrCreateSecret(filepath.Join(filepath.Dir(path), "cache.key"))
		if err != nil {
			return nil, err
		}
		masterSecret = secret
	}
	aead, err := newCacheAEAD([]byte(masterSecret))
	if err != nil {
		return nil, err
	}

	if err := runMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure cache: %w", err)
	}

	return &Cache{db: db, aead: aead}, nil
}

// runMigrations applies the embedded schema migrations. Already-current is
// not an error.
func runMigrations(path string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func loadOrCreateSecret(path string) (string, error) {
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		return string(data), nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate cache secret: %w", err)
	}
	secret := base64.StdEncoding.EncodeToString(buf)
	if err := os.WriteFile(path, []byte(secret), 0o600); err != nil {
		return "", fmt.Errorf("persist cache secret: %w", err)
	}
	return secret, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Save persists the session: encrypted token, profile JSON and issue time,
// all in one transaction so a reader never observes a token without its
// user.
func (c *Cache) Save(ctx context.Context, sess Session) error {
	sealedToken, err := seal(c.aead, sess.Token)
	if err != nil {
		return err
	}
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	return c.inTx(ctx, func(tx *sql.Tx) error {
		for key, value := range map[string]string{
			keyToken:    sealedToken,
			keyUser:     string(userJSON),
			keyIssuedAt: sess.IssuedAt.UTC().Format(time.RFC3339Nano),
		} {
			if err := upsert(ctx, tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load restores the cached session. Returns nil with no error when the cache
// holds no session; a corrupt or undecryptable entry also yields nil so a
// bad cache never blocks startup.
func (c *Cache) Load(ctx context.Context) (*Session, error) {
	values := map[string]string{}
	rows, err := c.db.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE key IN (?, ?, ?)`, keyToken, keyUser, keyIssuedAt)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan cache row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	sealedToken, okToken := values[keyToken]
	userJSON, okUser := values[keyUser]
	if !okToken || !okUser {
		return nil, nil
	}

	token, err := open(c.aead, sealedToken)
	if err != nil {
		return nil, nil
	}
	var user users.UserProfile
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, nil
	}

	sess := &Session{Token: token, User: user}
	if raw, ok := values[keyIssuedAt]; ok {
		if issued, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			sess.IssuedAt = issued
		}
	}
	return sess, nil
}

// Clear removes the persisted session as a pair.
func (c *Cache) Clear(ctx context.Context) error {
	return c.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM kv WHERE key IN (?, ?, ?)`, keyToken, keyUser, keyIssuedAt)
		return err
	})
}

// UpdateUser replaces only the cached profile; the token entry is untouched.
// A no-op when no session is cached.
func (c *Cache) UpdateUser(ctx context.Context, user users.UserProfile) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return c.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv WHERE key = ?`, keyToken).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return nil
		}
		return upsert(ctx, tx, keyUser, string(userJSON))
	})
}

func (c *Cache) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache tx: %w", err)
	}
	return nil
}

func upsert(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}
