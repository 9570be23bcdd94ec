// Package quotecache persists miner fee quotes in a local SQLite database so
// that repeated fee lookups within a quote's validity window skip the network.
package quotecache

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ErrNotCached is returned when no unexpired quote exists for a miner.
var ErrNotCached = errors.New("no unexpired cached quote")

// Cache represents a SQLite-backed quote cache.
type Cache struct {
	sdb *sql.DB
}

// Open opens or creates a cache with the given filename. The special
// filename "file::memory:?cache=shared" yields a throwaway in-memory cache.
func Open(fname string) (cache *Cache, err error) {
	sdb, err := sql.Open("sqlite3_quotecache", fname)
	if err != nil {
		return
	}
	cache = &Cache{
		sdb: sdb,
	}
	_, err = cache.sdb.Exec(`CREATE TABLE IF NOT EXISTS quotes (
                minerurl TEXT PRIMARY KEY,
                fetched  INTEGER NOT NULL,
                expiry   INTEGER NOT NULL,
                payload  BLOB NOT NULL)`)
	return
}

// Put stores or replaces the quote payload for a miner.
func (cc *Cache) Put(minerURL string, fetched, expiry time.Time, payload []byte) error {
	_, err := cc.sdb.Exec(`INSERT OR REPLACE INTO quotes
                (minerurl, fetched, expiry, payload) VALUES ($1, $2, $3, $4)`,
		minerURL, fetched.Unix(), expiry.Unix(), payload)
	return err
}

// Get returns the cached quote payload for a miner, or ErrNotCached if none
// exists or the stored quote expires at or before now.
func (cc *Cache) Get(minerURL string, now time.Time) (payload []byte, err error) {
	err = cc.sdb.QueryRow(`SELECT payload FROM quotes
                WHERE minerurl = $1 AND expiry > $2`,
		minerURL, now.Unix()).Scan(&payload)
	if err == sql.ErrNoRows {
		err = ErrNotCached
	}
	return
}

// Sweep deletes every quote that has expired as of now.
func (cc *Cache) Sweep(now time.Time) error {
	_, err := cc.sdb.Exec("DELETE FROM quotes WHERE expiry <= $1", now.Unix())
	return err
}

// Close releases the underlying database handle.
func (cc *Cache) Close() error {
	return cc.sdb.Close()
}

// SQLite3 with a busy timeout, since the client and a sweeper may share the
// cache file.
func init() {
	sql.Register("sqlite3_quotecache",
		&sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				_, err := conn.Exec("PRAGMA busy_timeout = 2000", nil)
				return err
			},
		})
}
