// Package ledger remembers remote torrents that were created on the service
// but not yet deleted, so a later sweep can clean up after timeouts and
// interrupted runs.
//
// bolt holds an exclusive file lock while open. Only foreground invocations
// open the ledger and those never overlap, so workers never touch it.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"

	"github.com/NamanBalaji/lj/internal/logger"
)

const torrentsBucket = "torrents"

var ErrNotFound = errors.New("remote torrent not found")

// Entry is one remote torrent still believed to exist server-side.
type Entry struct {
	RemoteID string    `json:"remote_id"`
	Magnet   string    `json:"magnet"`
	Session  uuid.UUID `json:"session"`
	AddedAt  time.Time `json:"added_at"`
}

// Ledger implements the pipeline's Tracker using BoltDB.
type Ledger struct {
	db *bolt.DB
}

func Open(dbPath string) (*Ledger, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(torrentsBucket)); err != nil {
			return fmt.Errorf("failed to create torrents bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Track records a remote torrent. session must be a UUID; anything else is
// stored as the nil UUID.
func (l *Ledger) Track(remoteID, magnet, session string) error {
	sid, err := uuid.Parse(session)
	if err != nil {
		sid = uuid.Nil
	}

	entry := Entry{
		RemoteID: remoteID,
		Magnet:   magnet,
		Session:  sid,
		AddedAt:  time.Now().UTC(),
	}

	return l.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(torrentsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", torrentsBucket)
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		return bucket.Put([]byte(remoteID), data)
	})
}

func (l *Ledger) Forget(remoteID string) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(torrentsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", torrentsBucket)
		}
		return bucket.Delete([]byte(remoteID))
	})
}

func (l *Ledger) Find(remoteID string) (*Entry, error) {
	var entry *Entry

	err := l.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(torrentsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", torrentsBucket)
		}

		data := bucket.Get([]byte(remoteID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Entries returns every tracked torrent, oldest first.
func (l *Ledger) Entries() ([]Entry, error) {
	var entries []Entry

	err := l.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(torrentsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", torrentsBucket)
		}

		return bucket.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				logger.Warnf("Skipping malformed ledger entry %s: %v", k, err)
				return nil
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})
	return entries, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Deleter removes a torrent from the remote service.
type Deleter interface {
	DeleteTorrent(ctx context.Context, id string) error
}

// SweepResult counts what a sweep did.
type SweepResult struct {
	Deleted int
	Failed  []Entry
}

// Sweep deletes every tracked torrent remotely and forgets those that were
// deleted. Failed deletions stay in the ledger for the next sweep.
func (l *Ledger) Sweep(ctx context.Context, remote Deleter) (SweepResult, error) {
	var result SweepResult

	entries, err := l.Entries()
	if err != nil {
		return result, err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := remote.DeleteTorrent(ctx, e.RemoteID); err != nil {
			logger.Warnf("Sweep: failed to delete remote torrent %s: %v", e.RemoteID, err)
			result.Failed = append(result.Failed, e)
			continue
		}
		if err := l.Forget(e.RemoteID); err != nil {
			return result, err
		}
		logger.Infof("Sweep: deleted remote torrent %s (session %s)", e.RemoteID, e.Session)
		result.Deleted++
	}

	return result, nil
}
