// Package bbolt implements the ports.ManifestStore interface using bbolt
// (embedded B+ tree). Each output path gets its own bucket under "outputs".
// Within it, "builds" holds JSON-serialized builds keyed by sequence number
// and "latest" points at the newest one. Writes are transactional: a crash
// mid-write cannot corrupt previously committed builds.
package bbolt

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/corey/ramdisk/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketOutputs = []byte("outputs")
	bucketBuilds  = []byte("builds")
	keyLatest     = []byte("latest")
)

// Store implements ports.ManifestStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBuild appends build to its output's history and marks it latest.
func (s *Store) SaveBuild(build *ports.Build) error {
	if build == nil {
		return fmt.Errorf("nil build")
	}
	if build.Output == "" {
		return fmt.Errorf("build has no output path")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		outputs, err := tx.CreateBucketIfNotExists(bucketOutputs)
		if err != nil {
			return err
		}
		ob, err := outputs.CreateBucketIfNotExists([]byte(build.Output))
		if err != nil {
			return err
		}
		bb, err := ob.CreateBucketIfNotExists(bucketBuilds)
		if err != nil {
			return err
		}

		seq, err := bb.NextSequence()
		if err != nil {
			return err
		}
		build.Seq = seq

		data, err := encodeBuild(build)
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := bb.Put(key, data); err != nil {
			return err
		}
		return ob.Put(keyLatest, key)
	})
}

// LatestBuild retrieves the newest build for output.
// Returns nil, nil if the output has never been recorded.
func (s *Store) LatestBuild(output string) (*ports.Build, error) {
	var data []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		ob := outputBucket(tx, output)
		if ob == nil {
			return nil
		}
		key := ob.Get(keyLatest)
		bb := ob.Bucket(bucketBuilds)
		if key == nil || bb == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := bb.Get(key); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if data == nil {
		return nil, nil
	}
	return decodeBuild(data)
}

// History returns up to limit builds for output, newest first.
func (s *Store) History(output string, limit int) ([]*ports.Build, error) {
	type record struct {
		key, value []byte
	}
	var raw []record

	err := s.db.View(func(tx *bolt.Tx) error {
		ob := outputBucket(tx, output)
		if ob == nil {
			return nil
		}
		bb := ob.Bucket(bucketBuilds)
		if bb == nil {
			return nil
		}
		c := bb.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(raw) >= limit {
				break
			}
			raw = append(raw, record{
				key:   append([]byte(nil), k...),
				value: append([]byte(nil), v...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	builds := make([]*ports.Build, 0, len(raw))
	for _, r := range raw {
		seq, err := keySeq(r.key)
		if err != nil {
			return nil, err
		}
		b, err := decodeBuild(r.value)
		if err != nil {
			return nil, err
		}
		if b.Seq != seq {
			return nil, fmt.Errorf("build stored under %d claims seq %d", seq, b.Seq)
		}
		builds = append(builds, b)
	}
	return builds, nil
}

// Outputs lists every recorded output path, sorted.
func (s *Store) Outputs() ([]string, error) {
	var outs []string
	err := s.db.View(func(tx *bolt.Tx) error {
		outputs := tx.Bucket(bucketOutputs)
		if outputs == nil {
			return nil
		}
		return outputs.ForEachBucket(func(k []byte) error {
			outs = append(outs, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(outs)
	return outs, nil
}

// DeleteOutput removes all builds for output.
// Idempotent: deleting an unknown output is not an error.
func (s *Store) DeleteOutput(output string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		outputs := tx.Bucket(bucketOutputs)
		if outputs == nil {
			return nil
		}
		if err := outputs.DeleteBucket([]byte(output)); errors.Is(err, bolt.ErrBucketNotFound) {
			return nil // idempotent
		} else {
			return err
		}
	})
}

func outputBucket(tx *bolt.Tx, output string) *bolt.Bucket {
	outputs := tx.Bucket(bucketOutputs)
	if outputs == nil {
		return nil
	}
	return outputs.Bucket([]byte(output))
}
