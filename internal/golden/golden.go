// Package golden persists the output checksums of test-vector cases so later
// runs, on any backend, can be verified against them.
package golden

import (
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const keyPrefix = "case/"

var (
	// ErrNotRecorded is returned by Verify for a case with no entry.
	ErrNotRecorded = errors.New("case not recorded")
	// ErrMismatch is returned by Verify when a checksum differs.
	ErrMismatch = errors.New("golden checksum mismatch")
)

// Entry is the recorded outcome of one case.
type Entry struct {
	Name     string    `json:"name"`
	CRC      uint32    `json:"crc"`
	Variant  string    `json:"variant"`
	Backend  string    `json:"backend"`
	Recorded time.Time `json:"recorded"`
}

// Store wraps a BadgerDB of golden entries keyed by case name.
type Store struct {
	db *badger.DB
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return open(opts)
}

// OpenInMemory opens a store that is discarded on Close.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open golden store %q", opts.Dir)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores e, replacing any earlier entry of the same name. A zero
// Recorded time is set to now.
func (s *Store) Record(e Entry) error {
	if e.Name == "" {
		return errors.New("golden entry without a name")
	}
	if e.Recorded.IsZero() {
		e.Recorded = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return errors.WithStack(err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+e.Name), data)
	})
}

// Get returns the entry of name, or ErrNotRecorded.
func (s *Store) Get(name string) (Entry, error) {
	var e Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + name))
		if err == badger.ErrKeyNotFound {
			return errors.Wrapf(ErrNotRecorded, "%q", name)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		})
	})
	return e, err
}

// Verify checks crc and variant against the entry of name. The backend is
// not compared: every backend must reproduce the same bytes.
func (s *Store) Verify(name string, crc uint32, variant string) error {
	e, err := s.Get(name)
	if err != nil {
		return err
	}
	if e.CRC != crc {
		return errors.Wrapf(ErrMismatch, "%q: crc %08x, recorded %08x on %s", name, crc, e.CRC, e.Backend)
	}
	if variant != "" && e.Variant != "" && e.Variant != variant {
		return errors.Wrapf(ErrMismatch, "%q: variant %s, recorded %s", name, variant, e.Variant)
	}
	return nil
}

// List returns every entry whose name starts with prefix, in key order.
func (s *Store) List(prefix string) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix + prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return errors.Wrapf(err, "decode %s", strings.TrimPrefix(string(it.Item().Key()), keyPrefix))
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// Delete removes the entry of name. Deleting a missing entry is not an error.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + name))
	})
}
