package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/grachmannico95/payments-engine/internal/domain"
)

const transactionsBucket = "transactions"

// BoltLog keeps the transaction log in a BoltDB file instead of the heap.
type BoltLog struct {
	db      *bolt.DB
	tempDir string
	count   int
}

// NewBoltLog opens (or creates) a log file at path. The file is kept on
// Close.
func NewBoltLog(path string) (*BoltLog, error) {
	return openBoltLog(path, "")
}

// NewTempBoltLog creates a log file in a private directory under dir (the
// system temp dir when empty). The directory is removed on Close, so nothing
// outlives the stream.
func NewTempBoltLog(dir string) (*BoltLog, error) {
	tempDir, err := os.MkdirTemp(dir, "txlog-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	return openBoltLog(filepath.Join(tempDir, "txlog.db"), tempDir)
}

func openBoltLog(path, tempDir string) (*BoltLog, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		removeTempDir(tempDir)
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	count := 0
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(transactionsBucket))
		if err != nil {
			return err
		}
		count = b.Stats().KeyN
		return nil
	})
	if err != nil {
		db.Close()
		removeTempDir(tempDir)
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltLog{db: db, tempDir: tempDir, count: count}, nil
}

func (l *BoltLog) Record(rec domain.TransactionRecord) error {
	rec.Disputed = false

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	created := false
	err = l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(transactionsBucket))
		key := txKey(rec.Tx)

		if b.Get(key) != nil {
			return domain.ErrDuplicateTransaction
		}

		created = true
		return b.Put(key, data)
	})
	if err != nil {
		return err
	}

	if created {
		l.count++
	}

	return nil
}

func (l *BoltLog) Lookup(id domain.TransactionID) (domain.TransactionRecord, bool, error) {
	var rec domain.TransactionRecord
	found := false

	err := l.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(transactionsBucket)).Get(txKey(id))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return domain.TransactionRecord{}, false, fmt.Errorf("lookup tx %d: %w", id, err)
	}

	return rec, found, nil
}

func (l *BoltLog) MarkDisputed(id domain.TransactionID) error {
	return l.setDisputed(id, true)
}

func (l *BoltLog) ClearDisputed(id domain.TransactionID) error {
	return l.setDisputed(id, false)
}

func (l *BoltLog) setDisputed(id domain.TransactionID, disputed bool) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(transactionsBucket))
		key := txKey(id)

		v := b.Get(key)
		if v == nil {
			return domain.ErrUnknownTransaction
		}

		var rec domain.TransactionRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("decode tx %d: %w", id, err)
		}

		if rec.Disputed == disputed {
			return nil
		}
		rec.Disputed = disputed

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode tx %d: %w", id, err)
		}

		return b.Put(key, data)
	})
}

func (l *BoltLog) Len() int {
	return l.count
}

// Close releases the file lock and removes the temporary file, if any.
func (l *BoltLog) Close() error {
	err := l.db.Close()
	removeTempDir(l.tempDir)
	return err
}

// Keys are big-endian so that bolt iterates in transaction id order.
func txKey(id domain.TransactionID) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, uint32(id))
	return key
}

func removeTempDir(dir string) {
	if dir != "" {
		_ = os.RemoveAll(dir)
	}
}
