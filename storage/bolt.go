package storage

import (
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltStateBucket = []byte("state")

// BoltDB stores state in a single bbolt bucket. It suits single-node
// deployments that prefer one data file over a LevelDB directory.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB opens (or creates) the bbolt file at path.
func NewBoltDB(path string, options *bolt.Options) (*BoltDB, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltStateBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltDB{db: db}, nil
}

func (b *BoltDB) Put(key []byte, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltStateBucket).Put(key, value)
	})
}

func (b *BoltDB) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(boltStateBucket).Get(key)
		if value == nil {
			return ErrNotFound
		}
		// bbolt values are only valid for the life of the transaction.
		out = append([]byte(nil), value...)
		return nil
	})
	return out, err
}

func (b *BoltDB) Has(key []byte) (bool, error) {
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(boltStateBucket).Get(key) != nil
		return nil
	})
	return found, err
}

func (b *BoltDB) Delete(key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltStateBucket).Delete(key)
	})
}

// Write applies the batch inside one bbolt read-write transaction.
func (b *BoltDB) Write(batch *Batch) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltStateBucket)
		return batch.Replay(bucket.Put, bucket.Delete)
	})
}

func (b *BoltDB) Close() {
	_ = b.db.Close()
}
