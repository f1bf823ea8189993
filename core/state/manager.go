package state

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/storage"
)

var (
	// ErrTxActive is returned by Begin when a transaction is already open.
	ErrTxActive = errors.New("state: transaction already active")
	// ErrNoTx is returned by Commit when no transaction is open.
	ErrNoTx = errors.New("state: no active transaction")
)

type journalEntry struct {
	value   []byte
	deleted bool
}

// Manager is the journaled key-value view every engine persists through.
// Outside a transaction writes go straight to the database. Between Begin and
// Commit they are buffered so Rollback can discard all of them at once.
type Manager struct {
	mu      sync.RWMutex
	db      storage.Database
	journal map[string]journalEntry
	order   []string
}

// NewManager creates a state manager over db.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Begin opens a transaction.
func (m *Manager) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.journal != nil {
		return ErrTxActive
	}
	m.journal = make(map[string]journalEntry)
	m.order = m.order[:0]
	return nil
}

// InTx reports whether a transaction is open.
func (m *Manager) InTx() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.journal != nil
}

// Commit applies every buffered write in one database batch.
func (m *Manager) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.journal == nil {
		return ErrNoTx
	}
	batch := storage.NewBatch()
	for _, key := range m.order {
		entry := m.journal[key]
		if entry.deleted {
			batch.Delete([]byte(key))
			continue
		}
		batch.Put([]byte(key), entry.value)
	}
	m.journal = nil
	m.order = nil
	if batch.Len() == 0 {
		return nil
	}
	if err := m.db.Write(batch); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	return nil
}

// Rollback discards every write since Begin. It is a no-op outside a
// transaction.
func (m *Manager) Rollback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal = nil
	m.order = nil
}

// Pending reports the number of distinct keys written in the open
// transaction.
func (m *Manager) Pending() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

func (m *Manager) rawGet(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	if m.journal != nil {
		if entry, ok := m.journal[string(key)]; ok {
			m.mu.RUnlock()
			if entry.deleted {
				return nil, false, nil
			}
			return entry.value, true, nil
		}
	}
	m.mu.RUnlock()
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) rawPut(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.journal == nil {
		return m.db.Put(key, value)
	}
	m.record(key, journalEntry{value: append([]byte(nil), value...)})
	return nil
}

func (m *Manager) rawDelete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.journal == nil {
		return m.db.Delete(key)
	}
	m.record(key, journalEntry{deleted: true})
	return nil
}

func (m *Manager) record(key []byte, entry journalEntry) {
	k := string(key)
	if _, seen := m.journal[k]; !seen {
		m.order = append(m.order, k)
	}
	m.journal[k] = entry
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 so every namespace shares one fixed-width
// keyspace.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.rawPut(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, ok, err := m.rawGet(kvKey(key))
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.rawDelete(kvKey(key))
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	data, ok, err := m.rawGet(kvKey(key))
	if err != nil {
		return err
	}
	if !ok {
		val := reflect.ValueOf(out)
		if val.Kind() != reflect.Ptr || val.IsNil() {
			return fmt.Errorf("kv: destination must be a non-nil pointer")
		}
		elem := val.Elem()
		if elem.Kind() != reflect.Slice {
			return fmt.Errorf("kv: destination must point to a slice")
		}
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
		return nil
	}
	return rlp.DecodeBytes(data, out)
}
