package indexer

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"lukechampine.com/blake3"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/events"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/types"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/observability"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultQueueSize = 1024
	// MaxListLimit caps a single List page.
	MaxListLimit = 500
)

var (
	ErrUnknownDriver = errors.New("indexer: unknown driver")
	ErrClosed        = errors.New("indexer: store closed")
	// ErrChainBroken reports a record whose digest does not follow from its
	// predecessor.
	ErrChainBroken = errors.New("indexer: digest chain broken")
)

// Open connects to the index database. DSN semantics follow the driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite:
		return gorm.Open(sqlite.Open(dsn), cfg)
	case DriverPostgres:
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// Store persists committed events off the commit path. Emit queues; a
// single writer goroutine assigns sequences and extends the digest chain.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
	queue  chan *types.Event
	done   chan struct{}

	mu       sync.RWMutex
	closed   bool
	lastSeq  uint64
	lastHash string
	nowFn    func() time.Time
}

// New migrates the schema, resumes the chain from the newest record and
// starts the writer.
func New(db *gorm.DB, log *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("indexer: database must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	s := &Store{
		db:     db,
		logger: log.With(slog.String("component", "indexer")),
		queue:  make(chan *types.Event, defaultQueueSize),
		done:   make(chan struct{}),
		nowFn:  time.Now,
	}
	var last EventRecord
	err := db.Order("sequence desc").Limit(1).Find(&last).Error
	if err != nil {
		return nil, fmt.Errorf("indexer: load head: %w", err)
	}
	if last.Digest != "" {
		s.lastSeq = last.Sequence
		s.lastHash = last.Digest
	}
	go s.run()
	return s, nil
}

// Emit implements events.Emitter. It blocks only when the queue is full.
func (s *Store) Emit(evt events.Event) {
	converted := events.ToTypes(evt)
	if converted == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		observability.Events().RecordDropped()
		return
	}
	s.queue <- converted
}

// Close stops accepting events and waits until the queue has been written.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.queue)
	<-s.done
}

func (s *Store) run() {
	defer close(s.done)
	for evt := range s.queue {
		if err := s.append(evt); err != nil {
			observability.Events().RecordDropped()
			s.logger.Error("index event failed", slog.String("type", evt.Type), slog.String("error", err.Error()))
		}
	}
}

func (s *Store) append(evt *types.Event) error {
	attrs, err := json.Marshal(evt.Attributes)
	if err != nil {
		return err
	}
	seq := s.lastSeq + 1
	digest := chainDigest(s.lastHash, seq, evt)
	record := EventRecord{
		ID:         uuid.New(),
		Sequence:   seq,
		Type:       evt.Type,
		Business:   evt.Attributes["business"],
		Attributes: string(attrs),
		PrevDigest: s.lastHash,
		Digest:     digest,
		CreatedAt:  s.nowFn().UTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	s.lastSeq = seq
	s.lastHash = digest
	return nil
}

// chainDigest hashes the previous digest, the sequence, the type and the
// attributes in key order.
func chainDigest(prev string, seq uint64, evt *types.Event) string {
	h := blake3.New(32, nil)
	writeField(h, prev)
	writeField(h, strconv.FormatUint(seq, 10))
	writeField(h, evt.Type)
	keys := make([]string, 0, len(evt.Attributes))
	for k := range evt.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeField(h, k)
		writeField(h, evt.Attributes[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h *blake3.Hasher, value string) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(value)))
	_, _ = h.Write(length[:])
	_, _ = h.Write([]byte(value))
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Type          string
	Business      string
	AfterSequence uint64
	Limit         int
}

// List returns indexed events in sequence order.
func (s *Store) List(ctx context.Context, f Filter) ([]EventRecord, error) {
	limit := f.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	query := s.db.WithContext(ctx).Where("sequence > ?", f.AfterSequence)
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.Business != "" {
		query = query.Where("business = ?", f.Business)
	}
	var out []EventRecord
	if err := query.Order("sequence asc").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Verify walks the whole index and recomputes every digest. It returns the
// number of records checked.
func (s *Store) Verify(ctx context.Context) (uint64, error) {
	const pageSize = 200
	var (
		prev    string
		after   uint64
		checked uint64
	)
	for {
		var page []EventRecord
		err := s.db.WithContext(ctx).Where("sequence > ?", after).
			Order("sequence asc").Limit(pageSize).Find(&page).Error
		if err != nil {
			return checked, err
		}
		for _, record := range page {
			attrs := map[string]string{}
			if err := json.Unmarshal([]byte(record.Attributes), &attrs); err != nil {
				return checked, fmt.Errorf("%w: sequence %d: %v", ErrChainBroken, record.Sequence, err)
			}
			want := chainDigest(prev, record.Sequence, &types.Event{Type: record.Type, Attributes: attrs})
			if record.PrevDigest != prev || record.Digest != want {
				return checked, fmt.Errorf("%w: sequence %d", ErrChainBroken, record.Sequence)
			}
			prev = record.Digest
			after = record.Sequence
			checked++
		}
		if len(page) < pageSize {
			return checked, nil
		}
	}
}
