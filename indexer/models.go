package indexer

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRecord is one committed event in the audit index. Digest chains each
// record to its predecessor so a rewritten row breaks every later digest.
type EventRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence   uint64    `gorm:"uniqueIndex;not null"`
	Type       string    `gorm:"size:64;index"`
	Business   string    `gorm:"size:96;index"`
	Attributes string    `gorm:"type:text"`
	PrevDigest string    `gorm:"size:64"`
	Digest     string    `gorm:"size:64;not null"`
	CreatedAt  time.Time
}

// TableName pins the table so the schema is stable across struct renames.
func (EventRecord) TableName() string { return "attestation_events" }

// AutoMigrate performs all schema migrations for the index.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&EventRecord{})
}
