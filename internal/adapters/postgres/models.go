package postgres

import (
	"time"

	"github.com/google/uuid"
)

type checkInModel struct {
	EventID    uuid.UUID `gorm:"column:event_id;type:uuid;primaryKey"`
	TicketID   string    `gorm:"column:ticket_id"`
	Owner      string    `gorm:"column:owner"`
	Signer     string    `gorm:"column:signer"`
	LedgerKey  string    `gorm:"column:ledger_key"`
	VerifiedAt time.Time `gorm:"column:verified_at"`
}

func (checkInModel) TableName() string { return "check_in_events" }

type proofOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	FirstSeenAt    time.Time  `gorm:"column:first_seen_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (proofOutboxModel) TableName() string { return "proof_outbox" }
