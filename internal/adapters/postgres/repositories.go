package postgres

import (
	"gorm.io/gorm"

	"github.com/gatepass/proof-service/internal/ports"
)

type Repositories struct {
	CheckIns ports.CheckInRepository
	Outbox   ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		CheckIns: &checkInRepository{db: db},
		Outbox:   &outboxRepository{db: db},
	}
}
