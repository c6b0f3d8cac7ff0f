package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/gatepass/proof-service/internal/ports"
)

type checkInRepository struct {
	db *gorm.DB
}

func (r *checkInRepository) Insert(ctx context.Context, event ports.CheckInEvent) error {
	rec := checkInModel{
		EventID:    event.EventID,
		TicketID:   event.TicketID,
		Owner:      event.Owner,
		Signer:     event.Signer,
		LedgerKey:  event.LedgerKey,
		VerifiedAt: event.VerifiedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *checkInRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]ports.CheckInEvent, error) {
	var rows []checkInModel
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("verified_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]ports.CheckInEvent, 0, len(rows))
	for _, row := range rows {
		result = append(result, ports.CheckInEvent{
			EventID:    row.EventID,
			TicketID:   row.TicketID,
			Owner:      row.Owner,
			Signer:     row.Signer,
			LedgerKey:  row.LedgerKey,
			VerifiedAt: row.VerifiedAt,
		})
	}
	return result, nil
}
