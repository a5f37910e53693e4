package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/infrastructure/persistence/models"
)

// appendOutboxEntries writes one outbox row per domain event inside the
// caller's transaction, so the event log commits atomically with the
// aggregate mutation that produced it.
func appendOutboxEntries(tx *gorm.DB, tenantID uuid.UUID, events []shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]*models.OutboxEntryModel, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize event %s: %w", event.EventType(), err)
		}
		rows = append(rows, models.OutboxEntryModelFromDomain(shared.NewOutboxEntry(tenantID, event, payload)))
	}
	return tx.Create(&rows).Error
}
