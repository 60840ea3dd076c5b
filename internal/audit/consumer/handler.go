// Package consumer turns audit events read from Kafka back into audit log
// entries.
package consumer

import (
	"context"
	"errors"
	"shelfkeeper/internal/audit/repository"
	"shelfkeeper/pkg/kafka"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"
)

var errMissingID = errors.New("audit entry has no id")

func NewHandler(repo repository.AuditRepository, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var entry model.AuditEntry
		if err := msg.DecodeValue(&entry); err != nil {
			return kafka.NewPermanentError("failed to decode audit entry", err)
		}
		if entry.ID == "" {
			entry.ID = msg.GetEventID()
		}
		if entry.ID == "" {
			return kafka.NewPermanentError("invalid audit entry", errMissingID)
		}

		if err := repo.Append(ctx, &entry); err != nil {
			return kafka.NewTransientError("failed to store audit entry", err)
		}

		log.Debug("Audit entry stored",
			"audit_id", entry.ID,
			"table", entry.Table,
			"action", entry.Action,
			"record_id", entry.RecordID,
		)
		return nil
	}
}
