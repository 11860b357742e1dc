package repository

import (
	"context"

	"github.com/carenest-platform/ms-go-refunds/app/entity"
)

// AuditRepository appends refund lifecycle facts. There is no update or
// delete; entries are immutable once written.
type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	metadataJSON, err := serializeMetadata(entry.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_logs (entity_type, entity_id, action, description, metadata_json, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.EntityType,
		entry.EntityID,
		string(entry.Action),
		entry.Description,
		metadataJSON,
		entry.Timestamp,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = uint64(id)

	return nil
}
