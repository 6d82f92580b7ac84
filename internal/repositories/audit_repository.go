package repositories

import (
	"context"
	"database/sql"

	ierr "iva-service/internal/errors"
	"iva-service/internal/models"
)

type AuditRepository interface {
	Create(ctx context.Context, tx *sql.Tx, entry *models.AuditEntry) error
	ListByDocument(ctx context.Context, operationType string, documentID int64) ([]*models.AuditEntry, error)
}

type auditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, tx *sql.Tx, entry *models.AuditEntry) error {
	query := `
		INSERT INTO auditoria (
			id_usuario, id_documento, cuit_empresa, nro_documento,
			modificacion, estado_proceso, tipo_operacion
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		entry.UserID,
		entry.DocumentID,
		entry.CompanyCUIT,
		entry.DocumentNro,
		entry.Modification,
		entry.ProcessState,
		entry.OperationType,
	)
	if err != nil {
		return ierr.Mark(ierr.Wrap(err, "insert audit entry"), ierr.ErrDatabase)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ierr.Mark(ierr.Wrap(err, "insert audit entry"), ierr.ErrDatabase)
	}
	entry.ID = id
	return nil
}

// ListByDocument returns the trail of one invoice, oldest first
func (r *auditRepository) ListByDocument(ctx context.Context, operationType string, documentID int64) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, id_usuario, id_documento, cuit_empresa, nro_documento,
		       modificacion, estado_proceso, tipo_operacion, created_at
		FROM auditoria
		WHERE tipo_operacion = ? AND id_documento = ?
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, operationType, documentID)
	if err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "list audit entries"), ierr.ErrDatabase)
	}
	defer rows.Close()

	entries := []*models.AuditEntry{}
	for rows.Next() {
		e := &models.AuditEntry{}
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.DocumentID,
			&e.CompanyCUIT,
			&e.DocumentNro,
			&e.Modification,
			&e.ProcessState,
			&e.OperationType,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, ierr.Mark(ierr.Wrap(err, "scan audit entry"), ierr.ErrDatabase)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "iterate audit entries"), ierr.ErrDatabase)
	}
	return entries, nil
}
