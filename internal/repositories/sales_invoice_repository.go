package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ierr "iva-service/internal/errors"
	"iva-service/internal/models"
)

type SalesInvoiceRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, inv *models.SalesInvoice) error
	GetByID(ctx context.Context, id int64) (*models.SalesInvoice, error)
	FindByCompanyAndNumber(ctx context.Context, tx *sql.Tx, cuit, number string) (*models.SalesInvoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*models.SalesInvoice, error)
	ListByCompany(ctx context.Context, tx *sql.Tx, cuit string) ([]*models.SalesInvoice, error)
	Update(ctx context.Context, tx *sql.Tx, inv *models.SalesInvoice) error
}

type salesInvoiceRepository struct {
	db *sql.DB
}

func NewSalesInvoiceRepository(db *sql.DB) SalesInvoiceRepository {
	return &salesInvoiceRepository{db: db}
}

const salesColumns = `id, cuit_empresa, nombre_empresa, cliente, condicion_iva,
		       tipo_documento, numero_documento, fecha, numero_factura,
		       monto_gravado, iva21, perc_iibb, perc_mun, total, provincia,
		       created_at, updated_at`

var errSalesInvoiceNotFound = ierr.Mark(ierr.New("sales invoice not found"), ierr.ErrNotFound)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSalesInvoice(row rowScanner) (*models.SalesInvoice, error) {
	inv := &models.SalesInvoice{}
	err := row.Scan(
		&inv.ID,
		&inv.CompanyCUIT,
		&inv.CompanyName,
		&inv.Client,
		&inv.IVACondition,
		&inv.DocType,
		&inv.DocNumber,
		&inv.Date,
		&inv.Number,
		&inv.TaxableAmount,
		&inv.IVA21,
		&inv.PercIIBB,
		&inv.PercMun,
		&inv.Total,
		&inv.Province,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Correlativity = models.StatusCorrect
	return inv, nil
}

func (r *salesInvoiceRepository) Insert(ctx context.Context, tx *sql.Tx, inv *models.SalesInvoice) error {
	query := `
		INSERT INTO facturas_venta (
			cuit_empresa, nombre_empresa, cliente, condicion_iva,
			tipo_documento, numero_documento, fecha, numero_factura,
			monto_gravado, iva21, perc_iibb, perc_mun, total, provincia
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		inv.CompanyCUIT,
		inv.CompanyName,
		inv.Client,
		inv.IVACondition,
		inv.DocType,
		inv.DocNumber,
		inv.Date,
		inv.Number,
		inv.TaxableAmount,
		inv.IVA21,
		inv.PercIIBB,
		inv.PercMun,
		inv.Total,
		inv.Province,
	)
	if err != nil {
		return ierr.Mark(ierr.Wrap(err, "insert sales invoice"), ierr.ErrDatabase)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ierr.Mark(ierr.Wrap(err, "insert sales invoice"), ierr.ErrDatabase)
	}
	inv.ID = id
	inv.Synthesized = false
	return nil
}

func (r *salesInvoiceRepository) GetByID(ctx context.Context, id int64) (*models.SalesInvoice, error) {
	query := `SELECT ` + salesColumns + ` FROM facturas_venta WHERE id = ?`
	inv, err := scanSalesInvoice(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errSalesInvoiceNotFound
	}
	if err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "get sales invoice"), ierr.ErrDatabase)
	}
	return inv, nil
}

// FindByCompanyAndNumber looks an invoice up by its natural key
func (r *salesInvoiceRepository) FindByCompanyAndNumber(ctx context.Context, tx *sql.Tx, cuit, number string) (*models.SalesInvoice, error) {
	query := `SELECT ` + salesColumns + ` FROM facturas_venta WHERE cuit_empresa = ? AND numero_factura = ?`
	inv, err := scanSalesInvoice(tx.QueryRowContext(ctx, query, cuit, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errSalesInvoiceNotFound
	}
	if err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "find sales invoice"), ierr.ErrDatabase)
	}
	return inv, nil
}

func (r *salesInvoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]*models.SalesInvoice, error) {
	where, args := filter.where("fecha")
	query := `SELECT ` + salesColumns + ` FROM facturas_venta` + where + ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "list sales invoices"), ierr.ErrDatabase)
	}
	return collectSales(rows)
}

// ListByCompany reads every invoice of a company inside tx, so a batch sees
// its own inserts.
func (r *salesInvoiceRepository) ListByCompany(ctx context.Context, tx *sql.Tx, cuit string) ([]*models.SalesInvoice, error) {
	query := `SELECT ` + salesColumns + ` FROM facturas_venta WHERE cuit_empresa = ? ORDER BY id`
	rows, err := tx.QueryContext(ctx, query, cuit)
	if err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "list company sales invoices"), ierr.ErrDatabase)
	}
	return collectSales(rows)
}

func collectSales(rows *sql.Rows) ([]*models.SalesInvoice, error) {
	defer rows.Close()

	invoices := []*models.SalesInvoice{}
	for rows.Next() {
		inv, err := scanSalesInvoice(rows)
		if err != nil {
			return nil, ierr.Mark(ierr.Wrap(err, "scan sales invoice"), ierr.ErrDatabase)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "iterate sales invoices"), ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *salesInvoiceRepository) Update(ctx context.Context, tx *sql.Tx, inv *models.SalesInvoice) error {
	query := `
		UPDATE facturas_venta
		SET cliente = ?,
			condicion_iva = ?,
			tipo_documento = ?,
			numero_documento = ?,
			fecha = ?,
			numero_factura = ?,
			monto_gravado = ?,
			iva21 = ?,
			perc_iibb = ?,
			perc_mun = ?,
			total = ?,
			provincia = ?,
			updated_at = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		inv.Client,
		inv.IVACondition,
		inv.DocType,
		inv.DocNumber,
		inv.Date,
		inv.Number,
		inv.TaxableAmount,
		inv.IVA21,
		inv.PercIIBB,
		inv.PercMun,
		inv.Total,
		inv.Province,
		time.Now(),
		inv.ID,
	)
	if err != nil {
		return ierr.Mark(ierr.Wrap(err, "update sales invoice"), ierr.ErrDatabase)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ierr.Mark(ierr.Wrap(err, "update sales invoice"), ierr.ErrDatabase)
	}
	if rowsAffected == 0 {
		return errSalesInvoiceNotFound
	}
	return nil
}
