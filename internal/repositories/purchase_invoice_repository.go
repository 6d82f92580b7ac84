package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ierr "iva-service/internal/errors"
	"iva-service/internal/models"
)

type PurchaseInvoiceRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, inv *models.PurchaseInvoice) error
	GetByID(ctx context.Context, id int64) (*models.PurchaseInvoice, error)
	FindByKey(ctx context.Context, tx *sql.Tx, companyCUIT, providerCUIT, number string) (*models.PurchaseInvoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*models.PurchaseInvoice, error)
	Update(ctx context.Context, tx *sql.Tx, inv *models.PurchaseInvoice) error
}

type purchaseInvoiceRepository struct {
	db *sql.DB
}

func NewPurchaseInvoiceRepository(db *sql.DB) PurchaseInvoiceRepository {
	return &purchaseInvoiceRepository{db: db}
}

const purchaseColumns = `id, cuit_empresa, nombre_empresa, proveedor, cuit_proveedor,
		       condicion_iva, tipo_documento, numero_factura, fecha_emision,
		       fecha_imputacion, provincia, jurisdiccion, clasificacion,
		       monto_gravado, exento, perc_iva, perc_iibb, perc_mun, ganancias,
		       iva27, iva21, iva105, otras_retenciones, total,
		       created_at, updated_at`

var errPurchaseInvoiceNotFound = ierr.Mark(ierr.New("purchase invoice not found"), ierr.ErrNotFound)

func scanPurchaseInvoice(row rowScanner) (*models.PurchaseInvoice, error) {
	inv := &models.PurchaseInvoice{}
	err := row.Scan(
		&inv.ID,
		&inv.CompanyCUIT,
		&inv.CompanyName,
		&inv.Provider,
		&inv.ProviderCUIT,
		&inv.IVACondition,
		&inv.DocType,
		&inv.Number,
		&inv.IssueDate,
		&inv.ImputationDate,
		&inv.Province,
		&inv.Jurisdiction,
		&inv.Classification,
		&inv.TaxableAmount,
		&inv.Exempt,
		&inv.PercIVA,
		&inv.PercIIBB,
		&inv.PercMun,
		&inv.IncomeTax,
		&inv.IVA27,
		&inv.IVA21,
		&inv.IVA105,
		&inv.OtherWithholdings,
		&inv.Total,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *purchaseInvoiceRepository) Insert(ctx context.Context, tx *sql.Tx, inv *models.PurchaseInvoice) error {
	query := `
		INSERT INTO facturas_compra (
			cuit_empresa, nombre_empresa, proveedor, cuit_proveedor,
			condicion_iva, tipo_documento, numero_factura, fecha_emision,
			fecha_imputacion, provincia, jurisdiccion, clasificacion,
			monto_gravado, exento, perc_iva, perc_iibb, perc_mun, ganancias,
			iva27, iva21, iva105, otras_retenciones, total
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, purchaseValues(inv)...)
	if err != nil {
		return ierr.Mark(ierr.Wrap(err, "insert purchase invoice"), ierr.ErrDatabase)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return ierr.Mark(ierr.Wrap(err, "insert purchase invoice"), ierr.ErrDatabase)
	}
	inv.ID = id
	return nil
}

func purchaseValues(inv *models.PurchaseInvoice) []interface{} {
	return []interface{}{
		inv.CompanyCUIT,
		inv.CompanyName,
		inv.Provider,
		inv.ProviderCUIT,
		inv.IVACondition,
		inv.DocType,
		inv.Number,
		inv.IssueDate,
		inv.ImputationDate,
		inv.Province,
		inv.Jurisdiction,
		inv.Classification,
		inv.TaxableAmount,
		inv.Exempt,
		inv.PercIVA,
		inv.PercIIBB,
		inv.PercMun,
		inv.IncomeTax,
		inv.IVA27,
		inv.IVA21,
		inv.IVA105,
		inv.OtherWithholdings,
		inv.Total,
	}
}

func (r *purchaseInvoiceRepository) GetByID(ctx context.Context, id int64) (*models.PurchaseInvoice, error) {
	query := `SELECT ` + purchaseColumns + ` FROM facturas_compra WHERE id = ?`
	inv, err := scanPurchaseInvoice(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errPurchaseInvoiceNotFound
	}
	if err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "get purchase invoice"), ierr.ErrDatabase)
	}
	return inv, nil
}

// FindByKey looks a purchase up by buyer, provider and number, the
// combination that identifies a voucher across imports.
func (r *purchaseInvoiceRepository) FindByKey(ctx context.Context, tx *sql.Tx, companyCUIT, providerCUIT, number string) (*models.PurchaseInvoice, error) {
	query := `SELECT ` + purchaseColumns + ` FROM facturas_compra
		WHERE cuit_empresa = ? AND cuit_proveedor = ? AND numero_factura = ?`
	inv, err := scanPurchaseInvoice(tx.QueryRowContext(ctx, query, companyCUIT, providerCUIT, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errPurchaseInvoiceNotFound
	}
	if err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "find purchase invoice"), ierr.ErrDatabase)
	}
	return inv, nil
}

// List filters periods on the imputation date, which decides the fiscal
// month a purchase counts in.
func (r *purchaseInvoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]*models.PurchaseInvoice, error) {
	where, args := filter.where("fecha_imputacion")
	query := `SELECT ` + purchaseColumns + ` FROM facturas_compra` + where + ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "list purchase invoices"), ierr.ErrDatabase)
	}
	defer rows.Close()

	invoices := []*models.PurchaseInvoice{}
	for rows.Next() {
		inv, err := scanPurchaseInvoice(rows)
		if err != nil {
			return nil, ierr.Mark(ierr.Wrap(err, "scan purchase invoice"), ierr.ErrDatabase)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.Mark(ierr.Wrap(err, "iterate purchase invoices"), ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *purchaseInvoiceRepository) Update(ctx context.Context, tx *sql.Tx, inv *models.PurchaseInvoice) error {
	query := `
		UPDATE facturas_compra
		SET cuit_empresa = ?,
			nombre_empresa = ?,
			proveedor = ?,
			cuit_proveedor = ?,
			condicion_iva = ?,
			tipo_documento = ?,
			numero_factura = ?,
			fecha_emision = ?,
			fecha_imputacion = ?,
			provincia = ?,
			jurisdiccion = ?,
			clasificacion = ?,
			monto_gravado = ?,
			exento = ?,
			perc_iva = ?,
			perc_iibb = ?,
			perc_mun = ?,
			ganancias = ?,
			iva27 = ?,
			iva21 = ?,
			iva105 = ?,
			otras_retenciones = ?,
			total = ?,
			updated_at = ?
		WHERE id = ?
	`
	args := append(purchaseValues(inv), time.Now(), inv.ID)
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return ierr.Mark(ierr.Wrap(err, "update purchase invoice"), ierr.ErrDatabase)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ierr.Mark(ierr.Wrap(err, "update purchase invoice"), ierr.ErrDatabase)
	}
	if rowsAffected == 0 {
		return errPurchaseInvoiceNotFound
	}
	return nil
}
