package models

import (
	"fmt"
	"time"
)

// Status is the outcome of a computed check on an invoice
type Status string

const (
	StatusCorrect Status = "Correcto"
	StatusError   Status = "Error"
)

// IVA conditions
const (
	CondConsumidorFinal      = "Consumidor Final"
	CondResponsableInscripto = "Responsable Inscripto"
	CondMonotributista       = "Monotributista"
	CondRespInscriptoShort   = "Resp. Inscripto"
)

// Operation types recorded on audit entries
const (
	OperationSales     = "IVA Ventas"
	OperationPurchases = "IVA Compras"
)

// Audit process states
const (
	ProcessStarted    = "Iniciado"
	ProcessInProgress = "En Curso"
	ProcessFinished   = "Finalizado"
)

// Audit modification labels
const (
	AuditInitialImport    = "Importación Inicial"
	AuditAutoGenerated    = "Registro Autogenerado"
	AuditFieldsModified   = "Modificación de campos"
	AuditPeriodClosed     = "Impacto de Datos (Cierre)"
	AuditPurchaseImport   = "Importación Compra"
	AuditManualCreate     = "Alta Manual"
	AuditPurchaseModified = "Modificación de campos (Compras)"
)

const (
	DefaultUserID = "01"
	SystemUserID  = "Sistema"
)

// Placeholder values used for synthesized missing invoices
const (
	MissingInvoiceClient   = "--- FACTURA FALTANTE ---"
	MissingInvoiceProvince = "Sin definir"
	EmptyInvoiceNumber     = "0000-00000000"
)

const DefaultClassification = "Mercadería"

// SalesInvoice is one line of the IVA Ventas book. ControlIVA and
// Correlativity are computed and never persisted.
type SalesInvoice struct {
	ID            int64     `db:"id" json:"id"`
	Synthesized   bool      `db:"-" json:"synthesized,omitempty"`
	CompanyCUIT   string    `db:"cuit_empresa" json:"cuitEmpresa,omitempty"`
	CompanyName   string    `db:"nombre_empresa" json:"nombreEmpresa,omitempty"`
	Client        string    `db:"cliente" json:"cliente"`
	IVACondition  string    `db:"condicion_iva" json:"condIva"`
	DocType       string    `db:"tipo_documento" json:"doc"`
	DocNumber     int64     `db:"numero_documento" json:"docNumero"`
	Date          string    `db:"fecha" json:"fecha"`
	Number        string    `db:"numero_factura" json:"nro"`
	TaxableAmount float64   `db:"monto_gravado" json:"montoGravado"`
	IVA21         float64   `db:"iva21" json:"iva21"`
	PercIIBB      float64   `db:"perc_iibb" json:"percIIBB"`
	PercMun       float64   `db:"perc_mun" json:"percMun"`
	Total         float64   `db:"total" json:"total"`
	Province      string    `db:"provincia" json:"provincia"`
	ControlIVA    Status    `db:"-" json:"controlIva"`
	Correlativity Status    `db:"-" json:"correlatividad"`
	CreatedAt     time.Time `db:"created_at" json:"-"`
	UpdatedAt     time.Time `db:"updated_at" json:"-"`
}

// Key identifies a record within a working set. Persisted rows use their
// database id; synthesized placeholders use their company, number and
// document type.
func (s *SalesInvoice) Key() string {
	if s.Synthesized {
		return fmt.Sprintf("s:%s|%s|%s", s.CompanyCUIT, s.Number, s.DocType)
	}
	return fmt.Sprintf("r:%d", s.ID)
}

// PurchaseInvoice is one line of the IVA Compras book
type PurchaseInvoice struct {
	ID                int64     `db:"id" json:"id"`
	CompanyCUIT       string    `db:"cuit_empresa" json:"cuitEmpresa"`
	CompanyName       string    `db:"nombre_empresa" json:"nombreEmpresa"`
	Provider          string    `db:"proveedor" json:"proveedor"`
	ProviderCUIT      string    `db:"cuit_proveedor" json:"cuitProveedor"`
	IVACondition      string    `db:"condicion_iva" json:"condicionIva"`
	DocType           string    `db:"tipo_documento" json:"doc"`
	Number            string    `db:"numero_factura" json:"nro"`
	IssueDate         string    `db:"fecha_emision" json:"fechaEmision"`
	ImputationDate    string    `db:"fecha_imputacion" json:"fechaImputacion"`
	Province          string    `db:"provincia" json:"provincia"`
	Jurisdiction      string    `db:"jurisdiccion" json:"jurisdiccion"`
	Classification    string    `db:"clasificacion" json:"clasificacion"`
	TaxableAmount     float64   `db:"monto_gravado" json:"montoGravado"`
	Exempt            float64   `db:"exento" json:"exento"`
	PercIVA           float64   `db:"perc_iva" json:"percIva"`
	PercIIBB          float64   `db:"perc_iibb" json:"percIIBB"`
	PercMun           float64   `db:"perc_mun" json:"percMun"`
	IncomeTax         float64   `db:"ganancias" json:"ganancias"`
	IVA27             float64   `db:"iva27" json:"iva27"`
	IVA21             float64   `db:"iva21" json:"iva21"`
	IVA105            float64   `db:"iva105" json:"iva105"`
	OtherWithholdings float64   `db:"otras_retenciones" json:"otrasRetenciones"`
	Total             float64   `db:"total" json:"total"`
	ControlIVA        Status    `db:"-" json:"controlIva"`
	CreatedAt         time.Time `db:"created_at" json:"-"`
	UpdatedAt         time.Time `db:"updated_at" json:"-"`
}

// AuditEntry is one row of the audit trail
type AuditEntry struct {
	ID            int64     `db:"id" json:"id"`
	UserID        string    `db:"id_usuario" json:"idUsuario"`
	DocumentID    int64     `db:"id_documento" json:"idDocumento"`
	CompanyCUIT   string    `db:"cuit_empresa" json:"cuitEmpresa"`
	DocumentNro   string    `db:"nro_documento" json:"nroDocumento"`
	Modification  string    `db:"modificacion" json:"modificacion"`
	ProcessState  string    `db:"estado_proceso" json:"estadoProceso"`
	OperationType string    `db:"tipo_operacion" json:"tipoOperacion"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
