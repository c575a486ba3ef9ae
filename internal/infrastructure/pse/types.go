// Package pse es el cliente de la pasarela fiscal (proveedor de servicios electrónicos).
// El contrato es JSON: la firma del XML y la entrega a la autoridad ocurren en la pasarela.
package pse

import (
	"context"

	"github.com/shopspring/decimal"
)

// Modos de operación (FISCAL_MODE).
const (
	// ModeDev no envía: simula la aceptación localmente.
	ModeDev = "dev"
	// ModeTest envía al ambiente de pruebas de la pasarela.
	ModeTest = "test"
	// ModeProd envía al ambiente de producción.
	ModeProd = "prod"
)

// Estados devueltos por la autoridad dentro de data.estado.
const (
	AuthorityAccepted = "ACEPTADO"
	AuthorityPending  = "PENDIENTE"
	AuthorityRejected = "RECHAZADO"
)

// ── Request ───────────────────────────────────────────────────────────────────

// Request documento de salida hacia la pasarela.
type Request struct {
	DocumentType     string          `json:"tipo_de_comprobante"`
	Series           string          `json:"serie"`
	Number           int64           `json:"numero"`
	IssueDate        string          `json:"fecha_de_emision"` // YYYY-MM-DD
	DueDate          string          `json:"fecha_de_vencimiento,omitempty"`
	Currency         string          `json:"moneda"`
	TaxOperationCode string          `json:"tipo_de_operacion"`
	Customer         Customer        `json:"cliente"`
	Items            []Item          `json:"items"`
	TaxRate          decimal.Decimal `json:"porcentaje_de_igv"`
	TaxableBase      decimal.Decimal `json:"total_gravada"`
	TaxAmount        decimal.Decimal `json:"total_igv"`
	GrandTotal       decimal.Decimal `json:"total"`
	// Solo notas de crédito
	Affected   *AffectedDocument `json:"documento_que_se_modifica,omitempty"`
	ReasonCode string            `json:"tipo_de_nota_de_credito,omitempty"`
	Reason     string            `json:"motivo,omitempty"`
}

// Customer identidad del cliente.
type Customer struct {
	DocType   string `json:"tipo_de_documento"`
	DocNumber string `json:"numero_de_documento"`
	Name      string `json:"denominacion"`
	Address   string `json:"direccion,omitempty"`
}

// Item línea del documento.
type Item struct {
	UnitMeasure        string          `json:"unidad_de_medida"`
	Description        string          `json:"descripcion"`
	Quantity           int64           `json:"cantidad"`
	UnitValue          decimal.Decimal `json:"valor_unitario"` // sin impuesto
	UnitPrice          decimal.Decimal `json:"precio_unitario"` // con impuesto
	TaxPercent         decimal.Decimal `json:"porcentaje_igv"`
	TaxAffectationCode string          `json:"tipo_de_igv"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

// AffectedDocument comprobante que modifica una nota de crédito.
type AffectedDocument struct {
	DocumentType string `json:"tipo_de_comprobante"`
	Series       string `json:"serie"`
	Number       int64  `json:"numero"`
}

// ── Response ──────────────────────────────────────────────────────────────────

// Response respuesta de la pasarela.
type Response struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    *ResponseData `json:"data,omitempty"`
}

// ResponseData artefactos del documento procesado.
type ResponseData struct {
	Status       string `json:"estado"`
	Hash         string `json:"hash"`
	XMLURL       string `json:"xml_url"`
	CDRURL       string `json:"cdr_url"`
	PDFTicketURL string `json:"pdf_ticket_url"`
	PDFA4URL     string `json:"pdf_a4_url"`
}

// ── Puerto ────────────────────────────────────────────────────────────────────

// Result resultado de un envío que la pasarela procesó (HTTP 2xx y success=true).
type Result struct {
	Status       string // AuthorityAccepted, AuthorityPending o AuthorityRejected
	Message      string
	Hash         string
	XMLURL       string
	CDRURL       string
	PDFTicketURL string
	PDFA4URL     string
	HTTPStatus   int
}

// Submitter envía un documento a la pasarela.
// Los errores envuelven domain.ErrGatewayTimeout o domain.ErrGatewayUnavailable (transitorios,
// se reintentan) o domain.ErrGatewayRejected (definitivo). Ver StatusCode para el código HTTP.
type Submitter interface {
	Submit(ctx context.Context, req *Request) (*Result, error)
}
