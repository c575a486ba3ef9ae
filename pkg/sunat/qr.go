package sunat

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// QRData campos del código QR de la representación impresa.
type QRData struct {
	IssuerRUC         string
	DocumentType      string
	Series            string
	Number            int64
	TaxAmount         decimal.Decimal
	GrandTotal        decimal.Decimal
	IssueDate         time.Time
	CustomerDocType   string
	CustomerDocNumber string
	Hash              string // valor resumen devuelto por la pasarela; vacío si aún no se envió
}

// String arma el contenido del QR separado por "|":
// RUC|TIPO|SERIE|NUMERO|IGV|TOTAL|FECHA|TIPO DOC ADQ|NUM DOC ADQ|HASH|
func (q QRData) String() string {
	docType := q.CustomerDocType
	if docType == "" {
		docType = IdentityNone
	}
	docNumber := q.CustomerDocNumber
	if docNumber == "" {
		docNumber = "-"
	}
	fields := []string{
		q.IssuerRUC,
		q.DocumentType,
		q.Series,
		fmt.Sprintf("%d", q.Number),
		q.TaxAmount.StringFixed(2),
		q.GrandTotal.StringFixed(2),
		q.IssueDate.Format("2006-01-02"),
		docType,
		docNumber,
		q.Hash,
	}
	return strings.Join(fields, "|") + "|"
}
