package sunat

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQRData_String(t *testing.T) {
	q := QRData{
		IssuerRUC:         "20100070970",
		DocumentType:      "03",
		Series:            "B001",
		Number:            11,
		TaxAmount:         decimal.RequireFromString("3.6"),
		GrandTotal:        decimal.RequireFromString("23.6"),
		IssueDate:         time.Date(2025, 3, 9, 15, 4, 0, 0, time.UTC),
		CustomerDocType:   "1",
		CustomerDocNumber: "12345678",
		Hash:              "abc=",
	}
	assert.Equal(t, "20100070970|03|B001|11|3.60|23.60|2025-03-09|1|12345678|abc=|", q.String())
}

func TestQRData_SinCliente(t *testing.T) {
	q := QRData{IssuerRUC: "20100070970", DocumentType: "03", Series: "B001", Number: 1, IssueDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "20100070970|03|B001|1|0.00|0.00|2025-01-02|0|-||", q.String())
}

func TestDocumentTypeName(t *testing.T) {
	assert.Equal(t, "BOLETA DE VENTA ELECTRÓNICA", DocumentTypeName("03"))
	assert.Equal(t, "99", DocumentTypeName("99"))
}
