package entity

import "time"

// Códigos de tipo de documento (catálogo 01 SUNAT).
const (
	DocumentTypeFactura    = "01"
	DocumentTypeBoleta     = "03"
	DocumentTypeCreditNote = "07"
)

// IsSaleDocumentType indica si el código corresponde a un comprobante de venta.
func IsSaleDocumentType(code string) bool {
	return code == DocumentTypeFactura || code == DocumentTypeBoleta
}

// SeriesCounter es el contador de correlativos de una serie (ej: "B001") para un tipo de documento.
// LastNumber nunca retrocede y cada asignación lo incrementa exactamente en 1.
// Version se incrementa en cada escritura (compare-and-swap explícito).
type SeriesCounter struct {
	DocumentCode string
	Series       string
	LastNumber   int64
	Version      int64
	UpdatedAt    time.Time
}
