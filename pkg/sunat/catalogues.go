// Package sunat contiene catálogos y validaciones de comprobantes electrónicos SUNAT (Perú).
package sunat

// =============================================================================
// Catálogo 06 - Tipos de documento de identidad
// =============================================================================

const (
	IdentityNone     = "0" // sin documento (boletas de menor cuantía)
	IdentityDNI      = "1"
	IdentityCE       = "4" // carné de extranjería
	IdentityRUC      = "6"
	IdentityPassport = "7"
)

// ValidIdentityTypes códigos aceptados del catálogo 06.
var ValidIdentityTypes = map[string]bool{
	IdentityNone:     true,
	IdentityDNI:      true,
	IdentityCE:       true,
	IdentityRUC:      true,
	IdentityPassport: true,
}

// =============================================================================
// Catálogo 09 - Motivos de nota de crédito (los más usados en punto de venta)
// =============================================================================

const (
	CreditReasonVoid        = "01" // anulación de la operación
	CreditReasonItemReturn  = "07" // devolución por ítem
	CreditReasonGlobalDisc  = "04" // descuento global
	CreditReasonDescription = "03" // corrección por error en la descripción
)

// =============================================================================
// Catálogo 01 - Tipos de comprobante
// =============================================================================

// DocumentTypeNames nombre impreso de cada comprobante.
var DocumentTypeNames = map[string]string{
	"01": "FACTURA ELECTRÓNICA",
	"03": "BOLETA DE VENTA ELECTRÓNICA",
	"07": "NOTA DE CRÉDITO ELECTRÓNICA",
}

// DocumentTypeName devuelve el nombre impreso o el código si no es conocido.
func DocumentTypeName(code string) string {
	if n, ok := DocumentTypeNames[code]; ok {
		return n
	}
	return code
}
