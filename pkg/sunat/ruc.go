package sunat

import (
	"fmt"
	"strings"
	"unicode"
)

// pesos del dígito verificador del RUC, aplicados a los 10 primeros dígitos.
var rucWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// prefijos válidos: 10 persona natural, 15/17 no domiciliados, 20 persona jurídica.
var rucPrefixes = []string{"10", "15", "16", "17", "20"}

// ValidateRUC valida longitud (11), prefijo y dígito verificador módulo 11.
func ValidateRUC(ruc string) error {
	ruc = strings.TrimSpace(ruc)
	if len(ruc) != 11 || !allDigits(ruc) {
		return fmt.Errorf("sunat: el RUC debe tener 11 dígitos, se recibió %q", ruc)
	}
	validPrefix := false
	for _, p := range rucPrefixes {
		if strings.HasPrefix(ruc, p) {
			validPrefix = true
			break
		}
	}
	if !validPrefix {
		return fmt.Errorf("sunat: prefijo de RUC inválido %q", ruc[:2])
	}
	expected := ComputeRUCCheckDigit(ruc[:10])
	if ruc[10] != expected {
		return fmt.Errorf("sunat: dígito verificador del RUC inválido: esperado %c, recibido %c", expected, ruc[10])
	}
	return nil
}

// ComputeRUCCheckDigit calcula el dígito verificador para los 10 primeros dígitos.
func ComputeRUCCheckDigit(base string) byte {
	var sum int
	for i := 0; i < len(rucWeights) && i < len(base); i++ {
		sum += int(base[i]-'0') * rucWeights[i]
	}
	r := 11 - sum%11
	switch r {
	case 10:
		r = 0
	case 11:
		r = 1
	}
	return byte('0' + r)
}

// ValidateIdentity valida el documento del cliente según su tipo (catálogo 06).
// Tipos sin regla de formato (pasaporte, carné) solo exigen número no vacío.
func ValidateIdentity(docType, docNumber string) error {
	docNumber = strings.TrimSpace(docNumber)
	switch docType {
	case "", IdentityNone:
		return nil
	case IdentityDNI:
		if len(docNumber) != 8 || !allDigits(docNumber) {
			return fmt.Errorf("sunat: el DNI debe tener 8 dígitos, se recibió %q", docNumber)
		}
		return nil
	case IdentityRUC:
		return ValidateRUC(docNumber)
	}
	if !ValidIdentityTypes[docType] {
		return fmt.Errorf("sunat: tipo de documento de identidad desconocido %q", docType)
	}
	if docNumber == "" {
		return fmt.Errorf("sunat: número de documento requerido")
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
