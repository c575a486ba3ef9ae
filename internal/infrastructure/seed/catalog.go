// Package seed lee catálogos de productos exportados desde hojas de cálculo.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/pos-fiscal-api/internal/application/dto"
)

// Columnas esperadas (con cabecera): sku;nombre;unidad;precio;stock
const columns = 5

// CharsetReader decodifica ISO-8859-1 / Windows-1252 (exportaciones de Excel) a UTF-8.
// Cualquier otro charset se lee tal cual.
func CharsetReader(charset string, input io.Reader) io.Reader {
	switch strings.ToUpper(strings.ReplaceAll(charset, "_", "-")) {
	case "ISO-8859-1", "ISO8859-1", "LATIN1", "LATIN-1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder())
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder())
	}
	return input
}

// ReadProducts parsea el CSV separado por ';'. La primera fila es cabecera.
// El precio acepta coma decimal (3,50).
func ReadProducts(r io.Reader, charset string) ([]dto.CreateProductRequest, error) {
	cr := csv.NewReader(CharsetReader(charset, r))
	cr.Comma = ';'
	cr.FieldsPerRecord = columns
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}

	var out []dto.CreateProductRequest
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("leer CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[3]), ",", "."))
		if err != nil {
			return nil, fmt.Errorf("línea %d: precio %q: %w", line, rec[3], err)
		}
		stock := int64(0)
		if s := strings.TrimSpace(rec[4]); s != "" {
			stock, err = strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("línea %d: stock %q: %w", line, rec[4], err)
			}
		}
		out = append(out, dto.CreateProductRequest{
			SKU:          strings.TrimSpace(rec[0]),
			Name:         strings.TrimSpace(rec[1]),
			UnitMeasure:  strings.TrimSpace(rec[2]),
			Price:        price,
			InitialStock: stock,
		})
	}
}
