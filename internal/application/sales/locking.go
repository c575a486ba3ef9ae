package sales

import "github.com/jhoicas/pos-fiscal-api/internal/domain/entity"

func productIDs(lines []SaleLineInput) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}

func saleProductIDs(lines []entity.SaleLine) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}

// requestedQuantities suma las cantidades por producto (un producto puede repetirse en varias líneas).
func requestedQuantities(lines []SaleLineInput) map[string]int64 {
	out := make(map[string]int64, len(lines))
	for _, l := range lines {
		out[l.ProductID] += l.Quantity
	}
	return out
}
