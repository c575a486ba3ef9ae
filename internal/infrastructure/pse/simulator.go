package pse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Simulator responde ACEPTADO sin salir de la red local (FISCAL_MODE=dev).
// El hash es el SHA-256 del request, así un reenvío produce el mismo resultado.
type Simulator struct {
	baseURL string
}

// NewSimulator construye el simulador; baseURL solo se usa para armar URLs ficticias.
func NewSimulator(baseURL string) *Simulator {
	if baseURL == "" {
		baseURL = "http://localhost/pse-dev"
	}
	return &Simulator{baseURL: baseURL}
}

var _ Submitter = (*Simulator)(nil)

// Submit implementa Submitter.
func (s *Simulator) Submit(ctx context.Context, req *Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("pse: serializar documento: %w", err)
	}
	sum := sha256.Sum256(payload)
	name := fmt.Sprintf("%s-%s-%d", req.DocumentType, req.Series, req.Number)
	return &Result{
		Status:       AuthorityAccepted,
		Message:      "[DEV] aceptado sin envío",
		Hash:         hex.EncodeToString(sum[:]),
		XMLURL:       s.baseURL + "/xml/" + name + ".xml",
		CDRURL:       s.baseURL + "/cdr/R-" + name + ".zip",
		PDFTicketURL: s.baseURL + "/pdf/" + name + "?formato=ticket",
		PDFA4URL:     s.baseURL + "/pdf/" + name + "?formato=a4",
		HTTPStatus:   200,
	}, nil
}
