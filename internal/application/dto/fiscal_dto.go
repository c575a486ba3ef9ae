package dto

import (
	"time"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// FiscalStateDTO subestado fiscal y artefactos devueltos por la pasarela.
type FiscalStateDTO struct {
	Status       string     `json:"status"` // NONE, PENDING, ACCEPTED, REJECTED
	Hash         string     `json:"hash,omitempty"`
	XMLURL       string     `json:"xml_url,omitempty"`
	CDRURL       string     `json:"cdr_url,omitempty"`
	PDFTicketURL string     `json:"pdf_ticket_url,omitempty"`
	PDFA4URL     string     `json:"pdf_a4_url,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	Attempts     int        `json:"attempts"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// FiscalStateFromEntity arma el DTO.
func FiscalStateFromEntity(s entity.FiscalState) FiscalStateDTO {
	return FiscalStateDTO{
		Status:       s.Status.String(),
		Hash:         s.Hash,
		XMLURL:       s.XMLURL,
		CDRURL:       s.CDRURL,
		PDFTicketURL: s.PDFTicketURL,
		PDFA4URL:     s.PDFA4URL,
		LastError:    s.LastError,
		Attempts:     s.Attempts,
		SubmittedAt:  s.SubmittedAt,
		ResolvedAt:   s.ResolvedAt,
	}
}

// FiscalAttemptDTO intento de envío.
type FiscalAttemptDTO struct {
	Number     int       `json:"number"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    string    `json:"outcome"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// FiscalAttemptsFromEntity convierte el historial.
func FiscalAttemptsFromEntity(list []*entity.FiscalAttempt) []FiscalAttemptDTO {
	out := make([]FiscalAttemptDTO, 0, len(list))
	for _, a := range list {
		out = append(out, FiscalAttemptDTO{
			Number:     a.Number,
			StartedAt:  a.StartedAt,
			FinishedAt: a.FinishedAt,
			Outcome:    a.Outcome,
			HTTPStatus: a.HTTPStatus,
			Error:      a.Error,
		})
	}
	return out
}

// FiscalErrorResponse error de envío con el estado fiscal que quedó registrado.
type FiscalErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Fiscal  FiscalStateDTO `json:"fiscal"`
}
