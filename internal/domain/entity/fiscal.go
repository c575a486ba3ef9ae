package entity

import "time"

// FiscalStatus es el subestado de envío a la pasarela fiscal (PSE).
// El valor vacío representa NONE: el documento aún no fue enviado.
type FiscalStatus string

const (
	FiscalStatusNone     FiscalStatus = ""
	FiscalStatusPending  FiscalStatus = "PENDING"
	FiscalStatusAccepted FiscalStatus = "ACCEPTED"
	FiscalStatusRejected FiscalStatus = "REJECTED"
)

// String devuelve "NONE" para el estado vacío.
func (s FiscalStatus) String() string {
	if s == FiscalStatusNone {
		return "NONE"
	}
	return string(s)
}

// CanTransitionTo valida la máquina de estados:
// NONE → PENDING → {ACCEPTED, REJECTED}; REJECTED → PENDING (reintento manual).
// PENDING → PENDING se permite cuando la autoridad aún no resuelve.
func (s FiscalStatus) CanTransitionTo(target FiscalStatus) bool {
	switch s {
	case FiscalStatusNone:
		return target == FiscalStatusPending
	case FiscalStatusPending:
		return target == FiscalStatusAccepted || target == FiscalStatusRejected || target == FiscalStatusPending
	case FiscalStatusRejected:
		return target == FiscalStatusPending
	case FiscalStatusAccepted:
		return false
	}
	return false
}

// FiscalState agrupa el subestado fiscal y los artefactos devueltos por la pasarela.
// Los artefactos se guardan tal cual los devuelve la pasarela.
type FiscalState struct {
	Status       FiscalStatus
	Hash         string
	XMLURL       string // XML firmado
	CDRURL       string // constancia de recepción de la autoridad
	PDFTicketURL string
	PDFA4URL     string
	LastError    string
	Attempts     int
	SubmittedAt  *time.Time
	ResolvedAt   *time.Time

	// Version sube en cada escritura del subestado; distingue dos lecturas del mismo PENDING.
	Version int64
}

// DocumentKind distingue los documentos que pasan por la pasarela fiscal.
type DocumentKind string

const (
	DocumentKindSale   DocumentKind = "SALE"
	DocumentKindReturn DocumentKind = "RETURN"
)

// FiscalAttempt registra cada intento de envío a la pasarela (diagnóstico).
type FiscalAttempt struct {
	ID           string
	DocumentKind DocumentKind
	DocumentID   string
	Number       int // 1..N dentro de un envío
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      string // ACCEPTED, PENDING, REJECTED, TIMEOUT, UNAVAILABLE
	HTTPStatus   int
	Error        string
}

// Resultados de intento.
const (
	AttemptOutcomeAccepted    = "ACCEPTED"
	AttemptOutcomePending     = "PENDING"
	AttemptOutcomeRejected    = "REJECTED"
	AttemptOutcomeTimeout     = "TIMEOUT"
	AttemptOutcomeUnavailable = "UNAVAILABLE"
	AttemptOutcomeCached      = "CACHED"
)

// DocumentRef identifica un documento para la cola de envío fiscal.
type DocumentRef struct {
	Kind DocumentKind
	ID   string
}

func (r DocumentRef) String() string {
	return string(r.Kind) + ":" + r.ID
}
