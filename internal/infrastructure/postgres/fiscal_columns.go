package postgres

import (
	"time"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
)

// Columnas del subestado fiscal, comunes a sales y returns.
const fiscalColumns = `fiscal_status, fiscal_hash, fiscal_xml_url, fiscal_cdr_url, fiscal_pdf_ticket_url,
	fiscal_pdf_a4_url, fiscal_last_error, fiscal_attempts, fiscal_submitted_at, fiscal_resolved_at, fiscal_version`

// fiscalSet SET de UPDATE con placeholders a partir de $3 ($1 = id, $2 = estado esperado,
// $13 = versión leída).
const fiscalSet = `fiscal_status = $3, fiscal_hash = $4, fiscal_xml_url = $5, fiscal_cdr_url = $6,
	fiscal_pdf_ticket_url = $7, fiscal_pdf_a4_url = $8, fiscal_last_error = $9, fiscal_attempts = $10,
	fiscal_submitted_at = $11, fiscal_resolved_at = $12, fiscal_version = fiscal_version + 1, updated_at = now()`

// fiscalCAS predicado de UpdateFiscal: estado y versión deben seguir siendo los leídos.
const fiscalCAS = ` WHERE id = $1 AND fiscal_status = $2 AND fiscal_version = $13`

// fiscalScan destinos de Scan para fiscalColumns.
type fiscalScan struct {
	status      string
	submittedAt *time.Time
	resolvedAt  *time.Time
	st          *entity.FiscalState
}

func newFiscalScan(st *entity.FiscalState) *fiscalScan { return &fiscalScan{st: st} }

func (f *fiscalScan) dest() []any {
	return []any{&f.status, &f.st.Hash, &f.st.XMLURL, &f.st.CDRURL, &f.st.PDFTicketURL,
		&f.st.PDFA4URL, &f.st.LastError, &f.st.Attempts, &f.submittedAt, &f.resolvedAt, &f.st.Version}
}

func (f *fiscalScan) done() {
	f.st.Status = entity.FiscalStatus(f.status)
	f.st.SubmittedAt = f.submittedAt
	f.st.ResolvedAt = f.resolvedAt
}

func fiscalArgs(st entity.FiscalState) []any {
	return []any{string(st.Status), st.Hash, st.XMLURL, st.CDRURL, st.PDFTicketURL,
		st.PDFA4URL, st.LastError, st.Attempts, st.SubmittedAt, st.ResolvedAt, st.Version}
}
