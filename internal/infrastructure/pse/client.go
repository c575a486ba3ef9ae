package pse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/pos-fiscal-api/internal/domain"
)

// Error falla de envío con el código HTTP (0 si no hubo respuesta).
// Unwrap devuelve el sentinel de dominio que clasifica la falla.
type Error struct {
	HTTPStatus int
	Message    string
	Kind       error
}

func (e *Error) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("pse: %v (HTTP %d): %s", e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("pse: %v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

// StatusCode extrae el código HTTP de un error del cliente (0 si no aplica).
func StatusCode(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.HTTPStatus
	}
	return 0
}

// Client implementa Submitter sobre la API REST de la pasarela.
// Usa net/http de la stdlib; el timeout por intento lo fija el ctx del caller.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient construye el cliente. timeout es un tope de red adicional al ctx de cada intento.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ Submitter = (*Client)(nil)

// Submit envía el documento (POST {baseURL}/documents).
func (c *Client) Submit(ctx context.Context, req *Request) (*Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("pse: serializar documento: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("pse: crear request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, &Error{HTTPStatus: resp.StatusCode, Kind: domain.ErrGatewayUnavailable, Message: "leer respuesta: " + err.Error()}
	}
	return parseResponse(resp.StatusCode, raw)
}

func classifyTransport(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &Error{Kind: domain.ErrGatewayTimeout, Message: err.Error()}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Kind: domain.ErrGatewayTimeout, Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("pse: envío cancelado: %w", err)
	}
	return &Error{Kind: domain.ErrGatewayUnavailable, Message: err.Error()}
}

// maxBodyMessage caracteres del cuerpo que se guardan como mensaje cuando no hay JSON.
const maxBodyMessage = 300

// truncateRunes corta en n caracteres sin partir una secuencia UTF-8.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// parseResponse clasifica la respuesta:
// 5xx, 408 y 429 son transitorios; el resto de 4xx y success=false son rechazos.
func parseResponse(status int, raw []byte) (*Result, error) {
	var body Response
	decodeErr := json.Unmarshal(raw, &body)
	msg := body.Message
	if msg == "" {
		msg = truncateRunes(strings.TrimSpace(string(raw)), maxBodyMessage)
	}

	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return nil, &Error{HTTPStatus: status, Kind: domain.ErrGatewayTimeout, Message: msg}
	case status >= 500 || status == http.StatusTooManyRequests:
		return nil, &Error{HTTPStatus: status, Kind: domain.ErrGatewayUnavailable, Message: msg}
	case status >= 400:
		return nil, &Error{HTTPStatus: status, Kind: domain.ErrGatewayRejected, Message: msg}
	case status < 200 || status >= 300:
		return nil, &Error{HTTPStatus: status, Kind: domain.ErrGatewayUnavailable, Message: msg}
	}
	if decodeErr != nil {
		return nil, &Error{HTTPStatus: status, Kind: domain.ErrGatewayUnavailable, Message: "respuesta ilegible: " + decodeErr.Error()}
	}
	if !body.Success {
		return nil, &Error{HTTPStatus: status, Kind: domain.ErrGatewayRejected, Message: msg}
	}

	res := &Result{Message: body.Message, HTTPStatus: status}
	if body.Data == nil {
		// Recibido sin resultado de la autoridad: se consulta de nuevo más tarde.
		res.Status = AuthorityPending
		return res, nil
	}
	res.Hash = body.Data.Hash
	res.XMLURL = body.Data.XMLURL
	res.CDRURL = body.Data.CDRURL
	res.PDFTicketURL = body.Data.PDFTicketURL
	res.PDFA4URL = body.Data.PDFA4URL
	res.Status = normalizeStatus(body.Data.Status, body.Data.Hash)
	return res, nil
}

func normalizeStatus(s, hash string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case AuthorityAccepted, "ACCEPTED":
		return AuthorityAccepted
	case AuthorityRejected, "REJECTED":
		return AuthorityRejected
	case AuthorityPending, "PENDING":
		return AuthorityPending
	case "":
		if hash != "" {
			return AuthorityAccepted
		}
	}
	return AuthorityPending
}
