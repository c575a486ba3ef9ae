package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/jhoicas/pos-fiscal-api/docs"
	"github.com/jhoicas/pos-fiscal-api/internal/application/dto"
	"github.com/jhoicas/pos-fiscal-api/internal/application/fiscal"
	"github.com/jhoicas/pos-fiscal-api/internal/application/inventory"
	"github.com/jhoicas/pos-fiscal-api/internal/application/numbering"
	"github.com/jhoicas/pos-fiscal-api/internal/application/returns"
	"github.com/jhoicas/pos-fiscal-api/internal/application/sales"
	"github.com/jhoicas/pos-fiscal-api/internal/application/usecase"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/cache"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/pdf"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/pse"
	apphttp "github.com/jhoicas/pos-fiscal-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/pos-fiscal-api/pkg/jwt"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

// newAPI arma la API completa sobre el almacén en memoria y el simulador de la pasarela.
// Sin worker: el envío fiscal solo ocurre por reenvío manual.
func newAPI(t *testing.T, health func(context.Context) error) *apiFixture {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	ledger := inventory.NewLedger(store, store.Products(), store.Movements(), nil, log)
	alloc := numbering.NewAllocator(store.Counters(), store.BurnedNumbers(), numbering.DefaultConfig(), log)
	gateway := fiscal.NewGateway(store.Sales(), store.Returns(), store.Attempts(),
		cache.NewMemoryResultCache(time.Hour), pse.NewSimulator(""), nil, fiscal.DefaultConfig(), log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Sales:     sales.NewProcessor(store, store.Sales(), alloc, ledger, nil, nil, log),
		Returns:   returns.NewProcessor(store, store.Returns(), alloc, ledger, nil, log),
		Ledger:    ledger,
		Allocator: alloc,
		Products:  usecase.NewProductUseCase(store.Products(), ledger),
		Fiscal:    gateway,
		Receipts:  pdf.NewReceiptGenerator(pdf.Issuer{RUC: "20100070970", Name: "Bodega Central SAC"}),
		SalesPolicy: sales.Policy{
			TaxRate:            decimal.RequireFromString("0.18"),
			Currency:           "PEN",
			TaxOperationCode:   "0101",
			TaxAffectationCode: "10",
		},
		JWTSecret: testJWTSecret,
		Health:    health,
	})
	return &apiFixture{app: app, store: store}
}

func (f *apiFixture) do(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f *apiFixture) createProduct(t *testing.T, price string, stock int64) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/products", pkgjwt.RoleSupervisor, dto.CreateProductRequest{
		Name: "Arroz", Price: decimal.RequireFromString(price), InitialStock: stock,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.ProductResponse](t, resp).ID
}

func (f *apiFixture) createSale(t *testing.T, productID string, qty int64) *http.Response {
	t.Helper()
	return f.do(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, dto.CreateSaleRequest{
		DocumentType: "03",
		Series:       "B001",
		Customer:     dto.CustomerDTO{DocType: "1", DocNumber: "12345678", Name: "Cliente"},
		Lines:        []dto.SaleLineRequest{{ProductID: productID, Quantity: qty}},
	})
}

func (f *apiFixture) stock(t *testing.T, productID string) int64 {
	t.Helper()
	resp := f.do(t, http.MethodGet, "/api/inventory/products/"+productID+"/stock", pkgjwt.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[dto.StockResponse](t, resp).CurrentStock
}

func TestAPI_EmitirVentaYReenviar(t *testing.T) {
	f := newAPI(t, nil)
	productID := f.createProduct(t, "10.00", 10)

	resp := f.createSale(t, productID, 2)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[dto.SaleResponse](t, resp)
	assert.Equal(t, int64(1), sale.Number)
	assert.Equal(t, "B001-1", sale.FullNumber)
	assert.True(t, sale.TaxableBase.Equal(decimal.RequireFromString("20")))
	assert.True(t, sale.TaxAmount.Equal(decimal.RequireFromString("3.6")))
	assert.True(t, sale.GrandTotal.Equal(decimal.RequireFromString("23.6")))
	assert.Equal(t, "NONE", sale.Fiscal.Status)
	require.Len(t, sale.Lines, 1)
	assert.Equal(t, int64(8), f.stock(t, productID))

	// Reenvío manual: solo supervisor
	resp = f.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/fiscal/resubmit", pkgjwt.RoleCashier, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/fiscal/resubmit", pkgjwt.RoleSupervisor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[dto.FiscalStateDTO](t, resp)
	assert.Equal(t, "ACCEPTED", st.Status)
	assert.NotEmpty(t, st.Hash)
	assert.NotEmpty(t, st.CDRURL)

	// Un aceptado no se reenvía: mismo estado y ningún intento nuevo
	resp = f.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/fiscal/resubmit", pkgjwt.RoleSupervisor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, st.Hash, decode[dto.FiscalStateDTO](t, resp).Hash)

	resp = f.do(t, http.MethodGet, "/api/sales/"+sale.ID+"/fiscal/attempts", pkgjwt.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	attempts := decode[[]dto.FiscalAttemptDTO](t, resp)
	require.Len(t, attempts, 1)
	assert.Equal(t, "ACCEPTED", attempts[0].Outcome)

	// Un aceptado tampoco se anula
	resp = f.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/void", pkgjwt.RoleSupervisor, dto.VoidSaleRequest{Reason: "error de digitación"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Representación impresa
	resp = f.do(t, http.MethodGet, "/api/sales/"+sale.ID+"/pdf", pkgjwt.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "B001-1.pdf")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp = f.do(t, http.MethodGet, "/api/sales/no-existe/pdf", pkgjwt.RoleCashier, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_AnularVentaReingresaStock(t *testing.T) {
	f := newAPI(t, nil)
	productID := f.createProduct(t, "5.00", 10)
	resp := f.createSale(t, productID, 4)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[dto.SaleResponse](t, resp)

	resp = f.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/void", pkgjwt.RoleCashier, dto.VoidSaleRequest{Reason: "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/void", pkgjwt.RoleSupervisor, dto.VoidSaleRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "motivo obligatorio")

	resp = f.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/void", pkgjwt.RoleSupervisor, dto.VoidSaleRequest{Reason: "cliente desistió"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "VOID", decode[dto.SaleResponse](t, resp).Status)
	assert.Equal(t, int64(10), f.stock(t, productID))
}

func TestAPI_StockInsuficienteNoConsumeCorrelativo(t *testing.T) {
	f := newAPI(t, nil)
	productID := f.createProduct(t, "1.00", 1)

	resp := f.createSale(t, productID, 5)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodGet, "/api/series/03/b001", pkgjwt.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	counter := decode[dto.SeriesCounterDTO](t, resp)
	assert.Equal(t, "B001", counter.Series)
	assert.Equal(t, int64(0), counter.LastNumber)
	assert.Empty(t, counter.Burned)
	assert.Equal(t, int64(1), f.stock(t, productID))
}

func TestAPI_ErroresDeEntrada(t *testing.T) {
	f := newAPI(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/sales", bytes.NewReader([]byte("{no-json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleCashier))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodPost, "/api/sales", pkgjwt.RoleCashier, dto.CreateSaleRequest{DocumentType: "99", Series: "B001"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodGet, "/api/sales/no-existe", pkgjwt.RoleCashier, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/sales/no-existe", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_DevolucionAcumulada(t *testing.T) {
	f := newAPI(t, nil)
	productID := f.createProduct(t, "10.00", 10)
	resp := f.createSale(t, productID, 3)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[dto.SaleResponse](t, resp)
	lineID := sale.Lines[0].ID

	newReturn := func(qty int64) *http.Response {
		return f.do(t, http.MethodPost, "/api/returns", pkgjwt.RoleCashier, dto.CreateReturnRequest{
			SaleID:       sale.ID,
			Series:       "BC01",
			Reason:       "producto dañado",
			RefundMethod: "INVENTORY_RETURN",
			Lines:        []dto.ReturnLineRequest{{SaleLineID: lineID, Quantity: qty}},
		})
	}

	resp = newReturn(2)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ret := decode[dto.ReturnResponse](t, resp)
	assert.Equal(t, "07", ret.DocumentType)
	assert.Equal(t, "B001-1", ret.AffectedNumber)
	assert.Equal(t, int64(9), f.stock(t, productID))

	resp = newReturn(2)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "RETURN_EXCEEDED", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodGet, "/api/sales/"+sale.ID+"/returns", pkgjwt.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.ReturnResponse](t, resp), 1)

	resp = f.do(t, http.MethodPost, "/api/returns/"+ret.ID+"/fiscal/resubmit", pkgjwt.RoleSupervisor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ACCEPTED", decode[dto.FiscalStateDTO](t, resp).Status)

	resp = f.do(t, http.MethodGet, "/api/returns/"+ret.ID+"/pdf", pkgjwt.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}

func TestAPI_AjusteYConciliacion(t *testing.T) {
	f := newAPI(t, nil)
	productID := f.createProduct(t, "2.00", 5)

	adj := dto.StockAdjustmentRequest{ProductID: productID, Quantity: -2, Reason: "merma"}
	resp := f.do(t, http.MethodPost, "/api/inventory/adjustments", pkgjwt.RoleCashier, adj)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/inventory/adjustments", pkgjwt.RoleSupervisor, adj)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	mov := decode[dto.MovementDTO](t, resp)
	assert.Equal(t, "ADJUST", mov.Kind)
	assert.Equal(t, int64(5), mov.StockBefore)
	assert.Equal(t, int64(3), mov.StockAfter)
	assert.Equal(t, testUserID, mov.CreatedBy)

	resp = f.do(t, http.MethodGet, "/api/inventory/products/"+productID+"/movements", pkgjwt.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.MovementDTO](t, resp), 2)

	resp = f.do(t, http.MethodGet, "/api/inventory/products/"+productID+"/reconcile", pkgjwt.RoleCashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[dto.ReconciliationDTO](t, resp)
	assert.True(t, rec.Consistent)
	assert.Equal(t, int64(3), rec.LedgerStock)
	assert.Equal(t, 2, rec.Movements)
}

func TestAPI_HealthYDocs(t *testing.T) {
	f := newAPI(t, nil)
	resp := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/docs/doc.json", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"/api/sales"`)

	caido := newAPI(t, func(context.Context) error { return errors.New("db caída") })
	resp = caido.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
