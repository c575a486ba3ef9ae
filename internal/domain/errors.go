package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Numeración (correlativos).
	ErrAllocationContention = errors.New("contención al asignar correlativo: reintentar la venta")

	// Inventario.
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrProductInactive   = errors.New("producto inactivo")
	ErrVersionConflict   = errors.New("la fila fue modificada por otra transacción")

	// Devoluciones.
	ErrCumulativeReturnExceeded = errors.New("la cantidad devuelta excede lo vendido")

	// Pasarela fiscal (PSE). Nunca deshacen una venta ya emitida.
	ErrGatewayTimeout     = errors.New("tiempo de espera agotado con la pasarela fiscal")
	ErrGatewayUnavailable = errors.New("pasarela fiscal no disponible")
	ErrGatewayRejected    = errors.New("documento rechazado por la pasarela fiscal")

	// ErrInconsistentState indica que el correlativo ya fue consumido pero la
	// persistencia falló; requiere conciliación.
	ErrInconsistentState = errors.New("estado inconsistente: correlativo consumido sin documento")
)
