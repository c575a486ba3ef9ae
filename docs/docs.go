// Package docs registra la especificación OpenAPI de la API en el registro de swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Estado del servicio",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Dependencia caída"}}
            }
        },
        "/api/sales": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["sales"],
                "summary": "Emitir comprobante de venta",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateSaleRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.SaleResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/sales/{id}": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["sales"],
                "summary": "Obtener comprobante por ID",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SaleResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/sales/{id}/pdf": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/pdf"],
                "tags": ["sales"],
                "summary": "Representación impresa del comprobante (PDF)",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/sales/{id}/void": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["sales"],
                "summary": "Anular comprobante",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dto.VoidSaleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SaleResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/sales/{id}/fiscal/resubmit": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["fiscal"],
                "summary": "Reenviar comprobante a la pasarela fiscal",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.FiscalStateDTO"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Rechazado", "schema": {"$ref": "#/definitions/dto.FiscalErrorResponse"}}
                }
            }
        },
        "/api/sales/{id}/fiscal/attempts": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["fiscal"],
                "summary": "Historial de envíos fiscales del comprobante",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.FiscalAttemptDTO"}}}}
            }
        },
        "/api/sales/{id}/returns": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["returns"],
                "summary": "Notas de crédito de un comprobante",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.ReturnResponse"}}}}
            }
        },
        "/api/returns": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["returns"],
                "summary": "Emitir nota de crédito",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateReturnRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.ReturnResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/returns/{id}": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["returns"],
                "summary": "Obtener nota de crédito por ID",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ReturnResponse"}}}
            }
        },
        "/api/returns/{id}/pdf": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/pdf"],
                "tags": ["returns"],
                "summary": "Representación impresa de la nota de crédito (PDF)",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/returns/{id}/fiscal/resubmit": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["fiscal"],
                "summary": "Reenviar nota de crédito a la pasarela fiscal",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.FiscalStateDTO"}}}
            }
        },
        "/api/returns/{id}/fiscal/attempts": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["fiscal"],
                "summary": "Historial de envíos fiscales de la nota de crédito",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.FiscalAttemptDTO"}}}}
            }
        },
        "/api/inventory/adjustments": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["inventory"],
                "summary": "Registrar ajuste manual de stock",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dto.StockAdjustmentRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.MovementDTO"}}}
            }
        },
        "/api/inventory/products/{id}/stock": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["inventory"],
                "summary": "Stock actual de un producto",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.StockResponse"}}}
            }
        },
        "/api/inventory/products/{id}/movements": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["inventory"],
                "summary": "Kardex de un producto",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "integer", "in": "query", "name": "limit"},
                    {"type": "integer", "in": "query", "name": "offset"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.MovementDTO"}}}}
            }
        },
        "/api/inventory/products/{id}/reconcile": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["inventory"],
                "summary": "Conciliar stock contra el kardex",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ReconciliationDTO"}}}
            }
        },
        "/api/products": {
            "post": {
                "security": [{"Bearer": []}],
                "tags": ["products"],
                "summary": "Crear producto",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateProductRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.ProductResponse"}}}
            }
        },
        "/api/products/{id}": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["products"],
                "summary": "Obtener producto por ID",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ProductResponse"}}}
            }
        },
        "/api/series/{code}/{series}": {
            "get": {
                "security": [{"Bearer": []}],
                "tags": ["series"],
                "summary": "Estado de una serie",
                "parameters": [
                    {"type": "string", "in": "path", "name": "code", "required": true},
                    {"type": "string", "in": "path", "name": "series", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SeriesCounterDTO"}}}
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "dto.CustomerDTO": {
            "type": "object",
            "properties": {
                "doc_type": {"type": "string"}, "doc_number": {"type": "string"},
                "name": {"type": "string"}, "address": {"type": "string"}
            }
        },
        "dto.SaleLineRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "string"}, "quantity": {"type": "integer"},
                "unit_price": {"type": "string"}, "description": {"type": "string"}
            }
        },
        "dto.CreateSaleRequest": {
            "type": "object",
            "properties": {
                "document_type": {"type": "string"}, "series": {"type": "string"},
                "customer": {"$ref": "#/definitions/dto.CustomerDTO"},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/dto.SaleLineRequest"}},
                "currency": {"type": "string"}, "due_date": {"type": "string"}
            }
        },
        "dto.VoidSaleRequest": {
            "type": "object",
            "properties": {"reason": {"type": "string"}}
        },
        "dto.FiscalStateDTO": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}, "hash": {"type": "string"},
                "xml_url": {"type": "string"}, "cdr_url": {"type": "string"},
                "pdf_ticket_url": {"type": "string"}, "pdf_a4_url": {"type": "string"},
                "last_error": {"type": "string"}, "attempts": {"type": "integer"},
                "submitted_at": {"type": "string"}, "resolved_at": {"type": "string"}
            }
        },
        "dto.FiscalErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"}, "message": {"type": "string"},
                "fiscal": {"$ref": "#/definitions/dto.FiscalStateDTO"}
            }
        },
        "dto.FiscalAttemptDTO": {
            "type": "object",
            "properties": {
                "number": {"type": "integer"}, "started_at": {"type": "string"},
                "finished_at": {"type": "string"}, "outcome": {"type": "string"},
                "http_status": {"type": "integer"}, "error": {"type": "string"}
            }
        },
        "dto.SaleResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"}, "document_type": {"type": "string"},
                "series": {"type": "string"}, "number": {"type": "integer"},
                "full_number": {"type": "string"}, "issue_date": {"type": "string"},
                "currency": {"type": "string"},
                "customer": {"$ref": "#/definitions/dto.CustomerDTO"},
                "taxable_base": {"type": "string"}, "tax_amount": {"type": "string"},
                "grand_total": {"type": "string"}, "status": {"type": "string"},
                "fiscal": {"$ref": "#/definitions/dto.FiscalStateDTO"},
                "lines": {"type": "array", "items": {"type": "object"}}
            }
        },
        "dto.ReturnLineRequest": {
            "type": "object",
            "properties": {"sale_line_id": {"type": "string"}, "quantity": {"type": "integer"}}
        },
        "dto.CreateReturnRequest": {
            "type": "object",
            "properties": {
                "sale_id": {"type": "string"}, "series": {"type": "string"},
                "reason_code": {"type": "string"}, "reason": {"type": "string"},
                "refund_method": {"type": "string"},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/dto.ReturnLineRequest"}}
            }
        },
        "dto.ReturnResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"}, "sale_id": {"type": "string"},
                "affected_number": {"type": "string"}, "full_number": {"type": "string"},
                "refund_method": {"type": "string"}, "grand_total": {"type": "string"},
                "fiscal": {"$ref": "#/definitions/dto.FiscalStateDTO"},
                "lines": {"type": "array", "items": {"type": "object"}}
            }
        },
        "dto.StockAdjustmentRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "string"}, "kind": {"type": "string"},
                "quantity": {"type": "integer"}, "reason": {"type": "string"},
                "reference_id": {"type": "string"}, "allow_negative": {"type": "boolean"}
            }
        },
        "dto.MovementDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"}, "seq": {"type": "integer"}, "kind": {"type": "string"},
                "reason": {"type": "string"}, "quantity": {"type": "integer"},
                "stock_before": {"type": "integer"}, "stock_after": {"type": "integer"},
                "reference_id": {"type": "string"}, "created_at": {"type": "string"}
            }
        },
        "dto.StockResponse": {
            "type": "object",
            "properties": {"product_id": {"type": "string"}, "current_stock": {"type": "integer"}}
        },
        "dto.ReconciliationDTO": {
            "type": "object",
            "properties": {
                "product_id": {"type": "string"}, "cached_stock": {"type": "integer"},
                "ledger_stock": {"type": "integer"}, "drift": {"type": "integer"},
                "movements": {"type": "integer"},
                "breaks": {"type": "array", "items": {"type": "integer"}},
                "consistent": {"type": "boolean"}
            }
        },
        "dto.CreateProductRequest": {
            "type": "object",
            "properties": {
                "sku": {"type": "string"}, "name": {"type": "string"},
                "unit_measure": {"type": "string"}, "price": {"type": "string"},
                "initial_stock": {"type": "integer"}
            }
        },
        "dto.ProductResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"}, "sku": {"type": "string"}, "name": {"type": "string"},
                "unit_measure": {"type": "string"}, "price": {"type": "string"},
                "active": {"type": "boolean"}, "current_stock": {"type": "integer"},
                "version": {"type": "integer"}
            }
        },
        "dto.SeriesCounterDTO": {
            "type": "object",
            "properties": {
                "document_code": {"type": "string"}, "series": {"type": "string"},
                "last_number": {"type": "integer"}, "version": {"type": "integer"},
                "burned": {"type": "array", "items": {"type": "object"}}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo información exportada de la especificación.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "POS Fiscal API",
	Description:      "Emisión de comprobantes electrónicos: correlativos, ventas, kardex, notas de crédito y envío a la pasarela fiscal.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
