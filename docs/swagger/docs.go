// Package swagger registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/orders": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates a pending order for the calling customer.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Orders"],
                "summary": "Place an order",
                "parameters": [
                    {"description": "Line items", "name": "order", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.PlaceOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the order with its tracking history. Customers only see their own orders.",
                "produces": ["application/json"],
                "tags": ["Orders"],
                "summary": "Get an order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/orders/{id}/cancellation": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Files a cancellation request for a pending or processing order.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Orders"],
                "summary": "Request cancellation",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Reason", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CancellationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/orders/{id}/timeline": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Projects the order status onto the linear stages.",
                "produces": ["application/json"],
                "tags": ["Tracking"],
                "summary": "Get the progress timeline of an order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.TimelineResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/orders/{id}/stream": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Server-sent events. The first event is a snapshot of the current record.",
                "produces": ["text/event-stream"],
                "tags": ["Tracking"],
                "summary": "Live order updates",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Bearer token for clients that cannot set headers", "name": "access_token", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "event stream", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/admin/orders": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns orders newest first.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List orders",
                "parameters": [
                    {"type": "integer", "default": 0, "description": "Offset", "name": "offset", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Page size (max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ListOrdersResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/admin/orders/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Get any order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/admin/orders/{id}/events": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Moves the order to status and appends a tracking event atomically.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Log a tracking event",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Event", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.AppendEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/admin/orders/{id}/cancellation/approve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Approve a cancellation request",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Note", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/handler.ResolveCancellationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/admin/orders/{id}/cancellation/decline": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Restores the status held before the request.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Decline a cancellation request",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Note", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/handler.ResolveCancellationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/admin/orders/{id}/return": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Mark a delivered order returned",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Return details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ReturnRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Order"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/admin/orders/{id}/audit": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Audit trail of an order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 50, "description": "Max rows (max 200)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.AuditEntryResponse"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.LineItem": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "unit_price": {"type": "number"},
                "quantity": {"type": "integer"},
                "image": {"type": "string"}
            }
        },
        "domain.TrackingEvent": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "location": {"type": "string"},
                "description": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "domain.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "order_number": {"type": "string"},
                "customer_id": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "processing", "shipped", "out-for-delivery", "delivered", "cancellation-pending", "cancelled", "returned"]},
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.LineItem"}},
                "tracking_history": {"type": "array", "items": {"$ref": "#/definitions/domain.TrackingEvent"}},
                "created_at": {"type": "string"},
                "cancellation_reason": {"type": "string"},
                "previous_status": {"type": "string"},
                "version": {"type": "integer"}
            }
        },
        "domain.Stage": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "label": {"type": "string"},
                "complete": {"type": "boolean"},
                "current": {"type": "boolean"}
            }
        },
        "domain.Projection": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "label": {"type": "string"},
                "special": {"type": "boolean"},
                "stages": {"type": "array", "items": {"$ref": "#/definitions/domain.Stage"}}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "ray_id": {"type": "string"}
            }
        },
        "handler.PlaceOrderRequest": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.LineItem"}}
            }
        },
        "handler.CancellationRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "handler.AppendEventRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "location": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "handler.ResolveCancellationRequest": {
            "type": "object",
            "properties": {
                "note": {"type": "string"}
            }
        },
        "handler.ReturnRequest": {
            "type": "object",
            "properties": {
                "location": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "handler.ListOrdersResponse": {
            "type": "object",
            "properties": {
                "orders": {"type": "array", "items": {"$ref": "#/definitions/domain.Order"}},
                "offset": {"type": "integer"},
                "limit": {"type": "integer"}
            }
        },
        "handler.AuditEntryResponse": {
            "type": "object",
            "properties": {
                "actor": {"type": "string"},
                "action": {"type": "string"},
                "from_status": {"type": "string"},
                "to_status": {"type": "string"},
                "location": {"type": "string"},
                "note": {"type": "string"},
                "at": {"type": "string"}
            }
        },
        "handler.TimelineResponse": {
            "type": "object",
            "properties": {
                "order_id": {"type": "string"},
                "order_number": {"type": "string"},
                "timeline": {"$ref": "#/definitions/domain.Projection"},
                "last_event": {"$ref": "#/definitions/domain.TrackingEvent"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Order Tracker API",
	Description:      "Order lifecycle tracking: status changes, tracking events and live order streams.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
