package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Term Timeline API",
        "description": "Operator API for term timeline synthesis runs and their exports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Runs", "description": "Timeline synthesis runs"},
        {"name": "Dictionaries", "description": "Program dictionary cache"},
        {"name": "Metrics", "description": "Process metrics"}
    ],
    "paths": {
        "/runs": {
            "get": {
                "tags": ["Runs"],
                "summary": "List recent runs",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Runs"],
                "summary": "Trigger a timeline run",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/runs/{id}": {
            "get": {
                "tags": ["Runs"],
                "summary": "Get run status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/runs/{id}/download": {
            "get": {
                "tags": ["Runs"],
                "summary": "Create a signed download link for a run artifact",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "artifact", "in": "query", "type": "string", "enum": ["output", "summary"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run not finished", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/downloads/{token}": {
            "get": {
                "tags": ["Runs"],
                "summary": "Download a run artifact",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dictionaries/cache": {
            "delete": {
                "tags": ["Dictionaries"],
                "summary": "Invalidate cached program dictionaries",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Metrics summary",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MetricsSnapshot"}}
                }
            }
        }
    },
    "definitions": {
        "RunStats": {
            "type": "object",
            "properties": {
                "periods": {"type": "integer"},
                "entities": {"type": "integer"},
                "events_emitted": {"type": "integer"},
                "events_dropped": {"type": "integer"},
                "unmatched_activity": {"type": "integer"},
                "period_records": {"type": "integer"},
                "ambiguous_programs": {"type": "integer"},
                "unresolved_programs": {"type": "integer"},
                "program_defaults": {"type": "integer"},
                "summer_collisions": {"type": "integer"},
                "missing_identities": {"type": "integer"},
                "current_records": {"type": "integer"},
                "forecast_records": {"type": "integer"},
                "unloadable_records": {"type": "integer"}
            }
        },
        "RunSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "RUNNING", "SUCCEEDED", "FAILED"]},
                "requested_by": {"type": "string"},
                "created_at": {"type": "string"},
                "started_at": {"type": "string"},
                "finished_at": {"type": "string"},
                "stats": {"$ref": "#/definitions/RunStats"},
                "output_file": {"type": "string"},
                "summary_file": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "RunListResponse": {
            "type": "object",
            "properties": {
                "runs": {"type": "array", "items": {"$ref": "#/definitions/RunSummary"}}
            }
        },
        "DownloadLinkResponse": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "MetricsSnapshot": {
            "type": "object",
            "properties": {
                "runs_total": {"type": "integer"},
                "runs_failed": {"type": "integer"},
                "last_run_duration_ms": {"type": "number"},
                "last_run_output_records": {"type": "integer"},
                "events_dropped_total": {"type": "integer"},
                "cache_hit_ratio": {"type": "number"},
                "requests_total": {"type": "integer"},
                "average_request_duration_ms": {"type": "number"},
                "goroutines": {"type": "integer"},
                "generated_at": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
