package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lifeguard Certification API",
        "description": "Certification lifecycle, recycling alerts and trainer rosters for lifeguards.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Recycling", "description": "Certification catalog and lifecycle evaluation"},
        {"name": "Formations", "description": "The caller's own certifications"},
        {"name": "Trainer", "description": "Trainer student roster"}
    ],
    "paths": {
        "/certifications": {
            "get": {
                "tags": ["Recycling"],
                "summary": "List known certifications and their recycling periods",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recycling/evaluate": {
            "post": {
                "tags": ["Recycling"],
                "summary": "Evaluate the recycling lifecycle of a certification",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EvaluateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me/recycling/alerts": {
            "get": {
                "tags": ["Recycling"],
                "summary": "List the caller's certifications that need attention",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Alerts in data, counts in meta.summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me/formations": {
            "get": {
                "tags": ["Formations"],
                "summary": "List the caller's certifications with their recycling status",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Formations"],
                "summary": "Record a certification",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FormationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me/formations/{id}": {
            "put": {
                "tags": ["Formations"],
                "summary": "Replace a certification",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FormationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Formations"],
                "summary": "Delete a certification",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/trainer/students": {
            "get": {
                "tags": ["Trainer"],
                "summary": "List the trainer's students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "tab", "in": "query", "type": "string", "enum": ["active", "all"]},
                    {"name": "brevet", "in": "query", "type": "string"},
                    {"name": "source", "in": "query", "type": "string", "enum": ["all", "own", "others"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/trainer/students/brevets": {
            "get": {
                "tags": ["Trainer"],
                "summary": "List the certifications seen on the trainer's roster",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/trainer/students/export": {
            "get": {
                "tags": ["Trainer"],
                "summary": "Export the filtered roster",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "tab", "in": "query", "type": "string", "enum": ["active", "all"]},
                    {"name": "brevet", "in": "query", "type": "string"},
                    {"name": "source", "in": "query", "type": "string", "enum": ["all", "own", "others"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/trainer/students/classification": {
            "get": {
                "tags": ["Trainer"],
                "summary": "Classify every training of the roster as diploma or recycling",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/trainer/students/{studentId}/formations": {
            "get": {
                "tags": ["Trainer"],
                "summary": "Show a student's certifications and the trainer's classified trainings",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "EvaluateRequest": {
            "type": "object",
            "required": ["title", "obtained_date"],
            "properties": {
                "title": {"type": "string"},
                "obtained_date": {"type": "string", "format": "date"},
                "last_recycled_date": {"type": "string", "format": "date"},
                "now": {"type": "string", "format": "date"}
            }
        },
        "FormationRequest": {
            "type": "object",
            "required": ["title", "organization", "start_date"],
            "properties": {
                "title": {"type": "string"},
                "organization": {"type": "string"},
                "recycling_organization": {"type": "string"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "event_kind": {"type": "string", "enum": ["diploma", "recycling"]},
                "document_url": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
