package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Vehicle Data API",
        "description": "Dealer VIN import, vPIC enrichment and decode error correction",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Vehicles", "description": "Imported vehicles and their decoded make, model and year"},
        {"name": "Vehicle Errors", "description": "Vehicles the decoder rejected"}
    ],
    "paths": {
        "/vehicle": {
            "get": {
                "tags": ["Vehicles"],
                "summary": "List vehicles",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "dealerId", "in": "query", "type": "integer"},
                    {"name": "modifiedDate", "in": "query", "type": "string", "format": "date", "description": "Lower bound, inclusive"},
                    {"name": "pageNumber", "in": "query", "type": "integer", "default": 1},
                    {"name": "pageSize", "in": "query", "type": "integer", "default": 10, "maximum": 100}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VehicleListEnvelope"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vehicle/{vin}": {
            "get": {
                "tags": ["Vehicles"],
                "summary": "Get vehicle by VIN",
                "parameters": [{"name": "vin", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VehicleEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vehicle/{vin}/augment": {
            "post": {
                "tags": ["Vehicles"],
                "summary": "Decode one vehicle and store make, model and year",
                "parameters": [{"name": "vin", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VehicleEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Decoder rejected the VIN or is unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vehicle/augment": {
            "post": {
                "tags": ["Vehicles"],
                "summary": "Decode every vehicle, moving rejected VINs to the error list",
                "responses": {
                    "200": {"description": "OK, data is an AugmentSummary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A pass is already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vehicle/import": {
            "post": {
                "tags": ["Vehicles"],
                "summary": "Import the configured VIN file",
                "responses": {
                    "200": {"description": "OK, data is an ImportResult", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Source file missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "An import is already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vehicle/errors": {
            "get": {
                "tags": ["Vehicle Errors"],
                "summary": "List error records, newest first",
                "parameters": [
                    {"name": "pageNumber", "in": "query", "type": "integer", "default": 1},
                    {"name": "pageSize", "in": "query", "type": "integer", "default": 10, "maximum": 100}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vehicle/errors/{vin}": {
            "get": {
                "tags": ["Vehicle Errors"],
                "summary": "Get error record by VIN",
                "parameters": [{"name": "vin", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vehicle/errors/export": {
            "get": {
                "tags": ["Vehicle Errors"],
                "summary": "Download every error record",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unknown format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/vehicle/correct-error": {
            "post": {
                "tags": ["Vehicle Errors"],
                "summary": "Retry an error record under a corrected VIN",
                "consumes": ["application/json"],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CorrectionRequest"}}],
                "responses": {
                    "200": {"description": "Corrected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error or DECODE_FAILED with the new error record in details", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Error record not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Key already recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Decoder unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Vehicle": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "vin": {"type": "string"},
                "dealer_id": {"type": "integer"},
                "modified_date": {"type": "string", "format": "date"},
                "make": {"type": "string"},
                "model": {"type": "string"},
                "year": {"type": "integer"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "VehicleError": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "vin": {"type": "string"},
                "dealer_id": {"type": "integer"},
                "modified_date": {"type": "string", "format": "date"},
                "error_code": {"type": "string"},
                "error_text": {"type": "string"}
            }
        },
        "CorrectionRequest": {
            "type": "object",
            "required": ["originalVin", "correctedVin", "dealerId", "modifiedDate"],
            "properties": {
                "originalVin": {"type": "string"},
                "correctedVin": {"type": "string"},
                "dealerId": {"type": "integer"},
                "modifiedDate": {"type": "string", "format": "date"}
            }
        },
        "ImportResult": {
            "type": "object",
            "properties": {
                "totalProcessed": {"type": "integer"},
                "successfullyImported": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "AugmentSummary": {
            "type": "object",
            "properties": {
                "updatedCount": {"type": "integer"},
                "errorCount": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
        },
        "VehicleEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/Vehicle"}
            }
        },
        "VehicleListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/Vehicle"}},
                "pagination": {"$ref": "#/definitions/Pagination"}
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
