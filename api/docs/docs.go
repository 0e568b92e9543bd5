// Package docs registers the pipeline's OpenAPI document with swag.
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
        "/power-usage": {
            "get": {
                "produces": ["application/json"],
                "tags": ["storage", "audit"],
                "summary": "Power usage readings by ingestion time range (storage) or by index (audit)",
                "parameters": [
                    {"type": "string", "description": "Inclusive start, 2006-01-02T15:04:05", "name": "start_timestamp", "in": "query"},
                    {"type": "string", "description": "Exclusive end, 2006-01-02T15:04:05", "name": "end_timestamp", "in": "query"},
                    {"type": "integer", "description": "Zero based position among power usage events", "name": "index", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/resources.Message"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "tags": ["receiver"],
                "summary": "Report a power usage reading",
                "parameters": [
                    {"description": "Power usage reading", "name": "reading", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.PowerUsageReading"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/location": {
            "get": {
                "produces": ["application/json"],
                "tags": ["storage", "audit"],
                "summary": "Location readings by ingestion time range (storage) or by index (audit)",
                "parameters": [
                    {"type": "string", "name": "start_timestamp", "in": "query"},
                    {"type": "string", "name": "end_timestamp", "in": "query"},
                    {"type": "integer", "name": "index", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/resources.Message"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "tags": ["receiver"],
                "summary": "Report a location reading",
                "parameters": [
                    {"description": "Location reading", "name": "reading", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.LocationReading"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.APIError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.APIError"}}
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["processing"],
                "summary": "Latest aggregated statistics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.StatisticsSnapshot"}}}
            }
        },
        "/anomaly-stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["anomaly"],
                "summary": "Anomaly counts and the most recent anomaly",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AnomalyStats"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/resources.Message"}}
                }
            }
        },
        "/event-stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["eventlog"],
                "summary": "Lifecycle event counts per code",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}}}
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Service health",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/resources.HealthStatus"}}}
            }
        }
    },
    "definitions": {
        "errors.APIError": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "message": {"type": "string"},
                "code": {"type": "integer"},
                "request_id": {"type": "string"}
            }
        },
        "resources.Message": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "resources.HealthStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "service": {"type": "string"},
                "version": {"type": "string"},
                "degraded": {"type": "boolean"}
            }
        },
        "models.PowerData": {
            "type": "object",
            "properties": {
                "energy_out_Wh": {"type": "number"},
                "power_W": {"type": "number"},
                "state_of_charge_%": {"type": "number"},
                "temperature_C": {"type": "number"}
            }
        },
        "models.PowerUsageReading": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "device_type": {"type": "string"},
                "timestamp": {"type": "string"},
                "power_data": {"$ref": "#/definitions/models.PowerData"},
                "trace_id": {"type": "string"}
            }
        },
        "models.LocationData": {
            "type": "object",
            "properties": {
                "gps_latitude": {"type": "number"},
                "gps_longitude": {"type": "number"}
            }
        },
        "models.LocationReading": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "device_type": {"type": "string"},
                "timestamp": {"type": "string"},
                "location_data": {"$ref": "#/definitions/models.LocationData"},
                "trace_id": {"type": "string"}
            }
        },
        "models.StatisticsSnapshot": {
            "type": "object",
            "properties": {
                "date_created": {"type": "string"},
                "total_power_usage_events": {"type": "integer"},
                "max_power_W": {"type": "number"},
                "average_state_of_charge": {"type": "number"},
                "max_temperature_C": {"type": "number"},
                "total_location_events": {"type": "integer"}
            }
        },
        "models.AnomalyStats": {
            "type": "object",
            "properties": {
                "num_anomalies": {"type": "object", "additionalProperties": {"type": "integer"}},
                "most_recent_desc": {"type": "string"},
                "most_recent_datetime": {"type": "string"}
            }
        },
        "models.Envelope": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "datetime": {"type": "string"},
                "trace_id": {"type": "string"},
                "payload": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Field Telemetry Pipeline API",
	Description:      "Device readings ingestion, storage, aggregation, anomaly and audit endpoints.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
