// Package docs registers the API description served under /swagger.
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
        "/pool/jobs": {
            "get": {
                "description": "Queries every schedd of the pool and returns job counters sorted by name. Sources that could not be read are listed in failed.",
                "produces": ["application/json"],
                "tags": ["pool", "jobs"],
                "summary": "Count jobs in the pool",
                "parameters": {{ template "pointsParams" }},
                "responses": {{ template "pointsResponses" }}
            }
        },
        "/pool/slots": {
            "get": {
                "description": "Reads every slot ad from the collector and returns slot counters sorted by name.",
                "produces": ["application/json"],
                "tags": ["pool", "slots"],
                "summary": "Summarise slots in the pool",
                "parameters": {{ template "pointsParams" }},
                "responses": {{ template "pointsResponses" }}
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "detail": {"type": "string"},
                "failed": {"type": "array", "items": {"type": "string"}},
                "next": {"type": "string"},
                "previous": {"type": "string"},
                "results": {}
            }
        },
        "table.Point": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "value": {"type": "number"}
            }
        }
    }
}{{ define "pointsParams" }}[
                    {"type": "string", "description": "Only return counters whose name starts with prefix", "name": "prefix", "in": "query"},
                    {"type": "boolean", "default": true, "description": "Page the result", "name": "paging", "in": "query"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number, from 1", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Page size, 1-100", "name": "page_size", "in": "query"}
                ]{{ end }}{{ define "pointsResponses" }}{
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/response.Response"},
                                {"type": "object", "properties": {"results": {"type": "array", "items": {"$ref": "#/definitions/table.Point"}}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Response"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.Response"}}
                }{{ end }}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "poolmon",
	Description:      "Batch pool job and slot counters",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
