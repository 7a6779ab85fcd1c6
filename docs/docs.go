// Package docs holds the OpenAPI description served at /swagger.
// Keep it in sync with the handler annotations (swag init -g cmd/api/main.go).
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
        "/upload_chunk/": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["upload"],
                "summary": "Upload one chunk of a file",
                "parameters": [
                    {"type": "file", "description": "chunk payload", "name": "file", "in": "formData", "required": true},
                    {"type": "integer", "description": "chunk ordinal", "name": "chunk_index", "in": "formData", "required": true},
                    {"type": "string", "description": "upload session key", "name": "unique_folder", "in": "formData", "required": true},
                    {"type": "string", "description": "original filename", "name": "filename", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.chunkResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/merge_chunks/": {
            "post": {
                "produces": ["application/json"],
                "tags": ["upload"],
                "summary": "Assemble an upload session into one file",
                "parameters": [
                    {"type": "string", "description": "upload session key", "name": "unique_folder", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.mergeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/content/{filename}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["content"],
                "summary": "Describe an assembled file",
                "parameters": [
                    {"type": "string", "description": "assembled file name", "name": "filename", "in": "path", "required": true},
                    {"type": "string", "description": "capability token", "name": "token", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.FileInfo"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/stream/{filename}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["content"],
                "summary": "Stream an assembled file, honoring a single byte range",
                "parameters": [
                    {"type": "string", "description": "assembled file name", "name": "filename", "in": "path", "required": true},
                    {"type": "string", "description": "capability token", "name": "token", "in": "query", "required": true},
                    {"type": "string", "description": "bytes=<start>-<end>", "name": "Range", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "206": {"description": "Partial Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "416": {"description": "Requested Range Not Satisfiable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/files": {
            "get": {
                "produces": ["application/json"],
                "tags": ["files"],
                "summary": "List assembled files",
                "parameters": [
                    {"type": "integer", "default": 10, "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.FileListResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/files/{filename}": {
            "delete": {
                "tags": ["files"],
                "summary": "Delete an assembled file",
                "parameters": [
                    {"type": "string", "description": "assembled file name", "name": "filename", "in": "path", "required": true},
                    {"type": "string", "description": "manage token returned by merge", "name": "token", "in": "query", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "handler.chunkResponse": {
            "type": "object",
            "properties": {
                "index": {"type": "integer"},
                "status": {"type": "string"}
            }
        },
        "handler.mergeResponse": {
            "type": "object",
            "properties": {
                "filename": {"type": "string"},
                "manage_token": {"type": "string"},
                "status": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.errorEnvelope"},
                "request_id": {"type": "string"}
            }
        },
        "model.File": {
            "type": "object",
            "properties": {
                "chunks": {"type": "integer"},
                "content_type": {"type": "string"},
                "created_at": {"type": "string"},
                "filename": {"type": "string"},
                "id": {"type": "string"},
                "size": {"type": "integer"}
            }
        },
        "model.FileInfo": {
            "type": "object",
            "properties": {
                "content_type": {"type": "string"},
                "filename": {"type": "string"},
                "is_video": {"type": "boolean"},
                "size": {"type": "integer"},
                "size_human": {"type": "string"},
                "stream_url": {"type": "string"}
            }
        },
        "service.FileListResult": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.File"}},
                "total": {"type": "integer"}
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
	Title:            "chunkvault API",
	Description:      "Chunked uploads, capability tokens and byte-range streaming.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
