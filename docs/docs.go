// Package docs registra el documento OpenAPI que sirve /swagger.
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
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"Bearer": []}],
    "paths": {
        "/health": {
            "get": {"tags": ["system"], "summary": "Liveness", "security": [], "responses": {"200": {"description": "ok"}}}
        },
        "/me": {
            "get": {"tags": ["users"], "summary": "Perfil y módulos del usuario autenticado", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/admin/users": {
            "get": {"tags": ["users"], "summary": "Lista usuarios", "parameters": [{"name": "tipo_usuario", "in": "query", "type": "string"}, {"name": "q", "in": "query", "type": "string"}, {"name": "limit", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/users/{userID}": {
            "get": {"tags": ["users"], "summary": "Obtiene un usuario", "parameters": [{"name": "userID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["users"], "summary": "Crea o actualiza perfil y rol", "parameters": [{"name": "userID", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UserInput"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/certificate-numbers/next": {
            "get": {"tags": ["certificate-numbers"], "summary": "Candidato SSNNNAA (no avanza el secuencial)", "responses": {"200": {"description": "OK"}, "409": {"description": "Secuencial agotado"}}}
        },
        "/certificate-numbers/last": {
            "get": {"tags": ["certificate-numbers"], "summary": "Último número persistido", "responses": {"200": {"description": "OK"}}}
        },
        "/certificate-numbers/increment": {
            "post": {"tags": ["certificate-numbers"], "summary": "Avanza el secuencial en 1 (solo admin)", "description": "Corrección manual. POST /certificates ya avanza el secuencial; no llamar después de emitir.", "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        },
        "/certificate-numbers/override": {
            "post": {"tags": ["certificate-numbers"], "summary": "Registra un número escrito a mano (solo admin)", "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"type": "object", "properties": {"number": {"type": "string"}}}}], "responses": {"204": {"description": "No Content"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}
        },
        "/equipment": {
            "get": {"tags": ["equipment"], "summary": "Lista equipos", "parameters": [{"name": "type", "in": "query", "type": "string"}, {"name": "sector", "in": "query", "type": "string"}, {"name": "status", "in": "query", "type": "string"}, {"name": "calibration_status", "in": "query", "type": "string", "enum": ["valid", "expiring", "expired"]}, {"name": "q", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "page_size", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["equipment"], "summary": "Crea un equipo", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/equipment/{equipmentID}": {
            "get": {"tags": ["equipment"], "summary": "Obtiene un equipo", "parameters": [{"name": "equipmentID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"tags": ["equipment"], "summary": "Actualiza un equipo", "parameters": [{"name": "equipmentID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["equipment"], "summary": "Elimina un equipo", "parameters": [{"name": "equipmentID", "in": "path", "required": true, "type": "string"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/equipment/{equipmentID}/certificates": {
            "get": {"tags": ["certificates"], "summary": "Historial de calibraciones", "parameters": [{"name": "equipmentID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/certificates": {
            "get": {"tags": ["certificates"], "summary": "Lista certificados", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["certificates"], "summary": "Emite un certificado (JSON o multipart con file)", "consumes": ["application/json", "multipart/form-data"], "responses": {"201": {"description": "Created"}, "409": {"description": "Número duplicado"}}}
        },
        "/certificates/report.csv": {
            "get": {"tags": ["certificates"], "summary": "Reporte CSV", "produces": ["text/csv"], "responses": {"200": {"description": "OK"}}}
        },
        "/certificates/{certificateID}": {
            "get": {"tags": ["certificates"], "summary": "Obtiene un certificado", "parameters": [{"name": "certificateID", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["certificates"], "summary": "Elimina un certificado", "parameters": [{"name": "certificateID", "in": "path", "required": true, "type": "string"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/fdus": {
            "get": {"tags": ["safety-sheets"], "summary": "Lista FDU", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["safety-sheets"], "summary": "Crea una FDU (multipart con file)", "consumes": ["multipart/form-data"], "responses": {"201": {"description": "Created"}}}
        },
        "/fdus/statistics": {
            "get": {"tags": ["safety-sheets"], "summary": "Estadísticas FDU", "responses": {"200": {"description": "OK"}}}
        },
        "/fispqs": {
            "get": {"tags": ["safety-sheets"], "summary": "Lista FISPQ", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["safety-sheets"], "summary": "Crea una FISPQ (multipart con file)", "consumes": ["multipart/form-data"], "responses": {"201": {"description": "Created"}}}
        },
        "/fispqs/statistics": {
            "get": {"tags": ["safety-sheets"], "summary": "Estadísticas FISPQ", "responses": {"200": {"description": "OK"}}}
        },
        "/emergency-sheets": {
            "get": {"tags": ["emergency-sheets"], "summary": "Lista fichas de emergencia", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["emergency-sheets"], "summary": "Crea una ficha (multipart con file)", "consumes": ["multipart/form-data"], "responses": {"201": {"description": "Created"}}}
        },
        "/emergency-sheets/statistics": {
            "get": {"tags": ["emergency-sheets"], "summary": "Estadísticas de fichas", "responses": {"200": {"description": "OK"}}}
        },
        "/public/equipment": {
            "get": {"tags": ["public"], "summary": "Consulta pública de equipos", "security": [], "responses": {"200": {"description": "OK"}, "429": {"description": "Too Many Requests"}}}
        },
        "/public/fdus": {
            "get": {"tags": ["public"], "summary": "Consulta pública de FDU", "security": [], "responses": {"200": {"description": "OK"}}}
        },
        "/public/fispqs": {
            "get": {"tags": ["public"], "summary": "Consulta pública de FISPQ", "security": [], "responses": {"200": {"description": "OK"}}}
        },
        "/public/emergency-sheets": {
            "get": {"tags": ["public"], "summary": "Consulta pública de fichas de emergencia", "security": [], "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "UserInput": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "nome": {"type": "string"},
                "sobrenome": {"type": "string"},
                "tipo_usuario": {"type": "string", "enum": ["admin", "metrologista", "quimico"]},
                "matricula": {"type": "string"}
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
	Title:            "Metrology Records API",
	Description:      "Equipos, certificados de calibración, FDU/FISPQ y fichas de emergencia.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
