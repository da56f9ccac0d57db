// Package docs registers the OpenAPI description served under /swagger.
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
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register an account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.accountResponse"}},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/auth/sign-in": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "header", "name": "X-Session-ID", "type": "string", "description": "Previous session scope id, discarded; a fresh one is always minted"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.signInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/auth/sign-out": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign out",
                "parameters": [
                    {"in": "header", "name": "X-Session-ID", "type": "string", "required": true, "description": "Session scope id"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/v1/session": {
            "get": {
                "tags": ["session"],
                "summary": "Current session",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "header", "name": "X-Session-ID", "type": "string", "required": true, "description": "Session scope id"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/session/stages/{stage}": {
            "get": {
                "tags": ["session"],
                "summary": "Stage access",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "header", "name": "X-Session-ID", "type": "string", "required": true, "description": "Session scope id"},
                    {"in": "path", "name": "stage", "type": "string", "required": true, "description": "Stage id"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.stageAccessResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/profile": {
            "put": {
                "tags": ["session"],
                "summary": "Update laboratory profile",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "header", "name": "X-Session-ID", "type": "string", "required": true, "description": "Session scope id"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/v1/impersonation": {
            "post": {
                "tags": ["impersonation"],
                "summary": "Start impersonation",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "header", "name": "X-Session-ID", "type": "string", "required": true, "description": "Session scope id"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.startImpersonationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Conflict"}
                }
            },
            "delete": {
                "tags": ["impersonation"],
                "summary": "End impersonation",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "header", "name": "X-Session-ID", "type": "string", "required": true, "description": "Session scope id"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "401": {"description": "Unauthorized"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/functions/impersonate-user": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["functions"],
                "summary": "Impersonate a user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.impersonateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.impersonateUserResponse"}},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/functions/end-impersonation": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["functions"],
                "summary": "End an impersonation session",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.endImpersonationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.successResponse"}},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    },
    "definitions": {
        "handler.registerRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8}
            }
        },
        "handler.signInRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.accountResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "handler.updateProfileRequest": {
            "type": "object",
            "properties": {
                "company_name": {"type": "string"},
                "contact_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "city": {"type": "string"},
                "zip_code": {"type": "string"},
                "country": {"type": "string"}
            }
        },
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "role": {"type": "string"},
                "identity": {"type": "object"},
                "impersonation": {"type": "object"}
            }
        },
        "handler.stageAccessResponse": {
            "type": "object",
            "properties": {
                "stage": {"type": "string"},
                "can_access": {"type": "boolean"},
                "can_edit": {"type": "boolean"}
            }
        },
        "handler.startImpersonationRequest": {
            "type": "object",
            "required": ["targetUserId"],
            "properties": {
                "targetUserId": {"type": "string"}
            }
        },
        "handler.impersonateUserRequest": {
            "type": "object",
            "required": ["targetUserId"],
            "properties": {
                "targetUserId": {"type": "string"}
            }
        },
        "handler.endImpersonationRequest": {
            "type": "object",
            "required": ["sessionId"],
            "properties": {
                "sessionId": {"type": "string"}
            }
        },
        "handler.functionUser": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "handler.impersonateUserResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "sessionId": {"type": "string"},
                "adminUser": {"$ref": "#/definitions/handler.functionUser"},
                "targetUser": {"$ref": "#/definitions/handler.functionUser"},
                "expiresAt": {"type": "string"},
                "accessToken": {"type": "string"},
                "refreshToken": {"type": "string"}
            }
        },
        "handler.successResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"}
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
	Title:            "Labdesk Identity API",
	Description:      "Session identity, capabilities and administrator impersonation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
