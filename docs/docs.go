// Package docs holds the generated OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/api/user": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "List users",
                "parameters": [
                    {"type": "string", "description": "date_joined, -date_joined, username, -username, id, -id", "name": "ordering", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.userResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "Registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.fieldErrorsResponse"}}
                }
            }
        },
        "/api/user/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Read own profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Update own profile",
                "parameters": [
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.profileUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/user/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Get a user",
                "parameters": [{"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Replace a user",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true},
                    {"description": "email and username are required", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.userUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.fieldErrorsResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["user"],
                "summary": "Patch a user",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.userUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.fieldErrorsResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/admin": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List users (admin)",
                "parameters": [
                    {"type": "string", "description": "date_joined, -date_joined, username, -username, id, -id", "name": "ordering", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.adminUserResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/admin/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Get a user (admin)",
                "parameters": [{"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.adminUserResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Replace a user (admin)",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true},
                    {"description": "email and username are required", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.userUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.adminUserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.fieldErrorsResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Patch a user (admin)",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.userUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.adminUserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.fieldErrorsResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Delete a user (admin)",
                "parameters": [{"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/token/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["token"],
                "summary": "Obtain a token pair",
                "parameters": [
                    {"description": "email (or username) and password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.tokenObtainRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.tokenPairResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.fieldErrorsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/token/refresh/": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["token"],
                "summary": "Refresh an access token",
                "parameters": [
                    {"description": "Refresh token", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.tokenRefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.accessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.fieldErrorsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.accessResponse": {
            "type": "object",
            "properties": {"access": {"type": "string"}}
        },
        "handler.adminUserResponse": {
            "type": "object",
            "properties": {
                "avatar": {"type": "string"},
                "description": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "integer"},
                "is_superuser": {"type": "boolean"},
                "username": {"type": "string"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.fieldErrorsResponse": {
            "type": "object",
            "additionalProperties": {"type": "array", "items": {"type": "string"}}
        },
        "handler.profileUpdateRequest": {
            "type": "object",
            "properties": {
                "avatar": {"type": "string"},
                "description": {"type": "string"},
                "email": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "avatar": {"type": "string"},
                "description": {"type": "string"},
                "email": {"type": "string", "maxLength": 254},
                "password": {"type": "string", "maxLength": 128},
                "username": {"type": "string", "maxLength": 150}
            }
        },
        "handler.tokenObtainRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.tokenPairResponse": {
            "type": "object",
            "properties": {"access": {"type": "string"}, "refresh": {"type": "string"}}
        },
        "handler.tokenRefreshRequest": {
            "type": "object",
            "required": ["refresh"],
            "properties": {"refresh": {"type": "string"}}
        },
        "handler.userResponse": {
            "type": "object",
            "properties": {
                "avatar": {"type": "string"},
                "description": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "integer"},
                "username": {"type": "string"}
            }
        },
        "handler.userUpdateRequest": {
            "type": "object",
            "properties": {
                "avatar": {"type": "string"},
                "description": {"type": "string"},
                "email": {"type": "string", "maxLength": 254},
                "username": {"type": "string", "maxLength": 150}
            }
        },
        "handlers.dependencyStatus": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "status": {"type": "string"}}
        },
        "handlers.readinessResponse": {
            "type": "object",
            "properties": {
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handlers.dependencyStatus"}},
                "status": {"type": "string"}
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
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "User API",
	Description:      "User registration, profile self-service, admin management and JWT tokens.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
