// Package docs registers the OpenAPI document served at /swagger when
// SWAGGER_ENABLED is set. Regenerate with `swag init -g cmd/server/main.go`.
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in with student id and name",
                "operationId": "login",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LoginResponse"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Invalid student ID or name", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Clear the session cookie",
                "operationId": "logout",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Current user and group",
                "operationId": "me",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Workspace"}},
                    "401": {"description": "Not logged in", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/groups/{groupId}/messages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "List a group's messages",
                "operationId": "listMessages",
                "parameters": [
                    {"minimum": 1, "type": "integer", "description": "Group ID", "name": "groupId", "in": "path", "required": true},
                    {"type": "string", "description": "ETag from a previous response", "name": "If-None-Match", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListMessagesResponse"}},
                    "304": {"description": "Not modified"},
                    "400": {"description": "Bad group id", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Not logged in", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Not a member", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/messages": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Send a message",
                "description": "Stores the message. A mention of the assistant schedules a reply after commit; with async or amqp dispatch the reply appears in a later list call, only inline dispatch stores it before responding.",
                "operationId": "postMessage",
                "parameters": [
                    {"type": "string", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Message form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PostMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.PostMessageResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Not logged in", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Not a member", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Failed to save", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/groups/{groupId}/document": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Read a document",
                "operationId": "getDocument",
                "parameters": [
                    {"minimum": 1, "type": "integer", "description": "Group ID", "name": "groupId", "in": "path", "required": true},
                    {"type": "integer", "description": "Read this member's document instead of your own", "name": "userId", "in": "query"},
                    {"type": "boolean", "description": "Read the group's shared document", "name": "shared", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.DocumentResponse"}},
                    "400": {"description": "Bad id", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Not a member", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/groups/{groupId}/document/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "List a document's saves",
                "operationId": "getDocumentHistory",
                "parameters": [
                    {"minimum": 1, "type": "integer", "description": "Group ID", "name": "groupId", "in": "path", "required": true},
                    {"type": "integer", "description": "Member whose document to inspect", "name": "userId", "in": "query"},
                    {"type": "boolean", "description": "Inspect the shared document", "name": "shared", "in": "query"},
                    {"maximum": 500, "minimum": 0, "type": "integer", "description": "Maximum entries; 0 or absent returns all", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HistoryResponse"}},
                    "403": {"description": "Not a member", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents": {
            "put": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Save the shared document",
                "operationId": "saveDocument",
                "parameters": [
                    {"description": "Content and group", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SaveDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SaveDocumentResponse"}},
                    "404": {"description": "No shared document", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Failed to save", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents/snapshot": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Save your own document",
                "operationId": "saveDocumentSnapshot",
                "parameters": [
                    {"description": "Content and group", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SaveDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SnapshotResponse"}},
                    "500": {"description": "Failed to save", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/documents/submit": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Documents"],
                "summary": "Submit your document",
                "operationId": "submitDocument",
                "parameters": [
                    {"description": "Group", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SubmitDocumentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SubmitResponse"}},
                    "404": {"description": "Nothing saved yet", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Group": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "name": {"type": "string"}}
        },
        "domain.User": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "name": {"type": "string"}, "avatar_url": {"type": "string"}}
        },
        "domain.OriginalMessage": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "content": {"type": "string"}, "user_name": {"type": "string"}}
        },
        "domain.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "group_id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "content": {"type": "string"},
                "reply_to": {"type": "integer"},
                "is_reply": {"type": "boolean"},
                "created_at": {"type": "string"},
                "name": {"type": "string"},
                "avatar_url": {"type": "string"},
                "original_message": {"$ref": "#/definitions/domain.OriginalMessage"}
            }
        },
        "domain.HistoryEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "name": {"type": "string"},
                "avatar_url": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "services.Workspace": {
            "type": "object",
            "properties": {"user": {"$ref": "#/definitions/domain.User"}, "group": {"$ref": "#/definitions/domain.Group"}}
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "not found"}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "properties": {"studentId": {"type": "string", "example": "12345"}, "name": {"type": "string", "example": "Alice"}}
        },
        "handlers.LoginResponse": {
            "type": "object",
            "properties": {"user": {"$ref": "#/definitions/domain.User"}}
        },
        "handlers.PostMessageRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "@nate what is a counter-argument?"},
                "groupId": {"type": "string", "example": "1"},
                "replyTo": {"type": "string", "example": "42"}
            }
        },
        "handlers.PostMessageResponse": {
            "type": "object",
            "properties": {"message": {"$ref": "#/definitions/domain.Message"}, "assistant_triggered": {"type": "boolean"}}
        },
        "handlers.ListMessagesResponse": {
            "type": "object",
            "properties": {"messages": {"type": "array", "items": {"$ref": "#/definitions/domain.Message"}}}
        },
        "handlers.SaveDocumentRequest": {
            "type": "object",
            "properties": {"content": {"type": "string"}, "groupId": {"type": "string", "example": "1"}}
        },
        "handlers.SubmitDocumentRequest": {
            "type": "object",
            "properties": {"groupId": {"type": "string", "example": "1"}}
        },
        "handlers.DocumentResponse": {
            "type": "object",
            "properties": {"content": {"type": "string"}}
        },
        "handlers.HistoryResponse": {
            "type": "object",
            "properties": {"history": {"type": "array", "items": {"$ref": "#/definitions/domain.HistoryEntry"}}}
        },
        "handlers.SaveDocumentResponse": {
            "type": "object",
            "properties": {"changed": {"type": "boolean"}}
        },
        "handlers.SnapshotResponse": {
            "type": "object",
            "properties": {"success": {"type": "boolean", "example": true}}
        },
        "handlers.SubmitResponse": {
            "type": "object",
            "properties": {"message": {"type": "string", "example": "Document submitted successfully!"}, "content": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "SessionCookie": {"type": "apiKey", "name": "userId", "in": "cookie"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Classroom API",
	Description:      "Group chat with an AI debate assistant and collaborative essay documents.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
