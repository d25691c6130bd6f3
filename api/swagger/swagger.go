package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Volunteer Portal API",
        "description": "Spreadsheet-backed volunteer signup portal",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Auth", "description": "Accounts and tokens"},
        {"name": "Slots", "description": "Signup sheet reservations"},
        {"name": "Forum", "description": "Discussion board"},
        {"name": "Admin", "description": "Account administration"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Create an account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange credentials for a token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current account",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/slots": {
            "get": {
                "tags": ["Slots"],
                "summary": "List signup slots",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "all", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "mine", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Slots"],
                "summary": "Add a signup slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin only"}
                }
            }
        },
        "/slots/{row}/reserve": {
            "post": {
                "tags": ["Slots"],
                "summary": "Reserve a slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "row", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Reserved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot already taken"}
                }
            }
        },
        "/slots/{row}/cancel": {
            "post": {
                "tags": ["Slots"],
                "summary": "Cancel the caller's reservation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "row", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Cancelled"},
                    "403": {"description": "Not the reservation owner"},
                    "409": {"description": "Shift already completed"}
                }
            }
        },
        "/slots/export": {
            "get": {
                "tags": ["Slots"],
                "summary": "Download the roster",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/forum/posts": {
            "get": {
                "tags": ["Forum"],
                "summary": "List threads",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Forum"],
                "summary": "Start a thread",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePostRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forum/posts/{id}": {
            "get": {
                "tags": ["Forum"],
                "summary": "Thread with replies",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/forum/posts/{id}/replies": {
            "post": {
                "tags": ["Forum"],
                "summary": "Reply to a thread",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReplyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Thread is locked"}
                }
            }
        },
        "/forum/posts/{id}/lock": {
            "post": {
                "tags": ["Forum"],
                "summary": "Lock a thread",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Locked"}
                }
            }
        },
        "/forum/posts/{id}/unlock": {
            "post": {
                "tags": ["Forum"],
                "summary": "Unlock a thread",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Unlocked"}
                }
            }
        },
        "/forum/posts/{id}/delete": {
            "post": {
                "tags": ["Forum"],
                "summary": "Delete a thread",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/forum/replies/{id}/delete": {
            "post": {
                "tags": ["Forum"],
                "summary": "Delete a reply",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/admin/users/{email}/admin": {
            "put": {
                "tags": ["Admin"],
                "summary": "Grant or revoke the admin role",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "email", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetAdminRequest"}}
                ],
                "responses": {
                    "204": {"description": "Updated"},
                    "404": {"description": "No account with that email"}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8}
            },
            "required": ["first_name", "last_name", "email", "password"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "AddSlotRequest": {
            "type": "object",
            "properties": {
                "event": {"type": "string"},
                "location": {"type": "string"},
                "date": {"type": "string", "example": "2025-10-04"},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "12:00"},
                "hours": {"type": "number"},
                "contact": {"type": "string"}
            },
            "required": ["event", "date", "start_time", "end_time"]
        },
        "CreatePostRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "body": {"type": "string"}
            },
            "required": ["title", "body"]
        },
        "CreateReplyRequest": {
            "type": "object",
            "properties": {
                "body": {"type": "string"}
            },
            "required": ["body"]
        },
        "SetAdminRequest": {
            "type": "object",
            "properties": {
                "is_admin": {"type": "boolean"}
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
