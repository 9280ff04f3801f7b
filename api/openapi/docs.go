// Package openapi registers the swagger document served at /swagger.
package openapi

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
        "/comments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "List the comments of a thread",
                "parameters": [
                    {"type": "string", "description": "Thread id", "name": "threadId", "in": "query", "required": true},
                    {"type": "string", "description": "all or sticked", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.CommentInfo"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Post a comment or a reply",
                "parameters": [
                    {"type": "string", "description": "Acting user", "name": "X-User-Id", "in": "header"},
                    {"description": "Comment", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CommentCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.CommentInfo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Parent or author not found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Parent is deleted", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/comments/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Search comments",
                "parameters": [
                    {"type": "string", "description": "Query", "name": "q", "in": "query", "required": true},
                    {"type": "string", "description": "Restrict to a thread", "name": "threadId", "in": "query"},
                    {"type": "integer", "description": "At most 100", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.SearchCommentData"}}
                }
            }
        },
        "/comments/{id}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Edit the body or the pin of a comment",
                "parameters": [
                    {"type": "string", "description": "Acting user", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "integer", "description": "Comment id", "name": "id", "in": "path", "required": true},
                    {"description": "Changes", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CommentUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.CommentInfo"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["comments"],
                "summary": "Delete a comment",
                "description": "The comment stays as a tombstone so its replies keep their parent. Deleting twice succeeds.",
                "parameters": [
                    {"type": "string", "description": "Acting user", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "integer", "description": "Comment id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "parameters": [
                    {"type": "string", "description": "User id", "name": "id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.UserInfo"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create a user",
                "parameters": [
                    {"description": "User", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UserCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.UserInfo"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/users/{id}/avatar": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Upload an avatar",
                "parameters": [
                    {"type": "string", "description": "Acting user", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true},
                    {"type": "file", "description": "Image, at most 2 MiB", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.UserInfo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/reactions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reactions"],
                "summary": "List reactions of a thread or a comment",
                "parameters": [
                    {"type": "string", "description": "Thread id", "name": "threadId", "in": "query"},
                    {"type": "string", "description": "Comment id", "name": "commentId", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.ReactionInfo"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reactions"],
                "summary": "React to a comment",
                "description": "A repeated (comment, user, kind) returns the existing reaction with 200",
                "parameters": [
                    {"type": "string", "description": "Acting user", "name": "X-User-Id", "in": "header"},
                    {"description": "Reaction", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ReactionCreateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ReactionInfo"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.ReactionInfo"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Comment is deleted", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/reactions/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reactions"],
                "summary": "Reaction counts of a comment",
                "parameters": [
                    {"type": "string", "description": "Comment id", "name": "commentId", "in": "query", "required": true},
                    {"type": "string", "description": "Flag this user's reactions", "name": "userId", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.ReactionSummaryItem"}}}
                }
            }
        },
        "/reactions/{id}": {
            "delete": {
                "tags": ["reactions"],
                "summary": "Remove a reaction",
                "parameters": [
                    {"type": "string", "description": "Acting user", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "integer", "description": "Reaction id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.CommentCreateRequest": {
            "type": "object",
            "required": ["threadId"],
            "properties": {
                "threadId": {"type": "string"},
                "parentId": {"type": "string"},
                "authorId": {"type": "string"},
                "body": {"type": "string"}
            }
        },
        "dto.CommentUpdateRequest": {
            "type": "object",
            "properties": {
                "body": {"type": "string"},
                "sticked": {"type": "boolean"}
            }
        },
        "dto.CommentInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "threadId": {"type": "string"},
                "parentId": {"type": "string"},
                "authorId": {"type": "string"},
                "body": {"type": "string"},
                "sticked": {"type": "boolean"},
                "deleted": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "dto.SearchCommentData": {
            "type": "object",
            "properties": {
                "comments": {"type": "array", "items": {"$ref": "#/definitions/dto.CommentInfo"}},
                "total": {"type": "integer"},
                "source": {"type": "string"}
            }
        },
        "dto.UserCreateRequest": {
            "type": "object",
            "required": ["username"],
            "properties": {
                "username": {"type": "string"},
                "avatar": {"type": "string"},
                "avatarType": {"type": "string", "enum": ["square", "circle"]},
                "role": {"type": "string", "enum": ["user", "moderator"]}
            }
        },
        "dto.UserInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "avatar": {"type": "string"},
                "avatarType": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "dto.ReactionCreateRequest": {
            "type": "object",
            "required": ["commentId", "kind"],
            "properties": {
                "commentId": {"type": "string"},
                "userId": {"type": "string"},
                "kind": {"type": "string"}
            }
        },
        "dto.ReactionInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "commentId": {"type": "string"},
                "userId": {"type": "string"},
                "kind": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "dto.ReactionSummaryItem": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "count": {"type": "integer"},
                "currentUserReacted": {"type": "boolean"}
            }
        },
        "response.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/response.ErrorInfo"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "127.0.0.1:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "remark-go API",
	Description:      "Comment threads, users and reactions for embeddable comment widgets",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
