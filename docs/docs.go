// Package docs registers the OpenAPI 2.0 description of the relay API that
// gin-swagger serves under /swagger. Keep it in step with the handler
// annotations in internal/http/handlers.
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
        "/topics": {
            "post": {
                "description": "Creates a topic. When notification_config is supplied the bot credential is checked once against the provider; a rejected or unreachable credential fails the request and nothing is stored.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Topics"
                ],
                "summary": "Create a topic",
                "operationId": "createTopic",
                "parameters": [
                    {
                        "description": "Topic definition",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.CreateTopicRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handlers.CreateTopicResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid body, name or notification config",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Storage failure",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/topics/{id}/messages": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "description": "Returns the topic's messages newest first. Requires the contact bearer token. Any lookup failure is reported as 404.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Messages"
                ],
                "summary": "List a topic's messages",
                "operationId": "listMessages",
                "parameters": [
                    {
                        "type": "string",
                        "format": "uuid",
                        "description": "Topic ID (UUID)",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "minimum": 1,
                        "type": "integer",
                        "description": "Return at most this many (newest) messages",
                        "name": "limit",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "ETag from a previous listing",
                        "name": "If-None-Match",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/domain.Message"
                            }
                        }
                    },
                    "304": {
                        "description": "Not modified"
                    },
                    "400": {
                        "description": "Invalid limit",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Missing or invalid bearer token",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Topic or messages not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "description": "Stores a message for the topic. If the topic has a notification config the message is relayed to Telegram in the background; delivery never affects this response.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Messages"
                ],
                "summary": "Ingest a message",
                "operationId": "postMessage",
                "parameters": [
                    {
                        "type": "string",
                        "example": "7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab",
                        "description": "Key for safe retries",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "format": "uuid",
                        "description": "Topic ID (UUID)",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Message",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handlers.PostMessageRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Stored"
                    },
                    "400": {
                        "description": "Malformed body",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Topic not found",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Storage failure",
                        "schema": {
                            "$ref": "#/definitions/handlers.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "domain.Message": {
            "type": "object",
            "properties": {
                "contacts": {
                    "type": "object"
                },
                "created_at": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "text": {
                    "type": "string"
                },
                "topic_id": {
                    "type": "string"
                }
            }
        },
        "handlers.CreateTopicRequest": {
            "type": "object",
            "required": [
                "name"
            ],
            "properties": {
                "name": {
                    "description": "Name labels the topic (1–255 characters after trimming).",
                    "type": "string",
                    "example": "Website contact form"
                },
                "notification_config": {
                    "description": "NotificationConfig, when present, relays every message to Telegram.",
                    "allOf": [
                        {
                            "$ref": "#/definitions/handlers.NotificationConfigRequest"
                        }
                    ]
                }
            }
        },
        "handlers.CreateTopicResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string",
                    "example": "6f1c2a8e-3b4d-4e5f-9a0b-1c2d3e4f5a6b"
                }
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "description": "Stable, machine-readable code (see errors.go constants)",
                    "type": "string",
                    "example": "not_found"
                },
                "message": {
                    "description": "Human-readable message (safe to show to users)",
                    "type": "string",
                    "example": "topic not found"
                },
                "request_id": {
                    "description": "Correlates server logs and client errors",
                    "type": "string",
                    "example": "123e4567-e89b-12d3-a456-426614174000"
                }
            }
        },
        "handlers.NotificationConfigRequest": {
            "type": "object",
            "required": [
                "credential",
                "destination"
            ],
            "properties": {
                "credential": {
                    "description": "Credential is the bot token; it is verified once with getMe.",
                    "type": "string",
                    "example": "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"
                },
                "destination": {
                    "description": "Destination is the chat id messages are relayed to.",
                    "type": "string",
                    "example": "-1001234567890"
                }
            }
        },
        "handlers.PostMessageRequest": {
            "type": "object",
            "required": [
                "contacts",
                "text"
            ],
            "properties": {
                "contacts": {
                    "description": "Contacts is any JSON value identifying the sender, null included.",
                    "type": "object"
                },
                "text": {
                    "description": "Text is the free-form body; it may be empty.",
                    "type": "string",
                    "example": "Please call me back about the quote."
                }
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
	Title:            "Topic Relay API",
	Description:      "Topic/message ingestion with fire-and-forget Telegram relay.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
