// Package docs registers the OpenAPI description of the fotiva HTTP API
// with swag, for the Swagger UI served at /swagger/.
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
        "/utterances": {
            "post": {
                "description": "Accepts a JSON utterance (typed text or base64 audio) or raw audio bytes.\nThe utterance is classified and run against the session's pending event draft;\nthe reply carries the bot messages, the draft state and any navigation directive.",
                "consumes": ["application/json", "audio/wav", "audio/webm", "audio/ogg"],
                "produces": ["application/json"],
                "tags": ["utterances"],
                "summary": "Submit an utterance",
                "parameters": [
                    {
                        "description": "Utterance (JSON). For raw audio, POST the bytes directly with the audio Content-Type.",
                        "name": "utterance",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/message.Utterance"}
                    },
                    {
                        "type": "string",
                        "description": "Session id (used with raw audio uploads)",
                        "name": "X-Fotiva-Session",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "none, text, audio or text+audio (used with raw audio uploads)",
                        "name": "X-Fotiva-Response-Mode",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Turn outcome",
                        "schema": {"$ref": "#/definitions/message.Reply"}
                    },
                    "400": {
                        "description": "Invalid request body",
                        "schema": {"type": "string"}
                    },
                    "413": {
                        "description": "Body larger than the upload limit",
                        "schema": {"type": "string"}
                    },
                    "500": {
                        "description": "Internal processing error",
                        "schema": {"type": "string"}
                    }
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["utterances"],
                "summary": "Conversation over WebSocket",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Session id applied to frames that name none",
                        "name": "session",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "MIME type of binary audio frames (default audio/webm)",
                        "name": "content_type",
                        "in": "query"
                    }
                ],
                "responses": {
                    "101": {
                        "description": "Switching protocols",
                        "schema": {"type": "string"}
                    }
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Inspect a session",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Session id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/transport.SessionView"}
                    },
                    "500": {
                        "description": "Session store error",
                        "schema": {"type": "string"}
                    }
                }
            },
            "delete": {
                "tags": ["sessions"],
                "summary": "Reset a session",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Session id",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "500": {
                        "description": "Session store error",
                        "schema": {"type": "string"}
                    }
                }
            }
        }
    },
    "definitions": {
        "message.Utterance": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "session": {"type": "string"},
                "text": {"type": "string"},
                "audio": {"type": "string", "format": "byte"},
                "content_type": {"type": "string"},
                "response_mode": {"type": "string", "enum": ["none", "text", "audio", "text+audio"]},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "message.Line": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["user", "bot"]},
                "text": {"type": "string"}
            }
        },
        "message.Navigation": {
            "type": "object",
            "properties": {
                "route": {"type": "string"},
                "delay_ms": {"type": "integer"}
            }
        },
        "message.EventSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "client_id": {"type": "string"},
                "client_name": {"type": "string"},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "location": {"type": "string"},
                "total_value": {"type": "number"},
                "status": {"type": "string"}
            }
        },
        "message.Reply": {
            "type": "object",
            "properties": {
                "message_id": {"type": "string"},
                "session": {"type": "string"},
                "transcript": {"type": "string"},
                "intent": {"type": "string"},
                "state": {"type": "string"},
                "draft": {"$ref": "#/definitions/slots.Result"},
                "missing": {"type": "array", "items": {"type": "string"}},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/message.Line"}},
                "navigation": {"$ref": "#/definitions/message.Navigation"},
                "event": {"$ref": "#/definitions/message.EventSummary"},
                "response_audio": {"type": "string"},
                "response_content_type": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "slots.Result": {
            "type": "object",
            "properties": {
                "event_name": {"type": "string"},
                "client_name": {"type": "string"},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "location": {"type": "string"},
                "value": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "transport.SessionView": {
            "type": "object",
            "properties": {
                "session": {"type": "string"},
                "state": {"type": "string", "enum": ["idle", "awaiting_slots"]},
                "draft": {"$ref": "#/definitions/slots.Result"},
                "missing": {"type": "array", "items": {"type": "string"}}
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
	Title:            "fotiva API",
	Description:      "Voice and text assistant for the photography studio: event creation by dialogue and screen navigation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
