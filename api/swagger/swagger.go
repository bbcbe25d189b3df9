package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Classroom API",
        "description": "Teacher and student administration: registrations, common students, suspensions and notification recipients",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Classroom", "description": "Teacher to student registrations"},
        {"name": "Health", "description": "Liveness and readiness probes"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Database unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/register": {
            "post": {
                "tags": ["Classroom"],
                "summary": "Register students to a teacher",
                "description": "Creates the teacher and students when missing. Registering an existing pair is a no-op.",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterStudentsRequest"}}
                ],
                "responses": {
                    "204": {"description": "Registered"},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/commonstudents": {
            "get": {
                "tags": ["Classroom"],
                "summary": "List students common to all given teachers",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "teacher", "in": "query", "required": true, "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CommonStudentsEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "One or more teachers not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/suspend": {
            "post": {
                "tags": ["Classroom"],
                "summary": "Suspend a student",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SuspendStudentRequest"}}
                ],
                "responses": {
                    "204": {"description": "Suspended"},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/retrievefornotifications": {
            "post": {
                "tags": ["Classroom"],
                "summary": "Resolve the recipients of a notification",
                "description": "Non-suspended students registered to the teacher plus non-suspended students @mentioned in the text.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NotificationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/NotificationRecipientsEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterStudentsRequest": {
            "type": "object",
            "required": ["teacher", "students"],
            "properties": {
                "teacher": {"type": "string", "format": "email"},
                "students": {"type": "array", "minItems": 1, "items": {"type": "string", "format": "email"}}
            }
        },
        "SuspendStudentRequest": {
            "type": "object",
            "required": ["student"],
            "properties": {
                "student": {"type": "string", "format": "email"}
            }
        },
        "NotificationRequest": {
            "type": "object",
            "required": ["teacher", "notification"],
            "properties": {
                "teacher": {"type": "string", "format": "email"},
                "notification": {"type": "string"}
            }
        },
        "CommonStudentsEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "properties": {
                        "students": {"type": "array", "items": {"type": "string"}}
                    }
                }
            }
        },
        "NotificationRecipientsEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object",
                    "properties": {
                        "recipients": {"type": "array", "items": {"type": "string"}}
                    }
                }
            }
        },
        "HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
