package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Greedy academic timetable generation with published timetable storage.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Timetables", "description": "Generation, publishing and export"},
        {"name": "Observability", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Liveness probe with a metrics snapshot",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A backing store is unreachable"}
                }
            }
        },
        "/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a timetable",
                "description": "Returns the raw generation result. status is success, partial or error.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerationResult"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/GenerateError"}},
                    "500": {"description": "Unexpected fault", "schema": {"$ref": "#/definitions/GenerateError"}}
                }
            }
        },
        "/api/v1/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a timetable (prefixed alias)",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerationResult"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/GenerateError"}}
                }
            }
        },
        "/api/v1/timetables/jobs": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Queue a timetable generation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/jobs/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Poll a queued generation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List published timetables",
                "parameters": [
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "year", "in": "query", "type": "string"},
                    {"name": "division", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Timetables"],
                "summary": "Publish a class timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PublishTimetableRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a published timetable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetables"],
                "summary": "Delete a published timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{id}/export": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download a published timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{id}/export-links": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Issue a signed download link",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/exports/{token}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download a stored export by signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "403": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/teachers/{name}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Teacher week derived from published timetables",
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No published sessions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "required": ["years"],
            "properties": {
                "department": {"type": "string"},
                "years": {"type": "object", "additionalProperties": {"$ref": "#/definitions/YearPayload"}},
                "teachers": {"type": "array", "items": {"$ref": "#/definitions/TeacherPayload"}},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/RoomPayload"}},
                "savedTimetables": {"type": "array", "items": {"$ref": "#/definitions/SavedTimetable"}},
                "roomMappings": {"type": "object"}
            }
        },
        "YearPayload": {
            "type": "object",
            "properties": {
                "divisions": {"type": "integer"},
                "daysPerWeek": {"type": "integer"},
                "holidays": {"type": "array", "items": {"type": "string"}},
                "periodsPerDay": {"type": "integer"},
                "lunchBreak": {"type": "integer"},
                "timeConfig": {
                    "type": "object",
                    "properties": {
                        "startTime": {"type": "string", "example": "09:00"},
                        "endTime": {"type": "string", "example": "16:00"},
                        "periodDuration": {"type": "integer"},
                        "lunchStart": {"type": "string"},
                        "lunchDuration": {"type": "integer"}
                    }
                },
                "subjects": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "code": {"type": "string"},
                            "type": {"type": "string", "enum": ["Theory", "Lab", "Tutorial"]},
                            "hours": {"type": "integer"},
                            "batches": {"type": "integer"},
                            "labDuration": {"type": "integer"}
                        }
                    }
                }
            }
        },
        "TeacherPayload": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "subjects": {"type": "array", "items": {"type": "object", "properties": {"code": {"type": "string"}}}},
                "maxHoursPerDay": {"type": "integer"}
            }
        },
        "RoomPayload": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["Classroom", "Lab", "Tutorial"]},
                "primaryYear": {"type": "string"},
                "primaryDivision": {"type": "string"}
            }
        },
        "SavedTimetable": {
            "type": "object",
            "properties": {
                "year": {"type": "string"},
                "division": {"type": "string"},
                "timetableData": {"type": "object"}
            }
        },
        "PublishTimetableRequest": {
            "type": "object",
            "required": ["department", "year", "division", "timetableData"],
            "properties": {
                "department": {"type": "string"},
                "year": {"type": "string"},
                "division": {"type": "string"},
                "timetableData": {"type": "object"}
            }
        },
        "GenerationResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["success", "partial", "error"]},
                "class_timetable": {"type": "object"},
                "teacher_timetable": {"type": "object"},
                "room_timetable": {"type": "object"},
                "time_slots": {"type": "object"},
                "conflicts": {"type": "array", "items": {"type": "object"}},
                "room_conflicts": {"type": "array", "items": {"type": "object"}},
                "unallocated": {"type": "array", "items": {"type": "object"}},
                "recommendations": {"type": "array", "items": {"type": "object"}},
                "room_recommendations": {"type": "array", "items": {"type": "object"}},
                "lab_conflicts": {"type": "array", "items": {"type": "object"}},
                "warnings": {"type": "array", "items": {"type": "string"}},
                "critical_issues": {"type": "array", "items": {"type": "string"}},
                "stats": {"type": "object"}
            }
        },
        "GenerateError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
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
