package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TheSurve API",
        "description": "Read-only listing API and autocomplete for TheSurve survey postings.",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Postings", "description": "Survey postings and autocomplete"}
    ],
    "paths": {
        "/postings": {
            "get": {
                "tags": ["Postings"],
                "summary": "List postings",
                "description": "Returns one page of postings, newest first. Follow pagination.next_offset until has_more is false.",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string", "description": "Filter text, ignored when shorter than three characters"},
                    {"name": "offset", "in": "query", "type": "integer", "description": "Zero-based offset"},
                    {"name": "limit", "in": "query", "type": "integer", "description": "Page size, at most 50"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/ResponseEnvelope"},
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {"type": "array", "items": {"$ref": "#/definitions/PostingCard"}}
                                    }
                                }
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/postings/{id}": {
            "get": {
                "tags": ["Postings"],
                "summary": "Get posting",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Posting ID"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/ResponseEnvelope"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/Posting"}}}
                            ]
                        }
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/suggestions/{field}": {
            "get": {
                "tags": ["Postings"],
                "summary": "Autocomplete values",
                "description": "Existing school or course values containing q. Short input returns an empty list.",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "field", "in": "path", "type": "string", "required": true, "enum": ["school", "course"]},
                    {"name": "q", "in": "query", "type": "string", "description": "Typed text"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/ResponseEnvelope"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"type": "string"}}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "PostingCard": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "url": {"type": "string"},
                "title": {"type": "string"},
                "course": {"type": "string"},
                "school": {"type": "string"},
                "excerpt": {"type": "string"},
                "estimated_time": {"type": "string"}
            }
        },
        "Posting": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "course": {"type": "string"},
                "school": {"type": "string"},
                "survey_title": {"type": "string"},
                "description": {"type": "string"},
                "survey_link": {"type": "string"},
                "estimated_time": {"type": "string", "example": "0:10:00"},
                "submitter": {"type": "string"},
                "date_created": {"type": "string", "format": "date-time"},
                "date_updated": {"type": "string", "format": "date-time"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "offset": {"type": "integer"},
                "limit": {"type": "integer"},
                "total_count": {"type": "integer"},
                "has_more": {"type": "boolean"},
                "next_offset": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
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
