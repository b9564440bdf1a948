package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Day schedule planner for class timetables",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Timetable",
            "description": "Day schedule drafts and stored timetables"
        }
    ],
    "paths": {
        "/timetables/drafts": {
            "post": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Open a day schedule draft",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateDraftRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/timetables/drafts/{draftId}": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Get a draft",
                "parameters": [
                    {
                        "name": "draftId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Draft ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Discard a draft",
                "parameters": [
                    {
                        "name": "draftId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Draft ID"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/timetables/drafts/{draftId}/periods/{index}": {
            "patch": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Set one field of a period",
                "description": "Setting a teacher clears the subject. A rejected edit returns 422 with the unchanged draft.",
                "parameters": [
                    {
                        "name": "draftId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Draft ID"
                    },
                    {
                        "name": "index",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "description": "0-based period index"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdatePeriodRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Timetable conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/timetables/drafts/{draftId}/day": {
            "put": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Move a draft to another weekday",
                "parameters": [
                    {
                        "name": "draftId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Draft ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ChangeDayRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/timetables/drafts/{draftId}/validity": {
            "put": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Set recurrence, effective window and status of an edited schedule",
                "parameters": [
                    {
                        "name": "draftId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Draft ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ValidityRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/timetables/drafts/{draftId}/subjects": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "List subjects a teacher may be assigned",
                "parameters": [
                    {
                        "name": "draftId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Draft ID"
                    },
                    {
                        "name": "teacherId",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Teacher ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/timetables/drafts/{draftId}/submit": {
            "post": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Store a draft as a day schedule",
                "parameters": [
                    {
                        "name": "draftId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Draft ID"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Duplicate schedule",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "422": {
                        "description": "Timetable conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "502": {
                        "description": "Persistence failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/timetables/{id}/edit": {
            "post": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Reopen a stored day schedule for editing",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Day schedule ID"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/timetables/{id}": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Get a stored day schedule with its periods",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Day schedule ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Delete a stored day schedule",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Day schedule ID"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes/{id}/timetables": {
            "get": {
                "tags": [
                    "Timetable"
                ],
                "summary": "List stored day schedules of a class",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    },
                    {
                        "name": "day",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Weekday"
                    },
                    {
                        "name": "academicYear",
                        "in": "query",
                        "required": false,
                        "type": "string",
                        "description": "Academic year"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": ""
                    },
                    {
                        "name": "pageSize",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": ""
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid input",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/classes/{id}/catalog/refresh": {
            "post": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Reload a class catalog",
                "description": "Re-reads the class subjects and teacher qualifications used to check edits.",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Class ID"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/catalog/cache": {
            "delete": {
                "tags": [
                    "Timetable"
                ],
                "summary": "Drop every cached class catalog",
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "CreateDraftRequest": {
            "type": "object",
            "required": [
                "classId"
            ],
            "properties": {
                "classId": {
                    "type": "string"
                },
                "day": {
                    "type": "string",
                    "enum": [
                        "MONDAY",
                        "TUESDAY",
                        "WEDNESDAY",
                        "THURSDAY",
                        "FRIDAY",
                        "SATURDAY"
                    ]
                },
                "academicYear": {
                    "type": "string"
                },
                "periodCount": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 16
                }
            }
        },
        "UpdatePeriodRequest": {
            "type": "object",
            "required": [
                "field"
            ],
            "properties": {
                "field": {
                    "type": "string",
                    "enum": [
                        "teacher_id",
                        "subject_id",
                        "start_time",
                        "end_time",
                        "location",
                        "notes"
                    ]
                },
                "value": {
                    "type": "string"
                }
            }
        },
        "ChangeDayRequest": {
            "type": "object",
            "required": [
                "day"
            ],
            "properties": {
                "day": {
                    "type": "string",
                    "enum": [
                        "MONDAY",
                        "TUESDAY",
                        "WEDNESDAY",
                        "THURSDAY",
                        "FRIDAY",
                        "SATURDAY"
                    ]
                }
            }
        },
        "ValidityRequest": {
            "type": "object",
            "properties": {
                "isRecurring": {
                    "type": "boolean"
                },
                "effectiveFrom": {
                    "type": "string",
                    "format": "date-time"
                },
                "effectiveUntil": {
                    "type": "string",
                    "format": "date-time"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "ACTIVE",
                        "INACTIVE"
                    ]
                }
            }
        },
        "Period": {
            "type": "object",
            "properties": {
                "period_number": {
                    "type": "integer"
                },
                "start_time": {
                    "type": "string",
                    "example": "08:00"
                },
                "end_time": {
                    "type": "string",
                    "example": "08:45"
                },
                "subject_id": {
                    "type": "string"
                },
                "teacher_id": {
                    "type": "string"
                },
                "location": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "DaySchedule": {
            "type": "object",
            "properties": {
                "class_id": {
                    "type": "string"
                },
                "day": {
                    "type": "string",
                    "enum": [
                        "MONDAY",
                        "TUESDAY",
                        "WEDNESDAY",
                        "THURSDAY",
                        "FRIDAY",
                        "SATURDAY"
                    ]
                },
                "academic_year": {
                    "type": "string"
                },
                "mode": {
                    "type": "string",
                    "enum": [
                        "CREATE",
                        "EDIT"
                    ]
                },
                "periods": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Period"
                    }
                },
                "is_recurring": {
                    "type": "boolean"
                },
                "effective_from": {
                    "type": "string",
                    "format": "date-time"
                },
                "effective_until": {
                    "type": "string",
                    "format": "date-time"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "ACTIVE",
                        "INACTIVE"
                    ]
                }
            }
        },
        "TimetableDraft": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "schedule_id": {
                    "type": "string"
                },
                "schedule": {
                    "$ref": "#/definitions/DaySchedule"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "ConflictDetails": {
            "type": "object",
            "properties": {
                "rule": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "field": {
                    "type": "string"
                },
                "period_number": {
                    "type": "integer"
                },
                "conflicting_period": {
                    "type": "integer"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "$ref": "#/definitions/ConflictDetails"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
