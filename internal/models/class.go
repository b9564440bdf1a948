package models

import "time"

// Class represents an academic class or section.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Grade     string    `db:"grade" json:"grade"`
	Track     string    `db:"track" json:"track"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSubject is a row of the class-to-subject entitlement table.
type ClassSubject struct {
	ClassID   string `db:"class_id" json:"class_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}

// ClassCatalog is a class together with the subjects it is allowed to study.
type ClassCatalog struct {
	Class
	SubjectIDs []string `json:"subject_ids"`
}
