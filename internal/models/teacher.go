package models

// Teacher represents an instructor record.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Active   bool   `db:"active" json:"active"`
}

// TeacherSubject is a row of the teacher qualification table.
type TeacherSubject struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}

// TeacherCatalog is a teacher together with the subjects they are qualified to teach.
type TeacherCatalog struct {
	Teacher
	SubjectIDs []string `json:"subject_ids"`
}
