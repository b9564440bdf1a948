package planner

import "github.com/noah-isme/sma-timetable-api/internal/models"

type idSet map[string]struct{}

func newIDSet(ids []string) idSet {
	set := make(idSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// Catalog indexes the classes, teachers and subjects a schedule is checked against.
// It is immutable once built.
type Catalog struct {
	classes  map[string]idSet
	teachers map[string]idSet
	subjects []models.Subject
}

// NewCatalog indexes an already fetched reference snapshot.
func NewCatalog(snapshot models.TimetableCatalog) *Catalog {
	c := &Catalog{
		classes:  make(map[string]idSet, len(snapshot.Classes)),
		teachers: make(map[string]idSet, len(snapshot.Teachers)),
		subjects: append([]models.Subject(nil), snapshot.Subjects...),
	}
	for _, class := range snapshot.Classes {
		c.classes[class.ID] = newIDSet(class.SubjectIDs)
	}
	for _, teacher := range snapshot.Teachers {
		c.teachers[teacher.ID] = newIDSet(teacher.SubjectIDs)
	}
	return c
}

// HasTeacher reports whether the teacher is known.
func (c *Catalog) HasTeacher(teacherID string) bool {
	if c == nil {
		return false
	}
	_, ok := c.teachers[teacherID]
	return ok
}

// ClassAllows reports whether the class is entitled to study the subject.
func (c *Catalog) ClassAllows(classID, subjectID string) bool {
	if c == nil {
		return false
	}
	return c.classes[classID].has(subjectID)
}

// TeacherQualified reports whether the teacher may teach the subject.
func (c *Catalog) TeacherQualified(teacherID, subjectID string) bool {
	if c == nil {
		return false
	}
	return c.teachers[teacherID].has(subjectID)
}

// AvailableSubjects returns the subjects the teacher is qualified for, in catalog order.
// It is recomputed on every call so options never go stale after a teacher change.
func (c *Catalog) AvailableSubjects(teacherID string) []models.Subject {
	return c.filterSubjects(func(id string) bool {
		return c.TeacherQualified(teacherID, id)
	})
}

// AvailableSubjectsForClass narrows AvailableSubjects to those the class may study.
func (c *Catalog) AvailableSubjectsForClass(classID, teacherID string) []models.Subject {
	return c.filterSubjects(func(id string) bool {
		return c.TeacherQualified(teacherID, id) && c.ClassAllows(classID, id)
	})
}

func (c *Catalog) filterSubjects(keep func(id string) bool) []models.Subject {
	result := make([]models.Subject, 0)
	if c == nil {
		return result
	}
	for _, subject := range c.subjects {
		if keep(subject.ID) {
			result = append(result, subject)
		}
	}
	return result
}
