package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func subjectIDs(subjects []models.Subject) []string {
	ids := make([]string, 0, len(subjects))
	for _, s := range subjects {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestAvailableSubjects(t *testing.T) {
	catalog := testCatalog()

	assert.Equal(t, []string{"math", "physics", "chemistry"}, subjectIDs(catalog.AvailableSubjects("t1")))
	assert.Equal(t, []string{"math", "physics"}, subjectIDs(catalog.AvailableSubjectsForClass("class-10a", "t1")))
	assert.Equal(t, []string{"math", "biology"}, subjectIDs(catalog.AvailableSubjectsForClass("class-10a", "t2")))
	assert.Empty(t, catalog.AvailableSubjects(""))
	assert.Empty(t, catalog.AvailableSubjectsForClass("unknown", "t1"))
}

func TestNilCatalogIsEmpty(t *testing.T) {
	var catalog *Catalog
	assert.False(t, catalog.HasTeacher("t1"))
	assert.False(t, catalog.ClassAllows("c", "s"))
	assert.Empty(t, catalog.AvailableSubjects("t1"))
}
