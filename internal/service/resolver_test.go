package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

func catalog() []models.EnrollmentDetail {
	return []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "e1"}, CourseCode: "INF110", CourseName: "Algoritmos"},
		{Enrollment: models.Enrollment{ID: "e2"}, CourseCode: "MAT201", CourseName: "Álgebra Linear"},
		{Enrollment: models.Enrollment{ID: "e3"}, CourseCode: "MAT101", CourseName: "Cálculo I"},
	}
}

func TestResolveSubject(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"Algoritmos", "e1"},
		{"  ALGORITMOS ", "e1"},
		{"inf110", "e1"},
		{"algebra", "e2"},
		{"calculo", "e3"},
		{"Cálculo I", "e3"},
		{"linear", "e2"},
		{"algoritms", "e1"},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			got, err := ResolveSubject(catalog(), tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.ID)
		})
	}
}

func TestResolveSubjectAmbiguous(t *testing.T) {
	_, err := ResolveSubject(catalog(), "algo")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAmbiguousReference)
	assert.Contains(t, err.Error(), "Algoritmos")
	assert.Contains(t, err.Error(), "Álgebra Linear")
}

func TestResolveSubjectNotFound(t *testing.T) {
	_, err := ResolveSubject(catalog(), "química")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = ResolveSubject(catalog(), "   ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestResolveAssessment(t *testing.T) {
	items := []models.AssessmentItem{{ID: "i1", Name: "Prova 1"}, {ID: "i2", Name: "Prova 2"}, {ID: "i3", Name: "Trabalho final"}}

	got, err := ResolveAssessment(items, "prova 2")
	require.NoError(t, err)
	assert.Equal(t, "i2", got.ID)

	got, err = ResolveAssessment(items, "trabalho")
	require.NoError(t, err)
	assert.Equal(t, "i3", got.ID)

	_, err = ResolveAssessment(items, "prova")
	assert.ErrorIs(t, err, appErrors.ErrAmbiguousReference)
}
