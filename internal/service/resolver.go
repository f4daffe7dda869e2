package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/samber/lo"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

const fuzzyMinRunes = 4

// foldText lower-cases s, strips diacritics and collapses whitespace.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

type candidate[T any] struct {
	value T
	code  string
	name  string
	label string
}

// resolveName picks the single candidate a free-text query refers to.
// Exact code or name wins outright; otherwise substring and one-edit prefix matches are
// collected and must be unique.
func resolveName[T any](query, noun string, candidates []candidate[T]) (T, error) {
	var zero T
	q := foldText(query)
	if q == "" {
		return zero, appErrors.Clone(appErrors.ErrValidation, noun+" is required")
	}

	exact := lo.Filter(candidates, func(c candidate[T], _ int) bool { return c.code == q || c.name == q })
	if len(exact) == 1 {
		return exact[0].value, nil
	}
	if len(exact) > 1 {
		return zero, ambiguous(query, noun, exact)
	}

	fuzzy := !strings.Contains(q, " ") && utf8.RuneCountInString(q) >= fuzzyMinRunes
	matches := lo.Filter(candidates, func(c candidate[T], _ int) bool {
		if strings.Contains(c.name, q) {
			return true
		}
		return fuzzy && nearPrefix(c.name, q)
	})
	switch len(matches) {
	case 0:
		return zero, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no %s matches %q", noun, query))
	case 1:
		return matches[0].value, nil
	default:
		return zero, ambiguous(query, noun, matches)
	}
}

// nearPrefix reports whether a word of name starts with something within one edit of q.
func nearPrefix(name, q string) bool {
	n := utf8.RuneCountInString(q)
	for _, word := range strings.Fields(name) {
		r := []rune(word)
		if len(r) < n {
			continue
		}
		if levenshtein.ComputeDistance(string(r[:n]), q) <= 1 {
			return true
		}
	}
	return false
}

func ambiguous[T any](query, noun string, matches []candidate[T]) error {
	labels := lo.Map(matches, func(c candidate[T], _ int) string { return c.label })
	return appErrors.Clone(appErrors.ErrAmbiguousReference,
		fmt.Sprintf("%q matches more than one %s: %s", query, noun, strings.Join(labels, ", ")))
}

// ResolveSubject matches free text against course names and codes of the given enrollments.
func ResolveSubject(enrollments []models.EnrollmentDetail, query string) (*models.EnrollmentDetail, error) {
	candidates := make([]candidate[*models.EnrollmentDetail], 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		candidates = append(candidates, candidate[*models.EnrollmentDetail]{
			value: e,
			code:  foldText(e.CourseCode),
			name:  foldText(e.CourseName),
			label: e.CourseName,
		})
	}
	return resolveName(query, "subject", candidates)
}

// ResolveAssessment matches free text against the item names of a method.
func ResolveAssessment(items []models.AssessmentItem, query string) (*models.AssessmentItem, error) {
	candidates := make([]candidate[*models.AssessmentItem], 0, len(items))
	for i := range items {
		item := &items[i]
		candidates = append(candidates, candidate[*models.AssessmentItem]{
			value: item,
			name:  foldText(item.Name),
			label: item.Name,
		})
	}
	return resolveName(query, "assessment", candidates)
}

// ResolveSubject finds the actor's enrollment in the active term named by query.
func (s *EnrollmentService) ResolveSubject(ctx context.Context, actor *models.JWTClaims, query string) (*models.EnrollmentDetail, error) {
	studentID, err := scopeStudent(actor, "")
	if err != nil {
		return nil, err
	}
	var enrollments []models.EnrollmentDetail
	err = s.store.View(ctx, func(tx repository.LedgerTx) error {
		var err error
		enrollments, err = tx.ListEnrollments(ctx, models.EnrollmentFilter{StudentID: studentID, Term: s.defaults.ActiveTerm})
		return err
	})
	if err != nil {
		return nil, normalizeError(err, "list enrollments")
	}
	return ResolveSubject(enrollments, query)
}
