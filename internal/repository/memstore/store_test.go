package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
)

func TestUpdateDiscardsChangesOnError(t *testing.T) {
	store := New()
	ctx := context.Background()
	course := &models.Course{Code: "ALG", Name: "Algoritmos", Workload: 20}
	require.NoError(t, store.Update(ctx, func(tx repository.LedgerTx) error { return tx.CreateCourse(ctx, course) }))

	boom := errors.New("boom")
	err := store.Update(ctx, func(tx repository.LedgerTx) error {
		if err := tx.CreateEnrollment(ctx, &models.Enrollment{StudentID: "stu", CourseID: course.ID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, store.View(ctx, func(tx repository.LedgerTx) error {
		enrollments, err := tx.ListEnrollments(ctx, models.EnrollmentFilter{})
		require.NoError(t, err)
		assert.Empty(t, enrollments)
		return nil
	}))
}

func TestStoredScoresAreCopied(t *testing.T) {
	store := New()
	ctx := context.Background()
	score := 7.0
	item := &models.AssessmentItem{MethodID: "m", Name: "P1", Weight: 1, Score: &score}
	require.NoError(t, store.Update(ctx, func(tx repository.LedgerTx) error { return tx.CreateItem(ctx, item) }))
	score = 1

	require.NoError(t, store.View(ctx, func(tx repository.LedgerTx) error {
		got, err := tx.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 7.0, *got.Score)
		return nil
	}))
}

func TestConversationsWindow(t *testing.T) {
	store := NewConversations()
	ctx := context.Background()
	conv := &models.Conversation{StudentID: "stu"}
	require.NoError(t, store.CreateConversation(ctx, conv))
	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, store.AppendMessage(ctx, &models.Message{ConversationID: conv.ID, Role: models.MessageRoleUser, Content: text}))
	}
	messages, err := store.ListMessages(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "b", messages[0].Content)
	assert.Equal(t, "c", messages[1].Content)
}
