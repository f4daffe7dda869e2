package errors

import (
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrAmbiguousReference, "subject 'algo' matches Algoritmos, Álgebra Linear")
	assert.True(t, stdErrors.Is(err, ErrAmbiguousReference))
	assert.False(t, stdErrors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Equal(t, "reference matches more than one record", ErrAmbiguousReference.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("load: %w", sql.ErrConnDone))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.True(t, stdErrors.Is(appErr, sql.ErrConnDone))

	wrapped := fmt.Errorf("outer: %w", Clone(ErrUnsupported, ""))
	assert.Equal(t, ErrUnsupported.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}
