package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

type scorePayload struct {
	Score float64 `validate:"gte=0,lte=10"`
	Name  string  `validate:"required"`
}

func render(err error) (*httptest.ResponseRecorder, map[string]any) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	Error(c, err)

	var body map[string]any
	_ = json.Unmarshal(recorder.Body.Bytes(), &body)
	return recorder, body
}

func TestErrorListsValidationFields(t *testing.T) {
	verr := validator.New().Struct(scorePayload{Score: 11})
	require.Error(t, verr)

	recorder, body := render(appErrors.Wrap(verr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score"))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "no-store", recorder.Header().Get("Cache-Control"))

	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errBody["code"])

	fields := body["meta"].(map[string]any)["fields"].([]any)
	require.Len(t, fields, 2)
	first := fields[0].(map[string]any)
	assert.Equal(t, "scorePayload.Score", first["field"])
	assert.Equal(t, "lte", first["rule"])
	assert.Equal(t, "10", first["param"])
}

func TestErrorHidesUnknownCauses(t *testing.T) {
	recorder, body := render(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "INTERNAL_ERROR", errBody["code"])
	assert.Equal(t, "internal server error", errBody["message"])
	assert.Nil(t, body["meta"])
}
