package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiufpe/hub-api/internal/assistant"
	"github.com/hiufpe/hub-api/internal/tools"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
	"github.com/hiufpe/hub-api/pkg/response"
)

// AssistantHandler exposes the conversational assistant and its tool catalog.
type AssistantHandler struct {
	assistant *assistant.Assistant
	tools     *tools.Registry
}

// NewAssistantHandler constructs AssistantHandler. A nil assistant disables the chat endpoints.
func NewAssistantHandler(a *assistant.Assistant, registry *tools.Registry) *AssistantHandler {
	return &AssistantHandler{assistant: a, tools: registry}
}

var errAssistantDisabled = appErrors.New("ASSISTANT_DISABLED", http.StatusServiceUnavailable, "assistant is not enabled")

// Send godoc
// @Summary Send a message to the assistant
// @Tags Assistant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body assistant.SendRequest true "Message"
// @Success 200 {object} response.Envelope
// @Router /assistant/messages [post]
func (h *AssistantHandler) Send(c *gin.Context) {
	if h.assistant == nil {
		response.Error(c, errAssistantDisabled)
		return
	}
	var req assistant.SendRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, err := h.assistant.Send(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}

// Conversations godoc
// @Summary List conversations
// @Tags Assistant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assistant/conversations [get]
func (h *AssistantHandler) Conversations(c *gin.Context) {
	if h.assistant == nil {
		response.Error(c, errAssistantDisabled)
		return
	}
	conversations, err := h.assistant.Conversations(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, conversations)
}

// History godoc
// @Summary Conversation messages
// @Tags Assistant
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} response.Envelope
// @Router /assistant/conversations/{id}/messages [get]
func (h *AssistantHandler) History(c *gin.Context) {
	if h.assistant == nil {
		response.Error(c, errAssistantDisabled)
		return
	}
	messages, err := h.assistant.History(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, messages)
}

// Tools godoc
// @Summary Tool catalog
// @Tags Assistant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assistant/tools [get]
func (h *AssistantHandler) Tools(c *gin.Context) {
	response.OK(c, h.tools.Specs())
}

// Invoke godoc
// @Summary Invoke one tool directly
// @Description Failures are returned in the error field with status 200.
// @Tags Assistant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Tool name"
// @Success 200 {object} response.Envelope
// @Router /assistant/tools/{name} [post]
func (h *AssistantHandler) Invoke(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result := h.tools.Invoke(c.Request.Context(), claimsFromContext(c), c.Param("name"), raw)
	response.OK(c, gin.H{"tool": result.Tool, "output": result.Output, "error": result.Error})
}
