// Package assistant runs the conversational tool loop over a completion service.
package assistant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/tools"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// FallbackReply is sent when the model keeps calling tools past the round limit.
const FallbackReply = "Sorry, I could not finish that request. Could you rephrase it or try again?"

const titleRunes = 60

// Model is the subset of a langchaingo model the loop needs.
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// ToolRunner executes catalog tools.
type ToolRunner interface {
	LLMTools() []llms.Tool
	Invoke(ctx context.Context, actor *models.JWTClaims, name string, raw json.RawMessage) tools.Result
}

// ConversationStore persists conversations and their messages.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, studentID string) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
}

// RoundObserver records how many completion rounds a reply took.
type RoundObserver interface {
	ObserveAssistantRounds(rounds int)
}

// Config bounds the loop.
type Config struct {
	MaxToolRounds int
	HistoryWindow int
}

// SendRequest is one user turn.
type SendRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" validate:"required,max=4000"`
}

// ToolTrace records one tool call made while answering.
type ToolTrace struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
	Failed    bool   `json:"failed"`
}

// Reply is the assistant's answer to one user turn.
type Reply struct {
	ConversationID string         `json:"conversation_id"`
	Message        models.Message `json:"message"`
	ToolCalls      []ToolTrace    `json:"tool_calls"`
	Rounds         int            `json:"rounds"`
}

// Assistant answers student questions using the tool catalog.
type Assistant struct {
	model         Model
	tools         ToolRunner
	conversations ConversationStore
	prompts       *PromptBuilder
	observer      RoundObserver
	cfg           Config
	validator     *validator.Validate
	logger        *zap.Logger
}

// New constructs an assistant.
func New(model Model, runner ToolRunner, conversations ConversationStore, prompts *PromptBuilder, observer RoundObserver, cfg Config, validate *validator.Validate, logger *zap.Logger) *Assistant {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 5
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		model:         model,
		tools:         runner,
		conversations: conversations,
		prompts:       prompts,
		observer:      observer,
		cfg:           cfg,
		validator:     validate,
		logger:        logger,
	}
}

// Send persists the user message, runs the tool loop and persists the reply.
func (a *Assistant) Send(ctx context.Context, actor *models.JWTClaims, req SendRequest) (*Reply, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := a.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}

	conversation, err := a.conversation(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	userMessage := &models.Message{ConversationID: conversation.ID, Role: models.MessageRoleUser, Content: req.Message}
	if err := a.conversations.AppendMessage(ctx, userMessage); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}

	history, err := a.conversations.ListMessages(ctx, conversation.ID, a.cfg.HistoryWindow)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	prompt, err := a.prompts.Build(ctx, actor)
	if err != nil {
		return nil, err
	}

	text, traces, rounds, err := a.run(ctx, actor, prompt, history)
	if err != nil {
		return nil, err
	}

	reply := &models.Message{ConversationID: conversation.ID, Role: models.MessageRoleAssistant, Content: text}
	if err := a.conversations.AppendMessage(ctx, reply); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reply")
	}
	return &Reply{ConversationID: conversation.ID, Message: *reply, ToolCalls: traces, Rounds: rounds}, nil
}

// Conversations lists the actor's conversations, most recent first.
func (a *Assistant) Conversations(ctx context.Context, actor *models.JWTClaims) ([]models.Conversation, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	conversations, err := a.conversations.ListConversations(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conversations")
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}
	return conversations, nil
}

// History returns every message of one of the actor's conversations.
func (a *Assistant) History(ctx context.Context, actor *models.JWTClaims, conversationID string) ([]models.Message, error) {
	if _, err := a.owned(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	messages, err := a.conversations.ListMessages(ctx, conversationID, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

func (a *Assistant) conversation(ctx context.Context, actor *models.JWTClaims, req SendRequest) (*models.Conversation, error) {
	if req.ConversationID != "" {
		return a.owned(ctx, actor, req.ConversationID)
	}
	conversation := &models.Conversation{StudentID: actor.UserID, Title: title(req.Message)}
	if err := a.conversations.CreateConversation(ctx, conversation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create conversation")
	}
	return conversation, nil
}

func (a *Assistant) owned(ctx context.Context, actor *models.JWTClaims, id string) (*models.Conversation, error) {
	if actor == nil || actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	conversation, err := a.conversations.GetConversation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "conversation not found")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conversation")
	}
	if conversation.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "conversation not found")
	}
	return conversation, nil
}

// run alternates completion calls and sequential tool execution until the model answers in text.
func (a *Assistant) run(ctx context.Context, actor *models.JWTClaims, prompt string, history []models.Message) (string, []ToolTrace, int, error) {
	messages := make([]llms.MessageContent, 0, len(history)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, prompt))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == models.MessageRoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}

	catalog := a.tools.LLMTools()
	traces := []ToolTrace{}
	for round := 1; round <= a.cfg.MaxToolRounds; round++ {
		start := time.Now()
		resp, err := a.model.GenerateContent(ctx, messages, llms.WithTools(catalog))
		if err != nil {
			a.logger.Error("completion failed", zap.Int("round", round), zap.Error(err))
			return "", nil, round, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "assistant is unavailable")
		}
		if resp == nil || len(resp.Choices) == 0 {
			return "", nil, round, appErrors.Clone(appErrors.ErrInternal, "assistant returned no answer")
		}
		choice := resp.Choices[0]
		a.logger.Debug("completion round",
			zap.Int("round", round),
			zap.Int("tool_calls", len(choice.ToolCalls)),
			zap.Duration("duration", time.Since(start)),
		)

		if len(choice.ToolCalls) == 0 {
			a.observe(round)
			return choice.Content, traces, round, nil
		}

		call := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			call.Parts = append(call.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			call.Parts = append(call.Parts, tc)
		}
		messages = append(messages, call)

		for _, tc := range choice.ToolCalls {
			name, args := "", ""
			if tc.FunctionCall != nil {
				name, args = tc.FunctionCall.Name, tc.FunctionCall.Arguments
			}
			result := a.tools.Invoke(ctx, actor, name, json.RawMessage(args))
			content := result.JSON()
			traces = append(traces, ToolTrace{Name: name, Arguments: args, Result: content, Failed: result.Failed()})
			messages = append(messages, llms.MessageContent{
				Role:  llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{ToolCallID: tc.ID, Name: name, Content: content}},
			})
		}
	}

	a.logger.Warn("tool round limit reached", zap.Int("rounds", a.cfg.MaxToolRounds), zap.String("student_id", actor.UserID))
	a.observe(a.cfg.MaxToolRounds)
	return FallbackReply, traces, a.cfg.MaxToolRounds, nil
}

func (a *Assistant) observe(rounds int) {
	if a.observer != nil {
		a.observer.ObserveAssistantRounds(rounds)
	}
}

func title(message string) string {
	message = strings.Join(strings.Fields(message), " ")
	if utf8.RuneCountInString(message) <= titleRunes {
		return message
	}
	return string([]rune(message)[:titleRunes]) + "…"
}
