// Package tools exposes ledger operations as named, schema-described calls for
// conversational agents. Every call returns a serialisable result; failures are
// reported as {"error": "..."} and never escape as Go errors.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// Observer records tool outcomes.
type Observer interface {
	ObserveToolInvocation(tool string, failed bool)
}

type invoker func(ctx context.Context, actor *models.JWTClaims, raw json.RawMessage) (any, error)

// Spec describes one tool for catalog listings.
type Spec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type entry struct {
	spec   Spec
	invoke invoker
}

// Registry maps tool names to typed handlers.
type Registry struct {
	entries   map[string]entry
	validator *validator.Validate
	observer  Observer
	logger    *zap.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(validate *validator.Validate, observer Observer, logger *zap.Logger) *Registry {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{entries: map[string]entry{}, validator: validate, observer: observer, logger: logger}
}

// Register adds a handler whose argument schema is derived from A.
// Registering the same name twice panics.
func Register[A any, R any](r *Registry, name, description string, fn func(ctx context.Context, actor *models.JWTClaims, args A) (R, error)) {
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("tools: %s registered twice", name))
	}
	r.entries[name] = entry{
		spec: Spec{Name: name, Description: description, Parameters: schemaFor(reflect.TypeOf((*A)(nil)).Elem())},
		invoke: func(ctx context.Context, actor *models.JWTClaims, raw json.RawMessage) (any, error) {
			var args A
			if len(raw) > 0 && string(raw) != "null" {
				if err := json.Unmarshal(raw, &args); err != nil {
					return nil, appErrors.Clone(appErrors.ErrValidation, "arguments are not valid JSON for "+name)
				}
			}
			if err := r.validator.Struct(args); err != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, "invalid arguments: "+describeValidation(err))
			}
			return fn(ctx, actor, args)
		},
	}
}

// Specs lists every tool sorted by name.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, 0, len(r.entries))
	for _, e := range r.entries {
		specs = append(specs, e.spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Spec returns one tool description.
func (r *Registry) Spec(name string) (Spec, bool) {
	e, ok := r.entries[name]
	return e.spec, ok
}

// LLMTools projects the catalog into completion-service function tools.
func (r *Registry) LLMTools() []llms.Tool {
	specs := r.Specs()
	out := make([]llms.Tool, 0, len(specs))
	for _, spec := range specs {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}
	return out
}

// Result is the outcome of one invocation.
type Result struct {
	Tool   string
	Output any
	Error  string
}

// Failed reports whether the call produced an error object.
func (r Result) Failed() bool {
	return r.Error != ""
}

// JSON renders the output, or {"error": ...} for failures.
func (r Result) JSON() string {
	var payload any = r.Output
	if r.Failed() {
		payload = map[string]string{"error": r.Error}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"error": "result could not be encoded"})
	}
	return string(data)
}

// Invoke runs a tool on behalf of actor.
func (r *Registry) Invoke(ctx context.Context, actor *models.JWTClaims, name string, raw json.RawMessage) (result Result) {
	result.Tool = name
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", zap.String("tool", name), zap.Any("panic", rec))
			result.Output = nil
			result.Error = "the operation failed unexpectedly"
		}
		r.observe(name, result.Failed())
		r.logger.Info("tool invoked",
			zap.String("tool", name),
			zap.Bool("failed", result.Failed()),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	e, ok := r.entries[name]
	if !ok {
		result.Error = fmt.Sprintf("unknown tool %q", name)
		return result
	}
	if actor == nil {
		result.Error = "caller identity is required"
		return result
	}
	output, err := e.invoke(ctx, actor, raw)
	if err != nil {
		result.Error = reason(err)
		return result
	}
	result.Output = output
	return result
}

func (r *Registry) observe(name string, failed bool) {
	if r.observer == nil {
		return
	}
	if _, ok := r.entries[name]; !ok {
		name = "unknown"
	}
	r.observer.ObserveToolInvocation(name, failed)
}

// reason keeps domain messages and hides internal ones.
func reason(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Code != appErrors.ErrInternal.Code {
		return appErr.Message
	}
	return "the operation could not be completed"
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
