package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/unicitynetwork/triviad"
)

type toolErrorEnvelope struct {
	ErrorCode string `json:"error_code"`
	Detail    string `json:"detail,omitempty"`
	Retryable bool   `json:"retryable"`
}

// withStructuredToolErrors converts handler errors into a JSON envelope so
// the calling agent always receives a structured payload instead of an
// opaque protocol fault.
func withStructuredToolErrors[In, Out any](h mcpsdk.ToolHandlerFor[In, Out]) mcpsdk.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, input)
		if err == nil {
			return res, out, nil
		}
		var zero Out
		return nil, zero, toolError{Envelope: classifyToolError(err)}
	}
}

type toolError struct {
	Envelope toolErrorEnvelope
}

func (e toolError) Error() string {
	envelope := map[string]any{"error": e.Envelope}
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return `{"error":{"error_code":"tool_error","detail":"failed to encode error envelope"}}`
	}
	return string(encoded)
}

func classifyToolError(err error) toolErrorEnvelope {
	env := toolErrorEnvelope{ErrorCode: "tool_error", Detail: strings.TrimSpace(err.Error())}
	switch {
	case errors.Is(err, triviad.ErrNoQuestions), errors.Is(err, triviad.ErrNoActiveQuestion):
		env.ErrorCode = "not_found"
	case errors.Is(err, triviad.ErrUnknownRequest):
		env.ErrorCode = "unknown_request"
	case errors.Is(err, triviad.ErrIdentityNotFound):
		env.ErrorCode = "identity_unresolved"
	case errors.Is(err, triviad.ErrUnauthorized):
		env.ErrorCode = "unauthorized"
	case errors.Is(err, context.DeadlineExceeded):
		env.ErrorCode = "timeout"
		env.Retryable = true
	default:
		lower := strings.ToLower(env.Detail)
		switch {
		case strings.Contains(lower, "required"),
			strings.Contains(lower, "must be"),
			strings.Contains(lower, "invalid"):
			env.ErrorCode = "invalid_argument"
		case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline"):
			env.ErrorCode = "timeout"
			env.Retryable = true
		case strings.Contains(lower, "temporar"), strings.Contains(lower, "try again"):
			env.ErrorCode = "unavailable"
			env.Retryable = true
		}
	}
	return env
}
