package runner

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/crisisbench/crisisbench/internal/runtime"
)

// ToolHandler services some subset of tool names. Handlers are registered
// with the router in priority order; the first whose CanHandle returns true
// wins. Handle is declared with a context for uniformity even where the
// implementation is synchronous inside.
type ToolHandler interface {
	CanHandle(toolName string) bool
	Handle(ctx context.Context, toolName string, args map[string]any) runtime.ToolResponse
}

// ToolRouter dispatches tool calls first-match-wins over an ordered handler
// list. Registration order is a deterministic tiebreak, but handlers must
// not overlap on a tool name.
type ToolRouter struct {
	handlers []namedHandler
}

type namedHandler struct {
	name    string
	handler ToolHandler
}

// NewToolRouter creates an empty router.
func NewToolRouter() *ToolRouter { return &ToolRouter{} }

// Register appends a handler under its type name for transcript recording.
func (r *ToolRouter) Register(name string, h ToolHandler) {
	r.handlers = append(r.handlers, namedHandler{name: name, handler: h})
}

// Route dispatches a tool call and returns the response plus the handler
// name it was routed to ("none" when no handler matched). Unknown tools —
// including send_message, make_call, and the dotted external names, whose
// handlers arrive in a later increment — get an error response and the run
// continues.
func (r *ToolRouter) Route(ctx context.Context, toolName string, args map[string]any) (runtime.ToolResponse, string) {
	for _, nh := range r.handlers {
		if nh.handler.CanHandle(toolName) {
			resp := nh.handler.Handle(ctx, toolName, args)
			log.Debug().
				Str("tool_name", toolName).
				Str("routed_to", nh.name).
				Str("status", resp.ResponseStatus()).
				Msg("tool dispatched")
			return resp, nh.name
		}
	}
	log.Debug().Str("tool_name", toolName).Str("routed_to", "none").Msg("tool dispatched")
	return runtime.NewErrorResponse("Unknown tool"), "none"
}
