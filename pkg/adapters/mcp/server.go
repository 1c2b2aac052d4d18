package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/stepform/internal/logging"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/render"
	"github.com/aretw0/stepform/pkg/runner"
)

// SessionResponse is what every session tool returns: enough for a model
// to read the current step and decide its next call.
type SessionResponse struct {
	SessionID string         `json:"session_id" jsonschema_description:"The session to pass to later calls"`
	Form      string         `json:"form" jsonschema_description:"The form being filled"`
	Phase     domain.Phase   `json:"phase" jsonschema_description:"active, all_steps_complete, submitted or cancelled"`
	Step      string         `json:"step,omitempty" jsonschema_description:"The current step id"`
	Screen    string         `json:"screen" jsonschema_description:"The current step rendered as text; the focused control is marked with >"`
	Notice    string         `json:"notice,omitempty" jsonschema_description:"Why the last call was refused, if it was"`
	Values    map[string]any `json:"values,omitempty" jsonschema_description:"Current values by control path"`
	Result    *domain.Result `json:"result,omitempty" jsonschema_description:"The submitted result"`
	Terminal  bool           `json:"terminal" jsonschema_description:"Whether the session accepts no more input"`
}

// Server exposes stored form sessions as MCP tools.
type Server struct {
	service   *runner.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
	version   string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithVersion sets the version announced to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(svc *runner.Service, opts ...Option) *Server {
	s := &Server{
		service: svc,
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("stepform-mcp", s.version)
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_forms",
		mcp.WithDescription("List the forms that can be started."),
	), s.handleListForms)

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start filling a form, or resume the session with the given id."),
		mcp.WithString("form", mcp.Required(), mcp.Description("The form name")),
		mcp.WithString("session_id", mcp.Description("Reuse this id; a new one is generated when omitted")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Show the current step of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session id")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGet))

	s.mcpServer.AddTool(mcp.NewTool("answer",
		mcp.WithDescription("Set the value of a control. Values are JSON (\"text\", true, [\"a\",\"b\"]) or plain text."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session id")),
		mcp.WithString("control", mcp.Description("The control path; the focused control when omitted")),
		mcp.WithString("value", mcp.Required(), mcp.Description("The new value")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Move through the form: advance to the next step, retreat, submit or cancel."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session id")),
		mcp.WithString("action", mcp.Required(),
			mcp.Enum("advance", "retreat", "submit", "cancel", "focus_next", "focus_prev"),
			mcp.Description("The navigation action")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleNavigate))

	s.mcpServer.AddTool(mcp.NewTool("delete_session",
		mcp.WithDescription("Forget a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The session id")),
	), s.handleDelete)
}

func (s *Server) handleListForms(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.service.Registry.Names(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	data, _ := json.Marshal(names)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	name, _ := args["form"].(string)
	if name == "" {
		return SessionResponse{}, errors.New("form is required")
	}
	id, _ := args["session_id"].(string)
	id, resp, resumed, err := s.service.Start(ctx, name, id)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("start failed: %w", err)
	}
	s.logger.Info("MCP session opened", "session_id", id, "form", name, "resumed", resumed)
	return respond(id, resp), nil
}

func (s *Server) handleGet(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	id, _ := args["session_id"].(string)
	resp, err := s.service.Get(ctx, id)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("get failed: %w", err)
	}
	return respond(id, resp), nil
}

func (s *Server) handleAnswer(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	id, _ := args["session_id"].(string)
	control, _ := args["control"].(string)
	raw, _ := args["value"].(string)

	clean, err := runner.SanitizeInput(raw)
	if err != nil {
		s.logger.Warn("MCP answer: input rejected", "err", err, "size", len(raw))
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	ev, err := runner.DecodeEvent(clean)
	if err != nil {
		return SessionResponse{}, err
	}
	if ev.Type != domain.EventSelectionChange {
		return SessionResponse{}, fmt.Errorf("%w: value must be JSON data or text, not an event", domain.ErrUnknownEvent)
	}
	ev.Control = control
	return s.apply(ctx, id, ev)
}

var actions = map[string]domain.EventType{
	"advance":    domain.EventAdvance,
	"retreat":    domain.EventRetreat,
	"submit":     domain.EventSubmitRequested,
	"cancel":     domain.EventCancelRequested,
	"focus_next": domain.EventFocusNext,
	"focus_prev": domain.EventFocusPrev,
}

func (s *Server) handleNavigate(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	id, _ := args["session_id"].(string)
	action, _ := args["action"].(string)
	t, ok := actions[action]
	if !ok {
		return SessionResponse{}, fmt.Errorf("%w: %q", domain.ErrUnknownEvent, action)
	}
	return s.apply(ctx, id, domain.Event{Type: t})
}

func (s *Server) handleDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.service.Sessions.Load(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	if err := s.service.Sessions.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	return mcp.NewToolResultText("deleted " + id), nil
}

func (s *Server) apply(ctx context.Context, id string, ev domain.Event) (SessionResponse, error) {
	resp, err := s.service.Apply(ctx, id, ev)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("%s failed: %w", ev.Type, err)
	}
	return respond(id, resp), nil
}

func respond(id string, resp *runner.RichResponse) SessionResponse {
	out := SessionResponse{
		SessionID: id,
		Form:      resp.Snapshot.Form,
		Phase:     resp.Snapshot.Phase,
		Screen:    render.Text(resp.Frame),
		Notice:    resp.Notice,
		Values:    resp.Snapshot.Values,
		Result:    resp.Result,
		Terminal:  resp.Terminal,
	}
	if resp.Frame != nil {
		out.Step = resp.Frame.Header.StepID
	}
	return out
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("stepform://forms", "Available Forms",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.service.Registry.Names(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list forms: %w", err)
		}
		data, _ := json.Marshal(names)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "stepform://forms",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
