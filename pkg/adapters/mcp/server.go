// Package mcp exposes configuration sessions as Model Context Protocol tools.
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
	"github.com/reliant/configurator"
	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/pkg/cart"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/form"
	"github.com/reliant/configurator/pkg/runner"
	"golang.org/x/sync/errgroup"
)

const productsURI = "configurator://products"

// App is the part of the configurator the tools drive.
type App interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Start(ctx context.Context, cartID, productID string) (form.View, error)
	View(ctx context.Context, sessionID string) (form.View, error)
	Submit(ctx context.Context, sessionID string, answer form.Answer) (form.View, error)
	Previous(ctx context.Context, sessionID string) (form.View, error)
	Reload(ctx context.Context, sessionID string) (form.View, error)
	Cancel(ctx context.Context, sessionID string) (form.View, error)
	Cart() *cart.Service
}

// ViewResponse is the structured result of every session tool.
type ViewResponse struct {
	View   form.View         `json:"view" jsonschema_description:"The page now awaiting an answer, or the final result"`
	Fields map[string]string `json:"fields,omitempty" jsonschema_description:"Validation messages keyed by field when the answer was rejected"`
}

type startArgs struct {
	ProductID string `json:"product_id"`
	CartID    string `json:"cart_id"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type submitArgs struct {
	SessionID   string         `json:"session_id"`
	SelectionID string         `json:"selection_id"`
	Numbers     map[string]any `json:"numbers"`
	Text        *string        `json:"text"`
}

type cartArgs struct {
	CartID string `json:"cart_id"`
}

// Server wraps the configurator as an MCP server.
type Server struct {
	app       App
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers its tools.
func NewServer(app App, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		app:       app,
		logger:    logger,
		mcpServer: server.NewMCPServer("configurator-mcp", configurator.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_products",
		mcp.WithDescription("List the products that can be configured."),
	), s.handleListProducts)

	s.mcpServer.AddTool(mcp.NewTool("start_configuration",
		mcp.WithDescription("Start configuring a product. Returns the first page."),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("ID of the product to configure")),
		mcp.WithString("cart_id", mcp.Description("Cart that receives the configured product (a new one if omitted)")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Show the page a session is waiting on."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleView))

	s.mcpServer.AddTool(mcp.NewTool("submit_answer",
		mcp.WithDescription("Answer the current page. Selection pages take selection_id, number pages take numbers, text pages take text."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("selection_id", mcp.Description("ID of the chosen option")),
		mcp.WithObject("numbers", mcp.Description("Values keyed by number input ID")),
		mcp.WithString("text", mcp.Description("Free text answer")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	for _, t := range []struct {
		name, desc string
		fn         func(context.Context, string) (form.View, error)
	}{
		{"previous_page", "Go back to the previously answered page.", s.app.Previous},
		{"reload_page", "Retry loading the current page after a failure.", s.app.Reload},
		{"cancel_configuration", "Abandon the session without adding to the cart.", s.app.Cancel},
	} {
		fn := t.fn
		s.mcpServer.AddTool(mcp.NewTool(t.name,
			mcp.WithDescription(t.desc),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
			mcp.WithOutputSchema[ViewResponse](),
		), mcp.NewStructuredToolHandler(func(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (ViewResponse, error) {
			return respond(fn(ctx, args.SessionID))
		}))
	}

	s.mcpServer.AddTool(mcp.NewTool("get_cart",
		mcp.WithDescription("Show the configured products in a cart."),
		mcp.WithString("cart_id", mcp.Required(), mcp.Description("Cart ID")),
	), s.handleCart)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(productsURI, "Configurable products",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		products, err := s.app.Products(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		data, err := json.Marshal(products)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: productsURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

func (s *Server) handleListProducts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	products, err := s.app.Products(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list products failed: %v", err)), nil
	}
	data, _ := json.Marshal(products)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleCart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args cartArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.app.Cart().Get(ctx, args.CartID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get cart failed: %v", err)), nil
	}
	data, _ := json.Marshal(c)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args startArgs) (ViewResponse, error) {
	return respond(s.app.Start(ctx, args.CartID, args.ProductID))
}

func (s *Server) handleView(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (ViewResponse, error) {
	return respond(s.app.View(ctx, args.SessionID))
}

func (s *Server) handleSubmit(ctx context.Context, _ mcp.CallToolRequest, args submitArgs) (ViewResponse, error) {
	answer := form.Answer{SelectionID: args.SelectionID, Text: args.Text}
	if len(args.Numbers) > 0 {
		answer.Numbers = make(map[string]string, len(args.Numbers))
		for id, v := range args.Numbers {
			answer.Numbers[id] = fmt.Sprint(v)
		}
	}
	clean, err := runner.SanitizeAnswer(answer)
	if err != nil {
		s.logger.Warn("mcp submit: input rejected", "session_id", args.SessionID, "err", err)
		return ViewResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	view, err := s.app.Submit(ctx, args.SessionID, clean)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		// The page stays put; show it again with the messages.
		current, viewErr := s.app.View(ctx, args.SessionID)
		if viewErr != nil {
			return ViewResponse{}, viewErr
		}
		return ViewResponse{View: current, Fields: verr.Fields}, nil
	}
	return respond(view, err)
}

func respond(view form.View, err error) (ViewResponse, error) {
	if err != nil {
		return ViewResponse{}, err
	}
	return ViewResponse{View: view}, nil
}
