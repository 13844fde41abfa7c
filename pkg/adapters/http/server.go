// Package http exposes the configurator over a JSON REST API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/reliant/configurator/internal/logging"
	"github.com/reliant/configurator/pkg/cart"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/export"
	"github.com/reliant/configurator/pkg/form"
	"github.com/reliant/configurator/pkg/ports"
	"github.com/reliant/configurator/pkg/runner"
)

// maxBodySize bounds request bodies; single values are bounded by runner.SanitizeInput.
const maxBodySize = 64 << 10

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// App is the part of the configurator served over HTTP.
type App interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Start(ctx context.Context, cartID, productID string) (form.View, error)
	View(ctx context.Context, sessionID string) (form.View, error)
	Submit(ctx context.Context, sessionID string, answer form.Answer) (form.View, error)
	Previous(ctx context.Context, sessionID string) (form.View, error)
	Reload(ctx context.Context, sessionID string) (form.View, error)
	Cancel(ctx context.Context, sessionID string) (form.View, error)
	Cart() *cart.Service
	Predictor() ports.Predictor
	Pages() ports.PageStore
}

// Server holds the handlers of the API.
type Server struct {
	app     App
	router  routers.Router
	streams *StreamManager
	logger  *slog.Logger
	metrics http.Handler
	mws     []func(http.Handler) http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithMiddleware adds middleware to every route.
func WithMiddleware(mws ...func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.mws = append(s.mws, mws...) }
}

// NewHandler creates the HTTP handler for app.
func NewHandler(app App, opts ...Option) http.Handler {
	s := &Server{
		app:     app,
		router:  mustRouter(),
		streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	r.Use(s.mws...)
	r.Use(s.validateRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Get("/openapi.yaml", serveOpenAPI)
	r.Get("/products", s.listProducts)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.startSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.cancelSession)
			r.Post("/submit", s.submit)
			r.Post("/previous", s.previous)
			r.Post("/reload", s.reload)
			r.Get("/events", s.subscribeEvents)
		})
	})

	r.Route("/carts/{cartID}", func(r chi.Router) {
		r.Get("/", s.getCart)
		r.Patch("/items/{itemID}", s.setQuantity)
		r.Delete("/items/{itemID}", s.removeItem)
		r.Post("/checkout", s.checkout)
		r.Get("/export.xlsx", s.exportCart)
	})

	r.Route("/quotations", func(r chi.Router) {
		r.Get("/", s.listQuotations)
		r.Get("/{quotationID}", s.getQuotation)
		r.Get("/{quotationID}/export.xlsx", s.exportQuotation)
		r.Patch("/items/{itemID}", s.setPrice)
	})

	r.Route("/ai", func(r chi.Router) {
		r.Get("/prediction/{itemID}", s.predict)
		r.Get("/summary/{quotationID}", s.summarize)
		r.Get("/cluster", s.cluster)
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// -- Sessions --

type startRequest struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.app.Products(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.ProductID == "" {
		s.writeError(w, r, &domain.ValidationError{Fields: map[string]string{"product_id": form.MsgRequired}})
		return
	}
	view, err := s.app.Start(r.Context(), body.CartID, body.ProductID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.pathParam(w, r, "sessionID")
	if !ok {
		return
	}
	view, err := s.app.View(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var answer form.Answer
	if !s.decode(w, r, &answer) {
		return
	}
	clean, err := runner.SanitizeAnswer(answer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.transition(w, r, func(ctx context.Context, id string) (form.View, error) {
		return s.app.Submit(ctx, id, clean)
	})
}

func (s *Server) previous(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.app.Previous)
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.app.Reload)
}

func (s *Server) cancelSession(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.app.Cancel)
}

// transition runs fn for the session in the URL, answers with the new view
// and pushes it to event subscribers.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (form.View, error)) {
	sessionID, ok := s.pathParam(w, r, "sessionID")
	if !ok {
		return
	}
	view, err := fn(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if data, err := json.Marshal(view); err == nil {
		s.streams.Broadcast(sessionID, string(data))
	}
	writeJSON(w, http.StatusOK, view)
}

// -- Carts --

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := s.pathParam(w, r, "cartID")
	if !ok {
		return
	}
	c, err := s.app.Cart().Get(r.Context(), cartID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) setQuantity(w http.ResponseWriter, r *http.Request) {
	ids, ok := s.pathParams(w, r, "cartID", "itemID")
	if !ok {
		return
	}
	var body quantityRequest
	if !s.decode(w, r, &body) {
		return
	}
	c, err := s.app.Cart().SetQuantity(r.Context(), ids[0], ids[1], body.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	ids, ok := s.pathParams(w, r, "cartID", "itemID")
	if !ok {
		return
	}
	c, err := s.app.Cart().Remove(r.Context(), ids[0], ids[1])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	cartID, ok := s.pathParam(w, r, "cartID")
	if !ok {
		return
	}
	var customer domain.Customer
	if !s.decode(w, r, &customer) {
		return
	}
	for _, field := range []*string{&customer.FirstName, &customer.LastName, &customer.Email, &customer.Phone, &customer.Postcode} {
		clean, err := runner.SanitizeInput(strings.TrimSpace(*field))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		*field = clean
	}
	q, err := s.app.Cart().Checkout(r.Context(), cartID, customer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) exportCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := s.pathParam(w, r, "cartID")
	if !ok {
		return
	}
	items, err := s.app.Cart().Items(r.Context(), cartID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cart-%s.xlsx"`, cartID))
	if err := export.WriteCart(w, items); err != nil {
		s.logger.ErrorContext(r.Context(), "cart export failed", "cart_id", cartID, "err", err)
	}
}

// -- Quotations --

type priceRequest struct {
	Price float64 `json:"price"`
}

func (s *Server) listQuotations(w http.ResponseWriter, r *http.Request) {
	query, err := runner.SanitizeInput(r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.app.Cart().Quotations(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	type summary struct {
		domain.Quotation
		Products []string `json:"products"`
	}
	out := make([]summary, 0, len(list))
	for _, q := range list {
		out = append(out, summary{Quotation: q, Products: cart.ProductChips(q)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "quotationID")
	if !ok {
		return
	}
	q, err := s.app.Cart().Quotation(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) exportQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathParam(w, r, "quotationID")
	if !ok {
		return
	}
	q, err := s.app.Cart().Quotation(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var labels export.Labels
	if products, err := s.app.Products(r.Context()); err == nil {
		// Missing titles fall back to ids.
		if labels, err = export.CatalogLabels(r.Context(), products, s.app.Pages()); err != nil {
			s.logger.WarnContext(r.Context(), "quotation labels incomplete", "err", err)
		}
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="quotation-%s.xlsx"`, id))
	if err := export.WriteQuotation(w, *q, labels); err != nil {
		s.logger.ErrorContext(r.Context(), "quotation export failed", "quotation_id", id, "err", err)
	}
}

func (s *Server) setPrice(w http.ResponseWriter, r *http.Request) {
	itemID, ok := s.pathParam(w, r, "itemID")
	if !ok {
		return
	}
	var body priceRequest
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.app.Cart().SetPrice(r.Context(), itemID, body.Price); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- AI --

var errNoPredictor = errors.New("model service not configured")

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	itemID, ok := s.pathParam(w, r, "itemID")
	if !ok {
		return
	}
	s.proxyJSON(w, r, func(p ports.Predictor) (json.RawMessage, error) {
		return p.Predict(r.Context(), itemID)
	})
}

func (s *Server) cluster(w http.ResponseWriter, r *http.Request) {
	s.proxyJSON(w, r, func(p ports.Predictor) (json.RawMessage, error) {
		return p.Cluster(r.Context())
	})
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	quotationID, ok := s.pathParam(w, r, "quotationID")
	if !ok {
		return
	}
	p := s.app.Predictor()
	if p == nil {
		s.writeError(w, r, errNoPredictor)
		return
	}
	text, err := p.Summarize(r.Context(), quotationID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (s *Server) proxyJSON(w http.ResponseWriter, r *http.Request, fn func(ports.Predictor) (json.RawMessage, error)) {
	p := s.app.Predictor()
	if p == nil {
		s.writeError(w, r, errNoPredictor)
		return
	}
	data, err := fn(p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		s.logger.WarnContext(r.Context(), "invalid request body", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
