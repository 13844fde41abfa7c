package http

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// errInvalidRequest marks requests rejected by the API document.
var errInvalidRequest = errors.New("invalid request")

// OpenAPI returns the parsed and validated API document.
func OpenAPI() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("failed to parse api document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid api document: %w", err)
	}
	return doc, nil
}

// mustRouter builds the request router of the embedded document. The document
// ships with the binary, so a failure here is a build defect.
func mustRouter() routers.Router {
	doc, err := OpenAPI()
	if err != nil {
		panic(err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		panic(fmt.Errorf("failed to route api document: %w", err))
	}
	return router
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openAPIDocument)
}

// validateRequests checks parameters and bodies of documented operations.
// Routes the document does not describe pass through untouched.
func (s *Server) validateRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, params, err := s.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route:      route,
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %s", errInvalidRequest, requestErrorReason(err)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestErrorReason(err error) string {
	var rerr *openapi3filter.RequestError
	if errors.As(err, &rerr) {
		if rerr.Parameter != nil {
			return fmt.Sprintf("parameter %q: %s", rerr.Parameter.Name, rerr.Reason)
		}
		if rerr.Reason != "" {
			return rerr.Reason
		}
		if rerr.Err != nil {
			return rerr.Err.Error()
		}
	}
	return err.Error()
}

// pathParams binds the named path parameters in the simple style used by
// generated chi servers. On failure the error response is already written.
func (s *Server) pathParams(w http.ResponseWriter, r *http.Request, names ...string) ([]string, bool) {
	values := make([]string, len(names))
	for i, name := range names {
		err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &values[i],
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: parameter %q: %v", errInvalidRequest, name, err))
			return nil, false
		}
	}
	return values, true
}

// pathParam is pathParams for a single name.
func (s *Server) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	values, ok := s.pathParams(w, r, name)
	if !ok {
		return "", false
	}
	return values[0], true
}
