package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/labstack/echo/v4"
)

// openapiDocument is a minimal OpenAPI 3 description of the §6 surface,
// covering method/path/required-field shape only (not full response
// schemas). Grounded on SPEC_FULL §10.4's wiring of getkin/kin-openapi as
// request-validation middleware, a library the teacher's go.mod declares
// but its own handler.go never calls directly (the teacher instead relies
// on codegen from a separate spec file not present in the retrieval pack).
const openapiDocument = `
openapi: 3.0.0
info:
  title: audit-rag
  version: "1.0"
paths:
  /upload_store:
    post:
      requestBody:
        content:
          multipart/form-data:
            schema:
              type: object
      responses:
        "200": { description: ok }
  /search_with_intent:
    post:
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [query]
              properties:
                query: { type: string }
      responses:
        "200": { description: ok }
  /ask:
    post:
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [query]
              properties:
                query: { type: string }
      responses:
        "200": { description: ok }
  /v1/chat/completions:
    post:
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [messages]
              properties:
                messages: { type: array }
      responses:
        "200": { description: ok }
  /documents:
    get:
      responses:
        "200": { description: ok }
    delete:
      responses:
        "200": { description: ok }
  /documents/stats:
    get:
      responses:
        "200": { description: ok }
  /documents/{id}:
    get:
      parameters:
        - { name: id, in: path, required: true, schema: { type: string } }
      responses:
        "200": { description: ok }
    delete:
      parameters:
        - { name: id, in: path, required: true, schema: { type: string } }
      responses:
        "204": { description: deleted }
  /documents/{id}/chunks:
    get:
      parameters:
        - { name: id, in: path, required: true, schema: { type: string } }
      responses:
        "200": { description: ok }
  /graph/rebuild:
    post:
      responses:
        "200": { description: ok }
  /info:
    get:
      responses:
        "200": { description: ok }
  /health:
    get:
      responses:
        "200": { description: ok }
`

// OpenAPIValidator validates the body shape of POST requests on routes
// openapiDocument describes before they reach a handler.
type OpenAPIValidator struct {
	router routers.Router
	logger *slog.Logger
}

func NewOpenAPIValidator(logger *slog.Logger) *OpenAPIValidator {
	if logger == nil {
		logger = slog.Default()
	}
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(openapiDocument))
	if err != nil {
		logger.Error("openapi_load_failed", slog.String("error", err.Error()))
		return &OpenAPIValidator{logger: logger}
	}
	if err := doc.Validate(loader.Context); err != nil {
		logger.Error("openapi_validate_failed", slog.String("error", err.Error()))
		return &OpenAPIValidator{logger: logger}
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		logger.Error("openapi_router_failed", slog.String("error", err.Error()))
		return &OpenAPIValidator{logger: logger}
	}
	return &OpenAPIValidator{router: router, logger: logger}
}

// Middleware returns an Echo middleware that 400s requests whose JSON body
// shape doesn't match openapiDocument. Multipart bodies (upload_store),
// GET and DELETE requests, and requests the embedded document doesn't
// recognise a route for (including an unknown method or path) are passed
// through unvalidated rather than rejected, since this document only
// covers the routes this server itself registers.
func (v *OpenAPIValidator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if v.router == nil {
				return next(c)
			}
			req := c.Request()
			route, pathParams, err := v.router.FindRoute(req)
			if err != nil {
				return next(c)
			}
			if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data") ||
				req.Method == http.MethodGet || req.Method == http.MethodDelete {
				return next(c)
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
			}
			if err := openapi3filter.ValidateRequest(context.Background(), input); err != nil {
				return c.JSON(http.StatusBadRequest, errorBody("request failed schema validation: "+err.Error()))
			}
			return next(c)
		}
	}
}
