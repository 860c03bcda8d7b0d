// Package apidoc publishes an OpenAPI 3 description generated from the
// mounted chi routes.
package apidoc

import (
	"context"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"

	"github.com/learnhub/backend/pkg/utils"
)

var paramPattern = regexp.MustCompile(`\{([^}:]+)(:[^}]*)?\}`)

// Handler serves the generated document. The document is built on first
// request so every route registered after RegisterRoutes is included.
type Handler struct {
	title   string
	version string

	once   sync.Once
	routes chi.Routes
	doc    *openapi3.T
	err    error
}

// New 创建文档处理器
func New(title, version string) *Handler {
	return &Handler{title: title, version: version}
}

// RegisterRoutes 注册文档路由. r should be the root router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	h.routes = r
	r.Get("/docs/openapi.json", h.handleDocument)
}

func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.doc, h.err = Build(r.Context(), h.routes, h.title, h.version)
	})
	if h.err != nil {
		utils.RespondError(w, http.StatusInternalServerError, h.err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.doc)
}

// Build walks routes and returns a validated OpenAPI document with one
// operation per method and path.
func Build(ctx context.Context, routes chi.Routes, title, version string) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.Paths{},
	}

	walk := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if strings.Contains(route, "*") {
			return nil
		}
		path, params := normalize(route)

		item, ok := doc.Paths[path]
		if !ok {
			item = &openapi3.PathItem{}
			doc.Paths[path] = item
		}
		item.SetOperation(method, newOperation(method, path, params))
		return nil
	}
	if err := chi.Walk(routes, walk); err != nil {
		return nil, err
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

// normalize strips trailing slashes and parameter patterns from a chi route.
func normalize(route string) (string, []string) {
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
	}
	var params []string
	path := paramPattern.ReplaceAllStringFunc(route, func(m string) string {
		name := paramPattern.FindStringSubmatch(m)[1]
		params = append(params, name)
		return "{" + name + "}"
	})
	return path, params
}

func newOperation(method, path string, params []string) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = operationID(method, path)
	op.Summary = method + " " + path
	if tag := tagFor(path); tag != "" {
		op.Tags = []string{tag}
	}

	sort.Strings(params)
	for _, name := range params {
		param := openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema())
		op.AddParameter(param)
	}

	if method == http.MethodPost || method == http.MethodPatch || method == http.MethodPut {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithJSONSchema(openapi3.NewObjectSchema()),
		}
	}

	op.Responses = openapi3.Responses{
		"default": &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("JSON response or {statusCode, message} error"),
		},
	}
	return op
}

func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, "{") {
			b.WriteString("By")
			segment = strings.Trim(segment, "{}")
		}
		for _, part := range strings.Split(segment, "-") {
			if part == "" {
				continue
			}
			b.WriteString(strings.ToUpper(part[:1]))
			b.WriteString(part[1:])
		}
	}
	return b.String()
}

// tagFor groups operations by their first segment below /api.
func tagFor(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 1 && segments[0] == "api" {
		return segments[1]
	}
	return segments[0]
}
