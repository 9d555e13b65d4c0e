package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// IndexDocumentParams are the query parameters of the index endpoints.
type IndexDocumentParams struct {
	DryRun *bool
}

// AppendDocumentParams are the query parameters of the append endpoint.
type AppendDocumentParams struct {
	LineOffset *int
}

// SearchParams are the query parameters of POST /v1/search.
type SearchParams struct {
	Limit *int
}

// paramError is a malformed path or query parameter.
type paramError struct {
	name string
	err  error
}

func (e *paramError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.name, e.err)
}

func (e *paramError) Unwrap() error { return e.err }

func bindDocumentID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", &paramError{name: "id", err: err}
	}
	return id, nil
}

func bindIndexParams(r *http.Request) (IndexDocumentParams, error) {
	var p IndexDocumentParams
	if err := runtime.BindQueryParameter("form", true, false, "dry_run", r.URL.Query(), &p.DryRun); err != nil {
		return p, &paramError{name: "dry_run", err: err}
	}
	return p, nil
}

func bindAppendParams(r *http.Request) (AppendDocumentParams, error) {
	var p AppendDocumentParams
	if err := runtime.BindQueryParameter("form", true, false, "line_offset", r.URL.Query(), &p.LineOffset); err != nil {
		return p, &paramError{name: "line_offset", err: err}
	}
	return p, nil
}

func bindSearchParams(r *http.Request) (SearchParams, error) {
	var p SearchParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &p.Limit); err != nil {
		return p, &paramError{name: "limit", err: err}
	}
	return p, nil
}
