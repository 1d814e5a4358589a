// Package site handles the landing route.
package site

import (
	"context"
	"net/http"
)

// DashboardPath is where the landing route sends browsers.
const DashboardPath = "/dashboard"

// Register attaches the landing route to mux. Only the exact root path is
// claimed; anything else under / stays a 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /{$}", NewRootHandler())
}

// RootHandler redirects the root path to the dashboard.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// ServeHTTP implements http.Handler.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, DashboardPath, http.StatusFound)
}
