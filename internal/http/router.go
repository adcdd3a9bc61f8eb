package http

import (
	"net/http"

	"service-meetings/internal/http/handlers"
)

type Router struct {
	mux *http.ServeMux
}

func NewRouter(recordsHandler *handlers.RecordsHandler) *Router {
	mux := http.NewServeMux()
	recordsHandler.Register(mux)

	return &Router{mux: mux}
}

func (r *Router) Handler() http.Handler {
	return r.mux
}
