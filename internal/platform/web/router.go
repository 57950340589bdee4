// Package web provides the http server, router facade, and JSON responders
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler is the platform handler type used everywhere
type Handler = func(http.ResponseWriter, *http.Request)

// Router is the minimal surface area modules mount against
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Put(path string, h Handler)
	Delete(path string, h Handler)

	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Route(pattern string, fn func(Router))
}

// chiRouter adapts a chi.Router to the platform Router
type chiRouter struct{ r chi.Router }

// AdaptChi wraps a chi router in the platform facade
func AdaptChi(r chi.Router) Router { return chiRouter{r: r} }

func (c chiRouter) Get(p string, h Handler)    { c.r.Get(p, h) }
func (c chiRouter) Post(p string, h Handler)   { c.r.Post(p, h) }
func (c chiRouter) Put(p string, h Handler)    { c.r.Put(p, h) }
func (c chiRouter) Delete(p string, h Handler) { c.r.Delete(p, h) }

func (c chiRouter) Handle(p string, h http.Handler)              { c.r.Handle(p, h) }
func (c chiRouter) Use(mw ...func(http.Handler) http.Handler)    { c.r.Use(mw...) }
func (c chiRouter) Route(pattern string, fn func(Router)) {
	c.r.Route(pattern, func(sub chi.Router) { fn(AdaptChi(sub)) })
}

// URLParam extracts a chi path parameter
func URLParam(r *http.Request, key string) string { return chi.URLParam(r, key) }
