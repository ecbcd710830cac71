package module

import "net/http"

// Router dispatches to native routes and mounted modules.
// Native patterns are more specific than a root module, so "GET /healthz"
// still wins when a module is mounted at "".
type Router struct {
	mux *http.ServeMux
}

func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// HandleNative registers a route outside of any module.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}

// Mount attaches m under its prefix.
func (r *Router) Mount(m *Module) {
	serve := http.HandlerFunc(m.Serve)
	if m.prefix == "" {
		r.mux.Handle("/", serve)
		return
	}
	r.mux.Handle(m.prefix, serve)
	r.mux.Handle(m.prefix+"/", serve)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
