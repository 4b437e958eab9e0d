package httpapi

import "net/http"

// NewRouter builds the HTTP surface. wsHandler, when non-nil, serves the
// websocket event stream.
func NewRouter(svc *Service, wsHandler http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/simulations", svc.handleCreateSimulation)
	mux.HandleFunc("/api/simulations/", svc.handleSimulation)
	mux.HandleFunc("/api/breakers", svc.handleBreakerStatus)
	mux.HandleFunc("/api/breakers/", svc.handleBreakerReset)
	if wsHandler != nil {
		mux.HandleFunc("/ws/simulations/", wsHandler)
	}
	return mux
}
