package server

import "net/http"

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/health", chain(
		http.HandlerFunc(s.handleHealth),
		LoggingMiddleware,
		MetricsMiddleware(s.metrics),
	))

	mux.Handle("/v1/models", chain(
		http.HandlerFunc(s.handleModels),
		LoggingMiddleware,
		MetricsMiddleware(s.metrics),
	))

	mux.Handle("/v1/chat/completions", chain(
		http.HandlerFunc(s.handleChatCompletions),
		LoggingMiddleware,
		MetricsMiddleware(s.metrics),
		RequestSizeLimitMiddleware(defaultMaxBodySize),
	))

	mux.Handle("/", chain(
		http.HandlerFunc(s.handleNotFound),
		LoggingMiddleware,
		MetricsMiddleware(s.metrics),
	))

	return mux
}

func chain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}
