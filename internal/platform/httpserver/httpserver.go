package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	minWriteTimeout   = 10 * time.Second
)

// New builds the HTTP server. The write timeout is never shorter than three
// response budgets, so a slow provider call still gets its 200 written.
func New(addr string, handler http.Handler, responseBudget time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout(responseBudget),
		IdleTimeout:       idleTimeout,
	}
}

func writeTimeout(budget time.Duration) time.Duration {
	return max(3*budget, minWriteTimeout)
}
