// Package handler contains the HTTP request handlers.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path params, body)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business logic. They are the glue between HTTP and the app.
package handler

import (
	"io"
	"net/http"
)

// Greeting is the body served at the site root.
const Greeting = "Hello, world!"

// HandleGreeting responds to GET / with a fixed plain-text greeting.
// Query parameters and headers are ignored.
func HandleGreeting(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, Greeting)
}
