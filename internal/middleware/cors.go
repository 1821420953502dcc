// Package middleware provides reusable HTTP middleware for the wedding
// transport API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMaxAge is how long browsers may cache a preflight result, in seconds.
const corsMaxAge = 600

// NewCORSHandler returns a middleware that lets the coordinator dashboard
// call the API from allowedOrigins. Entries are full origins and may use a
// single wildcard such as "https://*.example.com".
// Content-Disposition is exposed so browsers can name downloaded manifests.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         corsMaxAge,
	})
	return c.Handler
}
