package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

const corsMaxAge = 10 * 60 // seconds

var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}, ", ")
	corsHeaders = "Content-Type, Authorization"
	// clients need Retry-After to back off from 429/503
	corsExposed = "Retry-After"
)

type CORSMiddleware struct {
	any     bool
	origins map[string]struct{}
}

// NewCORSMiddleware allows the given origins. An empty list or "*" allows any origin.
func NewCORSMiddleware(origins ...string) *CORSMiddleware {
	m := &CORSMiddleware{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if o == "*" {
			m.any = true
		}
		m.origins[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	if len(origins) == 0 {
		m.any = true
	}
	return m
}

func (m *CORSMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h := w.Header()
		if m.any {
			h.Set("Access-Control-Allow-Origin", "*")
		} else if origin := req.Header.Get("Origin"); origin != "" {
			h.Add("Vary", "Origin")
			if _, ok := m.origins[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
			}
		}
		h.Set("Access-Control-Allow-Methods", corsMethods)
		h.Set("Access-Control-Allow-Headers", corsHeaders)
		h.Set("Access-Control-Expose-Headers", corsExposed)

		if req.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, req)
	})
}
