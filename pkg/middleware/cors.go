package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig describes which browser origins may call the JSON API. Zero
// methods, headers or max age fall back to the defaults.
type CORSConfig struct {
	// AllowedOrigins may contain "*" to admit any origin.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	MaxAge           int // seconds
	AllowCredentials bool
}

const defaultCORSMaxAge = 3600

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	defaultCORSHeaders = []string{"Accept", "Content-Type", CorrelationHeader}
)

// DefaultCORSConfig admits every origin without credentials and lets the
// browser read the correlation ID.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: defaultCORSMethods,
		AllowedHeaders: defaultCORSHeaders,
		ExposedHeaders: []string{CorrelationHeader},
		MaxAge:         defaultCORSMaxAge,
	}
}

// corsPolicy is a CORSConfig with its header values rendered once.
type corsPolicy struct {
	anyOrigin   bool
	origins     []string
	credentials bool
	static      http.Header
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	methods := orDefault(cfg.AllowedMethods, defaultCORSMethods)
	headers := orDefault(cfg.AllowedHeaders, defaultCORSHeaders)
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = defaultCORSMaxAge
	}

	static := http.Header{}
	static.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
	static.Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))
	static.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
	if len(cfg.ExposedHeaders) > 0 {
		static.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
	}
	if cfg.AllowCredentials {
		static.Set("Access-Control-Allow-Credentials", "true")
	}

	return corsPolicy{
		anyOrigin:   slices.Contains(cfg.AllowedOrigins, "*"),
		origins:     cfg.AllowedOrigins,
		credentials: cfg.AllowCredentials,
		static:      static,
	}
}

func orDefault(v, fallback []string) []string {
	if len(v) == 0 {
		return fallback
	}
	return v
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin and
// whether it varies by origin. Browsers refuse "*" on credentialed
// requests, so those get the concrete origin echoed back.
func (p corsPolicy) allowOrigin(origin string) (value string, varies bool) {
	if p.anyOrigin && !p.credentials {
		return "*", false
	}
	if origin != "" && (p.anyOrigin || slices.Contains(p.origins, origin)) {
		return origin, true
	}
	return "", false
}

// CORS sets the CORS response headers and answers preflights with 204. A
// bare OPTIONS request without Access-Control-Request-Method is passed on.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if value, varies := policy.allowOrigin(r.Header.Get("Origin")); value != "" {
				h.Set("Access-Control-Allow-Origin", value)
				if varies {
					h.Add("Vary", "Origin")
				}
			}
			for k, v := range policy.static {
				h[k] = slices.Clone(v)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
