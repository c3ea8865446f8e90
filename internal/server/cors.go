package server

import (
	"net/http"
	"net/url"
	"strings"
)

// originMatcher checks request origins against a configured allow-list.
// Entries are exact origins ("https://app.example.com") or carry a single
// leading host wildcard ("https://*.example.com"). "*" allows everything.
type originMatcher struct {
	allowAll bool
	exact    map[string]struct{}
	suffixes []wildcardOrigin
}

type wildcardOrigin struct {
	scheme string
	suffix string
}

func newOriginMatcher(allowed []string) *originMatcher {
	m := &originMatcher{exact: make(map[string]struct{})}

	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == "*" {
			m.allowAll = true
			continue
		}

		u, err := url.Parse(entry)
		if err != nil || u.Host == "" {
			m.exact[entry] = struct{}{}
			continue
		}

		if strings.HasPrefix(u.Host, "*.") {
			m.suffixes = append(m.suffixes, wildcardOrigin{
				scheme: u.Scheme,
				suffix: strings.TrimPrefix(u.Host, "*"),
			})
			continue
		}

		m.exact[entry] = struct{}{}
	}

	return m
}

// allows reports whether origin passes the allow-list.
func (m *originMatcher) allows(origin string) bool {
	if m.allowAll {
		return true
	}
	if origin == "" {
		return false
	}

	if _, ok := m.exact[origin]; ok {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	for _, w := range m.suffixes {
		if w.scheme != "" && w.scheme != u.Scheme {
			continue
		}
		// "*.example.com" matches subdomains, not the apex.
		if strings.HasSuffix(u.Host, w.suffix) && u.Host != strings.TrimPrefix(w.suffix, ".") {
			return true
		}
	}

	return false
}

// corsMiddleware sets CORS headers for allowed origins and answers
// preflight requests.
func corsMiddleware(matcher *originMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && matcher.allows(origin) {
				if matcher.allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
