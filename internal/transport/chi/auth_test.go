package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authProbe(keys []string, path, header string) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := BearerAuthMiddleware(keys)(next)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestBearerAuth_DisabledWhenNoKeys(t *testing.T) {
	if w := authProbe(nil, "/api/v1/search", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want pass-through", w.Code)
	}
	// Empty strings don't count as keys.
	if w := authProbe([]string{""}, "/api/v1/search", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want pass-through", w.Code)
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	keys := []string{"secret"}
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic secret"},
		{"wrong token", "Bearer nope"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if w := authProbe(keys, "/api/v1/search", tc.header); w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestBearerAuth_ValidToken(t *testing.T) {
	if w := authProbe([]string{"secret", "other"}, "/api/v1/search", "Bearer other"); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestBearerAuth_ExemptPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		if w := authProbe([]string{"secret"}, path, ""); w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want exempt", path, w.Code)
		}
	}
}
