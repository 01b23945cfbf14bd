package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tunebridge/tunebridge/internal/shared"
	"golang.org/x/oauth2"
)

type multiRouteHandler struct {
	hits []string
}

func (m *multiRouteHandler) Routes() []string { return []string{"/first", "/second"} }

func (m *multiRouteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.hits = append(m.hits, r.URL.Path)
	w.WriteHeader(http.StatusOK)
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("GET", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET status = %d, want 200", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST status = %d, want 405", rec.Code)
		}
	})

	t.Run("Handler Registers All Routes", func(t *testing.T) {
		router := NewBasicRouter()
		handler := &multiRouteHandler{}
		router.Handler(handler)

		for _, path := range handler.Routes() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("%s status = %d, want 200", path, rec.Code)
			}
		}

		if len(handler.hits) != 2 {
			t.Errorf("handler served %d requests, want 2", len(handler.hits))
		}
	})

	t.Run("First Added Middleware Runs Outermost", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("outer"), mark("inner"))
		router.Handle("GET", "/ordered", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ordered", nil))

		want := []string{"outer", "inner", "handler"}
		if len(order) != len(want) {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("execution order = %v, want %v", order, want)
				break
			}
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	newConfig := func(tokenURL string) *oauth2.Config {
		return &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost:3000/callback",
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		}
	}

	t.Run("Rejects State Mismatch", func(t *testing.T) {
		handler := NewOAuthHandler(newConfig("http://invalid.test/token"), "expected-state")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=wrong&code=abc", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}

		result := <-handler.Result()
		if !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("result error = %v, want ErrAuthFailed", result.Error())
		}
	})

	t.Run("Missing Code Reports Provider Error", func(t *testing.T) {
		handler := NewOAuthHandler(newConfig("http://invalid.test/token"), "s")

		rec := httptest.NewRecorder()
		url := "/callback?state=s&error=access_denied&error_description=User+denied"
		handler.ServeHTTP(rec, httptest.NewRequest("GET", url, nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("result error = %v, want provider error code", result.Error())
		}
	})

	t.Run("Exchanges Code For Token", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"tok123","token_type":"Bearer","refresh_token":"ref456","expires_in":3600}`)
		}))
		defer tokenServer.Close()

		handler := NewOAuthHandler(newConfig(tokenServer.URL+"/token"), "s")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=s&code=authcode", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Error("success page should confirm authorization")
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("result error = %v", result.Error())
		}
		if result.Token == nil || result.Token.AccessToken != "tok123" {
			t.Errorf("token = %+v, want access token tok123", result.Token)
		}
	})

	t.Run("Processes Only One Callback", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"tok123","token_type":"Bearer"}`)
		}))
		defer tokenServer.Close()

		handler := NewOAuthHandler(newConfig(tokenServer.URL+"/token"), "s")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest("GET", "/callback?state=s&code=authcode", nil))
		if first.Code != http.StatusOK {
			t.Fatalf("first callback status = %d, want 200", first.Code)
		}

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest("GET", "/callback?state=s&code=other", nil))
		if second.Code != http.StatusBadRequest {
			t.Errorf("replayed callback status = %d, want 400", second.Code)
		}
		if !strings.Contains(second.Body.String(), "already processed") {
			t.Errorf("replay response = %q", second.Body.String())
		}
	})
}

func TestHealthHandler(t *testing.T) {
	router := NewBasicRouter()
	router.Handler(NewHealthHandler("0.5.0"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode health payload: %v", err)
	}
	if payload["status"] != "ok" {
		t.Errorf("status field = %v, want ok", payload["status"])
	}
	if payload["service"] != "tunebridge" {
		t.Errorf("service field = %v, want tunebridge", payload["service"])
	}
	if payload["version"] != "0.5.0" {
		t.Errorf("version field = %v, want 0.5.0", payload["version"])
	}
}

func TestCallbackProbe(t *testing.T) {
	t.Run("Echoes Query Parameters", func(t *testing.T) {
		probe := &CallbackProbe{}

		rec := httptest.NewRecorder()
		probe.ServeHTTP(rec, httptest.NewRequest("GET", "/callback?code=abc&state=xyz", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "code=abc") || !strings.Contains(body, "state=xyz") {
			t.Errorf("probe body = %q, want echoed parameters", body)
		}
	})

	t.Run("Reports Empty Query", func(t *testing.T) {
		probe := &CallbackProbe{}

		rec := httptest.NewRecorder()
		probe.ServeHTTP(rec, httptest.NewRequest("GET", "/callback", nil))

		if !strings.Contains(rec.Body.String(), "no query parameters") {
			t.Errorf("probe body = %q", rec.Body.String())
		}
	})
}

func TestRequestLogger(t *testing.T) {
	var buf strings.Builder
	logger := shared.NewLogger(&buf)

	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handle("GET", "/brew", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/brew", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}

	logged := buf.String()
	if !strings.Contains(logged, "path=/brew") {
		t.Errorf("log output = %q, want request path", logged)
	}
	if !strings.Contains(logged, "status=418") {
		t.Errorf("log output = %q, want status code", logged)
	}
}
