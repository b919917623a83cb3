package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/transport/middleware"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("Middleware", func() {
	var (
		buf    *bytes.Buffer
		base   *slog.Logger
		router *chi.Mux
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		base = slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		router = chi.NewRouter()
		router.Use(chiMiddleware.RequestID)
		router.Use(middleware.RequestID(base))
		router.Use(middleware.Actor)
		router.Use(middleware.LoggingMiddleware)
		router.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"receiptUrl":"https://files.example/r.pdf?sig=abc","status":"ok","actor":"` +
				internal.ActorIDFromContext(r.Context()) + `"}`))
		})
	})

	send := func(body string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		return recorder
	}

	It("should mask sensitive JSON fields and headers in logs", func() {
		recorder := send(`{"title":"Hotel","apiKey":"k-123","nested":{"password":"p"}}`,
			map[string]string{"Authorization": "Bearer secret-token", "Content-Type": "application/json"})

		Expect(recorder.Code).To(Equal(http.StatusOK))
		logged := buf.String()
		Expect(logged).To(ContainSubstring("Hotel"))
		Expect(logged).NotTo(ContainSubstring("k-123"))
		Expect(logged).NotTo(ContainSubstring("secret-token"))
		Expect(logged).NotTo(ContainSubstring("sig=abc"))
		Expect(logged).To(ContainSubstring("[FILTERED]"))
	})

	It("should pass the request body through untouched", func() {
		var seen string
		router.Post("/read", func(w http.ResponseWriter, r *http.Request) {
			b := new(bytes.Buffer)
			_, _ = b.ReadFrom(r.Body)
			seen = b.String()
		})

		req := httptest.NewRequest(http.MethodPost, "/read", strings.NewReader(`{"password":"p"}`))
		router.ServeHTTP(httptest.NewRecorder(), req)

		Expect(seen).To(Equal(`{"password":"p"}`))
	})

	It("should tag log lines with trace and actor ids", func() {
		recorder := send(`{}`, map[string]string{middleware.TraceHeader: "trace-9", middleware.ActorHeader: "42"})

		Expect(recorder.Header().Get(middleware.TraceHeader)).To(Equal("trace-9"))
		Expect(recorder.Body.String()).To(ContainSubstring(`"actor":"42"`))
		Expect(buf.String()).To(ContainSubstring(`"trace_id":"trace-9"`))
		Expect(buf.String()).To(ContainSubstring(`"actor_id":"42"`))
	})

	It("should expose the trace id to handlers", func() {
		var seen string
		router.Get("/trace", func(w http.ResponseWriter, r *http.Request) {
			seen = internal.TraceIDFromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/trace", nil)
		req.Header.Set(middleware.TraceHeader, "trace-17")
		router.ServeHTTP(httptest.NewRecorder(), req)

		Expect(seen).To(Equal("trace-17"))
	})

	It("should not log oversized bodies", func() {
		send(`{"title":"`+strings.Repeat("x", 5000)+`"}`, nil)

		Expect(buf.String()).To(ContainSubstring("[TRUNCATED]"))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("should return the opaque internal error", func() {
		handler := middleware.RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("nil map")
		}))
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
		Expect(recorder.Body.String()).To(MatchJSON(`{"error":"Internal server error","code":"INTERNAL_ERROR"}`))
	})
})

var _ = Describe("CORS", func() {
	It("should allow any origin with a wildcard", func() {
		handler := middleware.CORS("*")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example")
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, req)

		Expect(recorder.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.example"))
	})
})
