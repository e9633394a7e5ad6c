// Package boundary exposes the Container's core operations over HTTP
// and a WebSocket game channel (spec.md §4.12, §6). Every request maps
// to exactly one core operation; Oracle calls run through Brain/
// Container methods that already bound their own timeout, so the
// accept loop here never blocks beyond a single call.
//
// Grounded on the teacher's internal/api/server.go: a bare
// http.NewServeMux, a bearer-token adminOnly wrapper for mutating
// routes, a writeJSON helper, and a corsMiddleware for browser clients.
// Generalized from the teacher's read-mostly settlement API into a
// full read/write surface, using Go's method+pattern ServeMux routing
// (net/http, stdlib, Go 1.22+) in place of the teacher's manual
// TrimPrefix dispatch, since spec.md's route table needs far more path
// parameters than the teacher's settlement/faction detail routes did.
package boundary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/talgya/npcforge/internal/app"
	"github.com/talgya/npcforge/internal/apperr"
)

// Server serves Container over HTTP and WebSocket.
type Server struct {
	Container *app.Container
	Port      int
	AdminKey  string // Bearer token for mutating routes. Empty disables them.
	oracleRL  *rateLimiter
}

// New creates a Server over an already-wired Container. Oracle-consuming
// routes (npc/action, quest/generate, conversation/message) are guarded by
// a per-IP rate limiter (spec.md §6 external interfaces; teacher's
// internal/api/ratelimit.go), capped at 30 requests per minute per IP.
func New(c *app.Container, port int, adminKey string) *Server {
	return &Server{
		Container: c,
		Port:      port,
		AdminKey:  adminKey,
		oracleRL:  newRateLimiter(30, time.Minute),
	}
}

// Start registers every route and begins serving in a background
// goroutine, mirroring the teacher's Server.Start (mux build, then
// `go http.ListenAndServe`) so callers can keep doing other setup
// (e.g. starting WorldClock.Autorun) without blocking on Serve.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("boundary HTTP starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("boundary HTTP server error", "error", err)
		}
	}()
}

// Handler builds the full routed, CORS-wrapped mux without binding a
// listener, so tests can drive it directly via httptest.NewServer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerNPCRoutes(mux)
	s.registerWorldRoutes(mux)
	s.registerQuestRoutes(mux)
	s.registerFactionRoutes(mux)
	s.registerConversationRoutes(mux)
	s.registerVoiceRoutes(mux)
	mux.HandleFunc("GET /ws/game", s.handleWS)
	return corsMiddleware(mux)
}

// corsMiddleware allows local dev frontends to call the API directly,
// matching the teacher's corsMiddleware shape.
func corsMiddleware(next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("NPCFORGE_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowed[origin] = true
			}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly requires a matching bearer token, matching the teacher's
// adminOnly wrapper for mutating routes.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin routes disabled (no NPCFORGE_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

// writeErr renders err in the §6 error body shape: {error:{kind,
// message, retryable?}}, with the status code apperr.HTTPStatus maps
// for its Kind.
func writeErr(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(apperr.KindOf(err))
	writeJSON(w, status, apperr.ToBody(err))
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.New(apperr.InvalidArgument, "missing request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, "malformed JSON body", err)
	}
	return nil
}

// requestContext derives a per-request context carrying the client's
// deadline if any, defaulting to a generous bound so a slow Oracle
// call can still fall back within its own timeout rather than the
// HTTP client's (spec.md §5: "every request carries a deadline").
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 20*time.Second)
}
