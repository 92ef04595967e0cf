package http

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"board-reviewer/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	minMessageLen  = 10
	maxMessageLen  = 1000
	maxContactBody = 16 << 10
)

// RateLimiter counts hits per key within a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Time, error)
}

// ContactSink stores accepted contact messages.
type ContactSink interface {
	SaveContact(ctx context.Context, msg domain.ContactMessage) error
}

// ContactHandler serves POST /api/contact.
type ContactHandler struct {
	limiter    RateLimiter
	sink       ContactSink
	trustProxy bool
	now        func() time.Time
}

// NewContactHandler builds the contact endpoint. X-Forwarded-For and
// X-Real-IP are only honored when trustProxy is set, i.e. when the service
// runs behind a reverse proxy that overwrites them.
func NewContactHandler(limiter RateLimiter, sink ContactSink, trustProxy bool) *ContactHandler {
	return &ContactHandler{limiter: limiter, sink: sink, trustProxy: trustProxy, now: time.Now}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Website string `json:"website"`
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req contactRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// bots fill the hidden field; pretend success
	if req.Website != "" {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	ip := clientIP(r, h.trustProxy)
	ua := r.UserAgent()
	allowed, reset, err := h.limiter.Allow(r.Context(), ip+"|"+ua)
	if err != nil {
		log.Warn().Err(err).Msg("contact rate limiter unavailable")
		allowed = true
	}
	if !allowed {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "Too many requests. Please try again later.",
			"reset": reset.UTC().Format(time.RFC3339),
		})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if _, err := mail.ParseAddress(req.Email); err != nil || strings.ContainsAny(req.Email, "<> ") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid email address"})
		return
	}
	if n := utf8.RuneCountInString(req.Message); n < minMessageLen || n > maxMessageLen {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message must be between 10 and 1000 characters"})
		return
	}

	msg := domain.ContactMessage{
		Name:       strings.TrimSpace(req.Name),
		Email:      req.Email,
		Message:    req.Message,
		IP:         ip,
		UserAgent:  ua,
		ReceivedAt: h.now().UTC(),
	}
	if err := h.sink.SaveContact(r.Context(), msg); err != nil {
		log.Error().Err(err).Msg("save contact message")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to send message"})
		return
	}
	log.Info().Str("email", msg.Email).Msg("contact message received")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// LogContactSink logs contact messages when no database is configured.
type LogContactSink struct{}

func (LogContactSink) SaveContact(_ context.Context, msg domain.ContactMessage) error {
	log.Info().
		Str("name", msg.Name).
		Str("email", msg.Email).
		Str("ip", msg.IP).
		Int("length", len(msg.Message)).
		Msg("contact message")
	return nil
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			return strings.TrimSpace(first)
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}
