package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"library_project/internal/db"
	"library_project/internal/models"
	"library_project/internal/recs"
	"library_project/internal/service"
)

const defaultPopularLimit = 8

// Server is the JSON API behind the Telegram Mini App. Every data endpoint
// is authenticated with signed initData; the user is registered on first
// authenticated call.
type Server struct {
	lib      *service.Library
	botToken string
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func New(lib *service.Library, botToken string) *Server {
	return &Server{lib: lib, botToken: botToken}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/books", s.handleBooks)
	mux.HandleFunc("/api/recommendations", s.handleRecommendations)
	mux.HandleFunc("/api/insights/popular", s.handlePopular)
	mux.HandleFunc("/api/borrow", s.handleBorrow)
	mux.HandleFunc("/api/return", s.handleReturn)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)
		log.Printf("http %s %s -> %d ua=%s", r.Method, r.URL.Path, rec.status, r.UserAgent())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type bookEntry struct {
	models.Book
	Borrowed bool `json:"borrowed"`
}

// handleBooks returns the catalog with the caller's borrow status per book.
func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	s.withUser(w, r, func(ctx context.Context, user TelegramUser) {
		books, err := s.lib.Books(ctx)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		held, err := s.lib.Borrowed(ctx, user.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		entries := make([]bookEntry, 0, len(books))
		for _, b := range books {
			entries = append(entries, bookEntry{Book: b, Borrowed: held[b.ID]})
		}
		writeJSON(w, http.StatusOK, entries)
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	s.withUser(w, r, func(ctx context.Context, user TelegramUser) {
		log.Printf("recommendations: request user_id=%d", user.ID)
		list, err := s.lib.Recommend(ctx, user.ID)
		if err != nil {
			if errors.Is(err, recs.ErrUnknownUser) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown user"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if list == nil {
			list = []models.Recommendation{}
		}
		writeJSON(w, http.StatusOK, list)
	})
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	s.withUser(w, r, func(ctx context.Context, _ TelegramUser) {
		limit := defaultPopularLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive number"})
				return
			}
			limit = n
		}

		top, err := s.lib.TopPopular(ctx, limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if top == nil {
			top = []service.PopularBook{}
		}
		writeJSON(w, http.StatusOK, top)
	})
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.lib.Borrow)
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, s.lib.Return)
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return false
	}
	return true
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, action func(context.Context, int64, int64) error) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	s.withUser(w, r, func(ctx context.Context, user TelegramUser) {
		var body struct {
			BookID int64 `json:"book_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if body.BookID == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "book_id is required"})
			return
		}

		if err := action(ctx, user.ID, body.BookID); err != nil {
			switch {
			case errors.Is(err, db.ErrNotFound):
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "book not found"})
			case errors.Is(err, service.ErrAlreadyBorrowed), errors.Is(err, service.ErrNotBorrowed):
				writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			default:
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
}

func (s *Server) withUser(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, user TelegramUser)) {
	initData := extractInitData(r)
	if initData == "" {
		log.Printf("auth: initData missing remote=%s ua=%s", r.RemoteAddr, r.UserAgent())
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "initData required"})
		return
	}

	user, err := ValidateInitData(initData, s.botToken)
	if err != nil {
		log.Printf("auth: initData invalid len=%d remote=%s err=%v", len(initData), r.RemoteAddr, err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid initData"})
		return
	}

	if err := s.lib.RegisterUser(r.Context(), user.ID, user.Username); err != nil {
		log.Printf("register user error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db error"})
		return
	}

	fn(r.Context(), user)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func extractInitData(r *http.Request) string {
	// Headers first (preferred channel for security-critical data).
	if v := r.Header.Get("X-Telegram-InitData"); v != "" {
		return v
	}
	if v := r.Header.Get("X-Telegram-Web-App-Data"); v != "" {
		return v
	}

	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(strings.ToLower(auth), "tma ") {
			return strings.TrimSpace(auth[4:])
		}
	}

	// URL fallback (useful for debugging in a normal browser).
	if v := r.URL.Query().Get("initData"); v != "" {
		return v
	}
	return ""
}
