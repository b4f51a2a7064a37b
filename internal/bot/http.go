package bot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"readingtracker/internal/models"
	"readingtracker/internal/pacing"
	"readingtracker/internal/sessions"
	"readingtracker/internal/tracker"
)

// initDataMaxAge bounds how old Mini App init data may be
const initDataMaxAge = 24 * time.Hour

// HTTPServer serves the read-only JSON API for the Mini App
type HTTPServer struct {
	tracker      *tracker.Service
	logger       *zap.Logger
	token        string
	allowedUsers map[int64]bool
	requireAuth  bool // If false (polling mode or bot disabled), skip authentication for easier local dev
	now          func() time.Time
}

// NewHTTPServer creates the API server. token is the bot token that signs
// Mini App init data.
func NewHTTPServer(svc *tracker.Service, logger *zap.Logger, token string, allowedUserIDs []int64, requireAuth bool) *HTTPServer {
	allowed := make(map[int64]bool)
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &HTTPServer{
		tracker:      svc,
		logger:       logger,
		token:        token,
		allowedUsers: allowed,
		requireAuth:  requireAuth,
		now:          time.Now,
	}
}

// RegisterRoutes registers API routes on the provided mux
func (hs *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/books", hs.authMiddleware(hs.handleBooks))
	mux.HandleFunc("GET /api/books/{id}", hs.authMiddleware(hs.handleBook))
}

// bookView is a book with its derived display values
type bookView struct {
	models.Book
	Summary  pacing.Summary   `json:"summary"`
	Sessions []sessions.Stats `json:"sessions"`
}

func (hs *HTTPServer) view(book models.Book) bookView {
	summary, _ := hs.tracker.Summary(book.ID)
	rows, _ := hs.tracker.SessionTable(book.ID)
	return bookView{Book: book, Summary: summary, Sessions: rows}
}

// handleBooks returns the collection, optionally filtered with ?status=
func (hs *HTTPServer) handleBooks(w http.ResponseWriter, r *http.Request) {
	var books []models.Book
	if status := r.URL.Query().Get("status"); status != "" {
		books = hs.tracker.BooksByStatus(models.Status(status))
	} else {
		books = hs.tracker.Books()
	}

	views := make([]bookView, 0, len(books))
	for _, b := range books {
		views = append(views, hs.view(b))
	}
	hs.writeJSON(w, http.StatusOK, views)
}

// handleBook returns one book
func (hs *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request) {
	book, ok := hs.tracker.Book(r.PathValue("id"))
	if !ok {
		http.Error(w, `{"error":"Book not found"}`, http.StatusNotFound)
		return
	}
	hs.writeJSON(w, http.StatusOK, hs.view(book))
}

func (hs *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hs.logger.Warn("Failed to write response", zap.Error(err))
	}
}

// authMiddleware validates Telegram Mini App authentication
func (hs *HTTPServer) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hs.requireAuth {
			hs.logger.Debug("Skipping authentication",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			next(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "tma ") {
			hs.logger.Warn("Missing or invalid authorization header")
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}

		userID, err := hs.validateTelegramInitData(strings.TrimPrefix(authHeader, "tma "))
		if err != nil {
			hs.logger.Warn("Failed to validate initData",
				zap.Error(err),
				zap.String("remote_addr", r.RemoteAddr),
			)
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}

		hs.logger.Debug("Authenticated request",
			zap.Int64("user_id", userID),
			zap.String("path", r.URL.Path),
		)
		next(w, r)
	}
}

// validateTelegramInitData checks the Mini App initData signature and
// returns the user it was issued to
func (hs *HTTPServer) validateTelegramInitData(initData string) (int64, error) {
	if initData == "" {
		return 0, fmt.Errorf("missing initData")
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, fmt.Errorf("invalid initData format: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return 0, fmt.Errorf("missing hash in initData")
	}
	values.Del("hash")

	if !hmac.Equal([]byte(signInitData(hs.token, values)), []byte(hash)) {
		return 0, fmt.Errorf("invalid hash")
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("missing or invalid auth_date")
	}
	if hs.now().Sub(time.Unix(authDate, 0)) > initDataMaxAge {
		return 0, fmt.Errorf("initData is too old")
	}

	userStr := values.Get("user")
	if userStr == "" {
		return 0, fmt.Errorf("missing user data")
	}

	var userData struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(userStr), &userData); err != nil {
		return 0, fmt.Errorf("invalid user data: %w", err)
	}

	if !hs.allowedUsers[userData.ID] {
		return 0, fmt.Errorf("user not allowed")
	}
	return userData.ID, nil
}

// signInitData computes the Mini App hash over the sorted key=value lines
func signInitData(token string, values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheckString strings.Builder
	for i, k := range keys {
		if i > 0 {
			dataCheckString.WriteByte('\n')
		}
		dataCheckString.WriteString(k)
		dataCheckString.WriteByte('=')
		dataCheckString.WriteString(values.Get(k))
	}

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(token))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString.String()))
	return hex.EncodeToString(h.Sum(nil))
}
