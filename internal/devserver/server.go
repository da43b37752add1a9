// Package devserver is an in-memory stand-in for the WeTrack backend, used to
// run the TUI without the real service and to integration-test the client
// against the actual wire contract. State lives for the process lifetime only.
package devserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
)

type Server struct {
	secret    []byte
	accessTTL time.Duration

	mu         sync.Mutex
	users      map[string]*user  // by username
	refresh    map[string]string // refresh token -> username
	txs        map[string][]*txRecord
	nextUserID int64
	nextTxID   int64
}

type user struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	password string
}

func New(secret string) *Server {
	return &Server{
		secret:    []byte(secret),
		accessTTL: 15 * time.Minute,
		users:     map[string]*user{},
		refresh:   map[string]string{},
		txs:       map[string][]*txRecord{},
	}
}

func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/registration", s.register)
		r.Post("/login", s.login)
		r.Post("/token/refresh", s.refreshToken)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/logout", s.logout)
			r.Get("/user", s.profile)
		})
	})

	router.Route("/api", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Use(s.authenticate)
			r.Get("/", s.listTransactions)
			r.Post("/", s.createTransaction)
			r.Patch("/{id}", s.updateTransaction)
			r.Delete("/{id}", s.deleteTransaction)
		})

		r.Route("/currency", func(r chi.Router) {
			r.Get("/convert", s.convertCurrency)
			r.Get("/rate", s.exchangeRate)
		})
	})

	return router
}

type contextKey string

const userKey contextKey = "devserver.user"

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})

			return
		}

		claims := jwt.MapClaims{}

		_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})

			return
		}

		username, _ := claims["username"].(string)

		s.mu.Lock()
		u, ok := s.users[username]
		s.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "User not found"})
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

func (s *Server) mintAccess(u *user) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"token_type": "access",
		"user_id":    u.ID,
		"username":   u.Username,
		"exp":        time.Now().Add(s.accessTTL).Unix(),
		"iat":        time.Now().Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
