package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

func withUser(ctx context.Context, u *user) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func requestUser(r *http.Request) *user {
	u, _ := r.Context().Value(userKey).(*user)
	return u
}

type registrationRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	fields := map[string][]string{}

	if req.Username == "" {
		fields["username"] = []string{"This field is required."}
	}

	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		fields["email"] = []string{"Enter a valid email address."}
	}

	if len(req.Password1) < 8 {
		fields["password1"] = []string{"This password is too short. It must contain at least 8 characters."}
	}

	if req.Password1 != req.Password2 {
		fields["password2"] = []string{"The two password fields didn't match."}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[req.Username]; exists {
		fields["username"] = append(fields["username"], "A user with that username already exists.")
	}

	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	s.nextUserID++
	u := &user{
		ID:       s.nextUserID,
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		password: req.Password1,
	}
	s.users[u.Username] = u

	writeJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Username]
	s.mu.Unlock()

	if !ok || u.password != req.Password {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Unable to log in with provided credentials."},
		})

		return
	}

	access, err := s.mintAccess(u)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "token signing failed"})
		return
	}

	refresh := uuid.NewString()

	s.mu.Lock()
	s.refresh[refresh] = u.Username
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access":  access,
		"refresh": refresh,
		"user":    u,
	})
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	username, ok := s.refresh[req.Refresh]

	var u *user
	if ok {
		u = s.users[username]
	}
	s.mu.Unlock()

	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})

		return
	}

	access, err := s.mintAccess(u)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "token signing failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	s.mu.Lock()
	for token, username := range s.refresh {
		if username == u.Username {
			delete(s.refresh, token)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"detail": "Successfully logged out."})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, requestUser(r))
}
