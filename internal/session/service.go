package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wetrack/wetrack/internal/api"
	"github.com/wetrack/wetrack/internal/storage"
)

// Service owns the credential lifecycle: it is the sole writer of the stored
// token pair and cached profile. It implements api.TokenSource for callers
// that need authorized requests.
type Service struct {
	client *api.Client
	store  storage.KV
}

func NewService(client *api.Client, store storage.KV) *Service {
	return &Service{client: client, store: store}
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user,omitempty"`
}

// Login exchanges credentials for a token pair, overwriting any previous
// session. The profile is taken from the response when inline, fetched
// otherwise.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	body := map[string]string{"username": username, "password": password}

	var resp loginResponse
	if err := s.client.Do(ctx, http.MethodPost, "/auth/login/", body, &resp); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	if err := s.store.Set(ctx, storage.KeyAccessToken, resp.Access); err != nil {
		return nil, fmt.Errorf("storing access token: %w", err)
	}

	if err := s.store.Set(ctx, storage.KeyRefreshToken, resp.Refresh); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	sess := &Session{AccessToken: resp.Access, RefreshToken: resp.Refresh, User: resp.User}

	if sess.User == nil {
		user, err := s.fetchUser(ctx, resp.Access)
		if err != nil {
			// The session is usable without a profile; the next CurrentUser
			// call retries the fetch.
			slog.Warn("fetching profile after login failed", "error", err)
			return sess, nil
		}

		sess.User = user
	}

	if err := s.cacheUser(ctx, sess.User); err != nil {
		return nil, err
	}

	return sess, nil
}

// Register validates locally, then creates the account. Server-side field
// errors come back as *api.ValidationError, same as local ones.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var user User
	if err := s.client.Do(ctx, http.MethodPost, "/auth/registration/", params, &user); err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}

	return &user, nil
}

// Refresh exchanges the stored refresh token for a new access token. Failure
// is terminal: all credentials are cleared and ErrRefreshFailed is returned.
func (s *Service) Refresh(ctx context.Context) (string, error) {
	refresh, err := s.store.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		s.clear(ctx)
		return "", fmt.Errorf("no refresh token: %w", api.ErrRefreshFailed)
	}

	var resp struct {
		Access string `json:"access"`
	}

	body := map[string]string{"refresh": refresh}
	if err := s.client.Do(ctx, http.MethodPost, "/auth/token/refresh/", body, &resp); err != nil {
		s.clear(ctx)
		return "", fmt.Errorf("%w: %w", api.ErrRefreshFailed, err)
	}

	if err := s.store.Set(ctx, storage.KeyAccessToken, resp.Access); err != nil {
		return "", fmt.Errorf("storing access token: %w", err)
	}

	return resp.Access, nil
}

// Logout invalidates the session server-side on a best-effort basis and
// unconditionally clears local credentials and the cached transaction data.
func (s *Service) Logout(ctx context.Context) error {
	token, err := s.store.Get(ctx, storage.KeyAccessToken)
	if err == nil && token != "" {
		if err := s.client.DoBearer(ctx, token, http.MethodPost, "/auth/logout/", nil, nil); err != nil {
			slog.Warn("server-side logout failed", "error", err)
		}
	}

	return s.clear(ctx)
}

// IsAuthenticated reports whether an access token is stored. It does not
// validate the token against the server.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	token, err := s.store.Get(ctx, storage.KeyAccessToken)
	return err == nil && token != ""
}

// CurrentUser returns the cached profile, fetching and caching it when absent.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	if raw, err := s.store.Get(ctx, storage.KeyUser); err == nil {
		var user User
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			return &user, nil
		}
	}

	token, err := s.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.fetchUser(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.cacheUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// AccessToken implements api.TokenSource. A token whose exp claim has already
// passed is refreshed up front instead of burning a round trip on a 401.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("not authenticated: %w", api.ErrUnauthorized)
		}

		return "", err
	}

	if tokenExpired(token) {
		return s.Refresh(ctx)
	}

	return token, nil
}

func (s *Service) fetchUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := s.client.DoBearer(ctx, token, http.MethodGet, "/auth/user/", nil, &user); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}

	return &user, nil
}

func (s *Service) cacheUser(ctx context.Context, user *User) error {
	if user == nil {
		return nil
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	if err := s.store.Set(ctx, storage.KeyUser, string(raw)); err != nil {
		return fmt.Errorf("caching profile: %w", err)
	}

	return nil
}

func (s *Service) clear(ctx context.Context) error {
	keys := []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyUser, storage.KeyTransactions}
	if err := s.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}

// tokenExpired inspects the JWT exp claim without verifying the signature.
// Opaque or claimless tokens are assumed live; the server still 401s them.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(time.Now())
}
