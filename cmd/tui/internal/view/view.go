package view

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wetrack/wetrack/internal/api"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// SessionExpiredMsg tells the root model to drop to the login screen.
type SessionExpiredMsg struct{}

func SessionExpired() tea.Msg {
	return SessionExpiredMsg{}
}

// sessionLost reports errors that only a fresh login can fix.
func sessionLost(err error) bool {
	return errors.Is(err, api.ErrRefreshFailed) || errors.Is(err, api.ErrUnauthorized)
}

const reqTimeout = 30 * time.Second

// ReqCtx returns a context with the standard timeout for backend requests.
func ReqCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), reqTimeout)
}
