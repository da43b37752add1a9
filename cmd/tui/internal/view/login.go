package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/wetrack/wetrack/internal/session"
)

// LoggedInMsg tells the root model a session is established.
type LoggedInMsg struct {
	Session *session.Session
}

type loginResultMsg struct {
	sess *session.Session
	err  error
}

type LoginModel struct {
	CommonModel
	sessions *session.Service

	form       *huh.Form
	username   string
	password   string
	submitting bool
	status     string
}

func NewLoginModel(sessions *session.Service) LoginModel {
	m := LoginModel{sessions: sessions}
	m.form = m.newForm()

	return m
}

func (m LoginModel) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("username").
				Title("Username").
				Value(&m.username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("username cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m LoginModel) Title() string     { return "Log In" }
func (m LoginModel) ShortHelp() string { return "Enter: submit | Esc: back" }

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Login failed: %v", msg.err)
			m.form = m.newForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return LoggedInMsg{Session: msg.sess} }

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.submitting {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.submitting = true
	m.status = "Logging in..."
	m.username = m.form.GetString("username")
	m.password = m.form.GetString("password")

	return m, m.loginCmd()
}

func (m LoginModel) loginCmd() tea.Cmd {
	sessions := m.sessions
	username := m.username
	password := m.password

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		sess, err := sessions.Login(ctx, username, password)

		return loginResultMsg{sess: sess, err: err}
	}
}

func (m LoginModel) View() string {
	statusLine := ""
	if m.status != "" {
		statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n\n"
	}

	if m.submitting {
		return lipgloss.NewStyle().Padding(1).Render(statusLine)
	}

	return lipgloss.NewStyle().Padding(1).Render(statusLine + m.form.View())
}
