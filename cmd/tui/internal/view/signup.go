package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/wetrack/wetrack/internal/session"
)

// SignedUpMsg tells the root model an account was created.
type SignedUpMsg struct {
	User *session.User
}

type signupResultMsg struct {
	user *session.User
	err  error
}

type SignupModel struct {
	CommonModel
	sessions *session.Service

	form       *huh.Form
	submitting bool
	status     string
}

func NewSignupModel(sessions *session.Service) SignupModel {
	m := SignupModel{sessions: sessions}
	m.form = m.newForm()

	return m
}

func (m SignupModel) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("username").
				Title("Username"),

			huh.NewInput().
				Key("email").
				Title("Email"),

			huh.NewInput().
				Key("name").
				Title("Full name"),

			huh.NewInput().
				Key("password1").
				Title("Password").
				EchoMode(huh.EchoModePassword),

			huh.NewInput().
				Key("password2").
				Title("Confirm password").
				EchoMode(huh.EchoModePassword),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m SignupModel) Title() string     { return "Sign Up" }
func (m SignupModel) ShortHelp() string { return "Enter: submit | Esc: back" }

func (m SignupModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SignupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case signupResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Signup failed: %v", msg.err)
			m.form = m.newForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return SignedUpMsg{User: msg.user} }

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
	m.status = "Creating account..."

	params := session.RegisterParams{
		Username:  m.form.GetString("username"),
		Email:     m.form.GetString("email"),
		Name:      m.form.GetString("name"),
		Password1: m.form.GetString("password1"),
		Password2: m.form.GetString("password2"),
	}

	return m, m.signupCmd(params)
}

func (m SignupModel) signupCmd(params session.RegisterParams) tea.Cmd {
	sessions := m.sessions

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		user, err := sessions.Register(ctx, params)

		return signupResultMsg{user: user, err: err}
	}
}

func (m SignupModel) View() string {
	statusLine := ""
	if m.status != "" {
		statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n\n"
	}

	if m.submitting {
		return lipgloss.NewStyle().Padding(1).Render(statusLine)
	}

	return lipgloss.NewStyle().Padding(1).Render(statusLine + m.form.View())
}
