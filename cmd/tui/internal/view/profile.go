package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wetrack/wetrack/internal/session"
)

type profileDataMsg struct {
	user *session.User
	err  error
}

type ProfileModel struct {
	CommonModel
	sessions *session.Service

	loading bool
	user    *session.User
	status  string
}

func NewProfileModel(sessions *session.Service) ProfileModel {
	return ProfileModel{sessions: sessions, loading: true}
}

func (m ProfileModel) Title() string     { return "Profile" }
func (m ProfileModel) ShortHelp() string { return "r: refresh | Esc: back" }

func (m ProfileModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ProfileModel) loadCmd() tea.Cmd {
	sessions := m.sessions

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		user, err := sessions.CurrentUser(ctx)

		return profileDataMsg{user: user, err: err}
	}
}

func (m ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case profileDataMsg:
		m.loading = false
		if msg.err != nil {
			if sessionLost(msg.err) {
				return m, SessionExpired
			}
			m.status = fmt.Sprintf("Could not load profile: %v", msg.err)

			return m, nil
		}

		m.user = msg.user
		m.status = ""

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	return m, nil
}

func (m ProfileModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(1).Render("Loading...")
	}

	if m.user == nil {
		status := m.status
		if status == "" {
			status = "No profile available"
		}

		return lipgloss.NewStyle().Padding(1).Render(labelStyle.Render(status))
	}

	lines := headingStyle.Render("Your Profile") + "\n\n"
	lines += fmt.Sprintf("%s %s\n", labelStyle.Render("Username:"), m.user.Username)
	lines += fmt.Sprintf("%s %s\n", labelStyle.Render("Email:"), m.user.Email)

	if m.user.Name != "" {
		lines += fmt.Sprintf("%s %s\n", labelStyle.Render("Name:"), m.user.Name)
	}

	if m.status != "" {
		lines += "\n" + labelStyle.Render(m.status) + "\n"
	}

	return lipgloss.NewStyle().Padding(1).Render(lines)
}
