package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/wetrack/wetrack/cmd/tui/internal/view"
	"github.com/wetrack/wetrack/internal/api"
	"github.com/wetrack/wetrack/internal/budget"
	"github.com/wetrack/wetrack/internal/config"
	"github.com/wetrack/wetrack/internal/session"
	"github.com/wetrack/wetrack/internal/storage"
	"github.com/wetrack/wetrack/internal/transaction"
)

type model struct {
	appName  string
	sessions *session.Service

	currentView View
	status      string

	loginView        view.LoginModel
	signupView       view.SignupModel
	dashboardView    view.DashboardModel
	transactionsView view.TransactionsModel
	budgetView       view.BudgetModel
	profileView      view.ProfileModel

	newDashboard    func() view.DashboardModel
	newTransactions func() view.TransactionsModel
	newBudget       func() view.BudgetModel
}

type View int

const (
	ViewMenu View = iota
	ViewLogin
	ViewSignup
	ViewDashboard
	ViewTransactions
	ViewBudget
	ViewProfile
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		slog.Error("failed to open local storage", "error", err)
		os.Exit(1)
	}

	client := api.New(cfg.API.BaseURL, cfg.API.Timeout)
	sessions := session.NewService(client, db)
	store := transaction.NewStore(client, sessions, db)
	budgets := budget.NewService(db)

	// Rehydrate last session's transactions so the views have data before
	// the first fetch completes, or while offline.
	if err := store.LoadCached(context.Background()); err != nil {
		slog.Warn("loading cached transactions failed", "error", err)
	}

	m := model{
		appName:  cfg.App.Name,
		sessions: sessions,
	}

	m.newDashboard = func() view.DashboardModel {
		return view.NewDashboardModel(sessions, store, budgets, cfg.App.Currency)
	}
	m.newTransactions = func() view.TransactionsModel {
		return view.NewTransactionsModel(store, cfg.App.Currency)
	}
	m.newBudget = func() view.BudgetModel {
		return view.NewBudgetModel(sessions, store, budgets, cfg.App.Currency)
	}

	m.loginView = view.NewLoginModel(sessions)
	m.signupView = view.NewSignupModel(sessions)
	m.dashboardView = m.newDashboard()
	m.transactionsView = m.newTransactions()
	m.budgetView = m.newBudget()
	m.profileView = view.NewProfileModel(sessions)

	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			return m.updateMenu(msg)
		}

	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil

	case view.LoggedInMsg:
		m.status = "Logged in"
		if msg.Session.User != nil {
			m.status = "Logged in as " + msg.Session.User.Username
		}
		m.currentView = ViewMenu

		return m, nil

	case view.SignedUpMsg:
		m.status = "Account created for " + msg.User.Username + ", log in to continue"
		m.currentView = ViewLogin
		m.loginView = view.NewLoginModel(m.sessions)

		return m, m.loginView.Init()

	case view.SessionExpiredMsg:
		m.status = "Session expired, log in again"
		m.currentView = ViewLogin
		m.loginView = view.NewLoginModel(m.sessions)

		return m, m.loginView.Init()

	case logoutMsg:
		if msg.err != nil {
			slog.Warn("logout failed", "error", msg.err)
		}
		m.status = "Logged out"
		m.currentView = ViewMenu

		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewSignup:
		var newModel tea.Model
		newModel, cmd = m.signupView.Update(msg)
		m.signupView = newModel.(view.SignupModel)
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewTransactions:
		var newModel tea.Model
		newModel, cmd = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)
	case ViewBudget:
		var newModel tea.Model
		newModel, cmd = m.budgetView.Update(msg)
		m.budgetView = newModel.(view.BudgetModel)
	case ViewProfile:
		var newModel tea.Model
		newModel, cmd = m.profileView.Update(msg)
		m.profileView = newModel.(view.ProfileModel)
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}

	if !m.sessions.IsAuthenticated(context.Background()) {
		switch msg.String() {
		case "1":
			m.currentView = ViewLogin
			m.loginView = view.NewLoginModel(m.sessions)

			return m, m.loginView.Init()
		case "2":
			m.currentView = ViewSignup
			m.signupView = view.NewSignupModel(m.sessions)

			return m, m.signupView.Init()
		}

		return m, nil
	}

	switch msg.String() {
	case "1":
		m.currentView = ViewDashboard
		m.dashboardView = m.newDashboard()

		return m, m.dashboardView.Init()
	case "2":
		m.currentView = ViewTransactions
		m.transactionsView = m.newTransactions()

		return m, m.transactionsView.Init()
	case "3":
		m.currentView = ViewBudget
		m.budgetView = m.newBudget()

		return m, m.budgetView.Init()
	case "4":
		m.currentView = ViewProfile
		m.profileView = view.NewProfileModel(m.sessions)

		return m, m.profileView.Init()
	case "5":
		return m, m.logoutCmd()
	}

	return m, nil
}

type logoutMsg struct {
	err error
}

func (m model) logoutCmd() tea.Cmd {
	sessions := m.sessions

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return logoutMsg{err: sessions.Logout(ctx)}
	}
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		menu := m.appName + "\n\n"
		if m.sessions.IsAuthenticated(context.Background()) {
			menu += "1. Dashboard\n" +
				"2. Transactions\n" +
				"3. Budget\n" +
				"4. Profile\n" +
				"5. Log Out\n"
		} else {
			menu += "1. Log In\n" +
				"2. Sign Up\n"
		}
		menu += "\nq. Quit"

		if m.status != "" {
			menu += "\n\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
		}

		return lipgloss.NewStyle().Padding(2).Render(menu)
	case ViewLogin:
		return m.loginView.View()
	case ViewSignup:
		return m.signupView.View()
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewTransactions:
		return m.transactionsView.View()
	case ViewBudget:
		return m.budgetView.View()
	case ViewProfile:
		return m.profileView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
