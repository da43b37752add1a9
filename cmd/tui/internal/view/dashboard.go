package view

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wetrack/wetrack/internal/budget"
	"github.com/wetrack/wetrack/internal/session"
	"github.com/wetrack/wetrack/internal/transaction"
)

type dashboardDataMsg struct {
	user    *session.User
	summary budget.Summary
	count   int
	err     error
}

type DashboardModel struct {
	CommonModel
	sessions *session.Service
	store    *transaction.Store
	budgets  *budget.Service
	currency string

	loading bool
	user    *session.User
	summary budget.Summary
	count   int
	status  string
}

func NewDashboardModel(sessions *session.Service, store *transaction.Store, budgets *budget.Service, currency string) DashboardModel {
	return DashboardModel{
		sessions: sessions,
		store:    store,
		budgets:  budgets,
		currency: currency,
		loading:  true,
	}
}

func (m DashboardModel) Title() string     { return "Dashboard" }
func (m DashboardModel) ShortHelp() string { return "r: refresh | Esc: back" }

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) loadCmd() tea.Cmd {
	sessions := m.sessions
	store := m.store
	budgets := m.budgets

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		user, err := sessions.CurrentUser(ctx)
		if err != nil {
			return dashboardDataMsg{err: err}
		}

		txs, err := store.FetchAll(ctx)
		if err != nil {
			if sessionLost(err) {
				return dashboardDataMsg{user: user, err: err}
			}

			// Summarize what the last sync left behind.
			txs = store.All()
		}

		now := time.Now()
		month := store.ForMonth(now.Year(), now.Month())
		summary := budgets.Summarize(ctx, user.ID, now, txs)

		return dashboardDataMsg{user: user, summary: summary, count: len(month), err: err}
	}
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		if msg.err != nil && sessionLost(msg.err) {
			return m, SessionExpired
		}

		m.user = msg.user
		m.summary = msg.summary
		m.count = msg.count
		m.status = ""
		if msg.err != nil {
			m.status = fmt.Sprintf("Could not refresh, showing cached data: %v", msg.err)
		}

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "esc":
			return m, Back
		}
	}

	return m, nil
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true)
	overStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (m DashboardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(1).Render("Loading...")
	}

	name := "there"
	if m.user != nil {
		name = m.user.Username
		if m.user.Name != "" {
			name = m.user.Name
		}
	}

	now := time.Now()
	lines := fmt.Sprintf("%s\n\n", headingStyle.Render("Hello, "+name))
	lines += fmt.Sprintf("%s %s\n\n", labelStyle.Render("Month:"), FormatMonth(now))
	lines += fmt.Sprintf("%s %d\n", labelStyle.Render("Transactions this month:"), m.count)
	lines += fmt.Sprintf("%s %s\n", labelStyle.Render("Budget:"), FormatAmount(m.summary.Budget, m.currency))
	lines += fmt.Sprintf("%s %s\n", labelStyle.Render("Spent:"), FormatAmount(m.summary.Spent, m.currency))

	remaining := FormatAmount(m.summary.Remaining, m.currency)
	if m.summary.Remaining.IsNegative() {
		remaining = overStyle.Render(remaining + " over budget")
	}
	lines += fmt.Sprintf("%s %s\n", labelStyle.Render("Remaining:"), remaining)

	if m.summary.Budget.IsPositive() {
		lines += fmt.Sprintf("%s %.0f%%\n", labelStyle.Render("Used:"), m.summary.PercentSpent)
	}

	if m.status != "" {
		lines += "\n" + labelStyle.Render(m.status) + "\n"
	}

	return lipgloss.NewStyle().Padding(1).Render(lines)
}
