package view

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/wetrack/wetrack/internal/budget"
	"github.com/wetrack/wetrack/internal/session"
	"github.com/wetrack/wetrack/internal/transaction"
)

type budgetDataMsg struct {
	userID  int64
	summary budget.Summary
	err     error
}

type budgetSavedMsg struct {
	err error
}

type BudgetModel struct {
	CommonModel
	sessions *session.Service
	store    *transaction.Store
	budgets  *budget.Service
	currency string

	form    *huh.Form
	userID  int64
	summary budget.Summary
	loading bool
	editing bool
	status  string
}

func NewBudgetModel(sessions *session.Service, store *transaction.Store, budgets *budget.Service, currency string) BudgetModel {
	return BudgetModel{
		sessions: sessions,
		store:    store,
		budgets:  budgets,
		currency: currency,
		loading:  true,
	}
}

func (m BudgetModel) Title() string { return "Budget" }
func (m BudgetModel) ShortHelp() string {
	if m.editing {
		return "Enter: save | Esc: cancel"
	}
	return "s: set goal | r: refresh | Esc: back"
}

func (m BudgetModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m BudgetModel) loadCmd() tea.Cmd {
	sessions := m.sessions
	store := m.store
	budgets := m.budgets

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		user, err := sessions.CurrentUser(ctx)
		if err != nil {
			return budgetDataMsg{err: err}
		}

		txs, err := store.FetchAll(ctx)
		if err != nil {
			return budgetDataMsg{userID: user.ID, err: err}
		}

		summary := budgets.Summarize(ctx, user.ID, time.Now(), txs)

		return budgetDataMsg{userID: user.ID, summary: summary}
	}
}

func (m BudgetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case budgetDataMsg:
		m.loading = false
		if msg.err != nil {
			if sessionLost(msg.err) {
				return m, SessionExpired
			}
			m.userID = msg.userID
			m.status = fmt.Sprintf("Could not load budget: %v", msg.err)

			return m, nil
		}

		m.userID = msg.userID
		m.summary = msg.summary
		m.status = ""

		return m, nil

	case budgetSavedMsg:
		m.editing = false
		m.form = nil
		if msg.err != nil {
			m.status = fmt.Sprintf("Could not save goal: %v", msg.err)
			return m, nil
		}

		m.loading = true

		return m, m.loadCmd()
	}

	if m.editing {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			return m.enterEditMode()
		}
	}

	return m, nil
}

func (m BudgetModel) enterEditMode() (tea.Model, tea.Cmd) {
	goal := ""
	if m.summary.Budget.IsPositive() {
		goal = m.summary.Budget.StringFixed(2)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("goal").
				Title("Monthly budget").
				Value(&goal).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("budget must be a number")
					}
					if d.IsNegative() {
						return fmt.Errorf("budget cannot be negative")
					}
					return nil
				}),
		),
	).WithWidth(40).WithShowHelp(false)

	m.editing = true

	return m, m.form.Init()
}

func (m BudgetModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.editing = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	goal, err := decimal.NewFromString(strings.TrimSpace(m.form.GetString("goal")))
	if err != nil {
		return m, func() tea.Msg { return budgetSavedMsg{err: err} }
	}

	budgets := m.budgets
	userID := m.userID

	return m, func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return budgetSavedMsg{err: budgets.Set(ctx, userID, time.Now(), goal)}
	}
}

func (m BudgetModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(1).Render("Loading...")
	}

	lines := fmt.Sprintf("%s\n\n", headingStyle.Render("Budget for "+FormatMonth(time.Now())))
	lines += fmt.Sprintf("%s %s\n", labelStyle.Render("Goal:"), FormatAmount(m.summary.Budget, m.currency))
	lines += fmt.Sprintf("%s %s\n", labelStyle.Render("Spent:"), FormatAmount(m.summary.Spent, m.currency))

	remaining := FormatAmount(m.summary.Remaining, m.currency)
	if m.summary.Remaining.IsNegative() {
		remaining = overStyle.Render(remaining + " over budget")
	}
	lines += fmt.Sprintf("%s %s\n", labelStyle.Render("Remaining:"), remaining)

	if m.summary.Budget.IsPositive() {
		lines += fmt.Sprintf("%s %.0f%%\n", labelStyle.Render("Used:"), m.summary.PercentSpent)
	}

	if m.editing && m.form != nil {
		lines += "\n" + m.form.View()
	}

	if m.status != "" {
		lines += "\n" + labelStyle.Render(m.status) + "\n"
	}

	return lipgloss.NewStyle().Padding(1).Render(lines)
}
