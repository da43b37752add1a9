package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/wetrack/wetrack/internal/transaction"
)

type txState int

const (
	txStateBrowse txState = iota
	txStateAdd
	txStateEdit
)

type TransactionsModel struct {
	CommonModel
	store    *transaction.Store
	currency string

	state txState
	table table.Model
	txs   []transaction.Transaction
	form  *huh.Form

	editing transaction.ID

	loading bool
	status  string
}

func NewTransactionsModel(store *transaction.Store, currency string) TransactionsModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Category", Width: 12},
		{Title: "Amount", Width: 12},
		{Title: "Description", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return TransactionsModel{
		store:    store,
		currency: currency,
		table:    t,
		loading:  true,
	}
}

func (m TransactionsModel) Title() string { return "Transactions" }
func (m TransactionsModel) ShortHelp() string {
	if m.state != txStateBrowse {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | a: add | e: edit | d: delete | r: refresh"
}

func (m TransactionsModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case txLoadMsg:
		m.loading = false
		if msg.err != nil {
			if sessionLost(msg.err) {
				return m, SessionExpired
			}
			m.status = fmt.Sprintf("Error loading, showing cached data: %v", msg.err)
		} else {
			m.status = ""
		}
		m.txs = msg.txs
		m.refreshTable()
		return m, nil

	case txSaveMsg:
		if msg.err != nil {
			if sessionLost(msg.err) {
				return m, SessionExpired
			}
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}
		m.state = txStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadTxsCmd()

	case txDeleteMsg:
		if msg.err != nil {
			if sessionLost(msg.err) {
				return m, SessionExpired
			}
			m.status = fmt.Sprintf("Error deleting: %v", msg.err)
			return m, nil
		}
		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == txStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m TransactionsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "a":
			return m.enterAddMode()
		case "e":
			return m.enterEditMode()
		case "d":
			return m.deleteSelected()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

const dateLayout = "2006-01-02"

func (m TransactionsModel) newForm(amount, currency, category, description, date string) *huh.Form {
	options := make([]huh.Option[string], 0, len(transaction.CategoryLabels))
	for _, key := range []string{
		transaction.CategoryFood,
		transaction.CategoryPurchase,
		transaction.CategoryFixed,
		transaction.CategoryTravel,
	} {
		options = append(options, huh.NewOption(transaction.CategoryLabels[key], key))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Amount").
				Description("Negative for expenses, e.g. -12.50").
				Value(&amount).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("amount must be a number")
					}
					if d.IsZero() {
						return fmt.Errorf("amount must be non-zero")
					}
					return nil
				}),

			huh.NewInput().
				Key("currency").
				Title("Currency").
				Value(&currency).
				Validate(func(s string) error {
					if len(strings.TrimSpace(s)) != 3 {
						return fmt.Errorf("currency must be a 3-letter code")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Key("category").
				Title("Category").
				Options(options...).
				Value(&category),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("description cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("date").
				Title("Date").
				Placeholder(dateLayout).
				Value(&date).
				Validate(func(s string) error {
					if _, err := time.Parse(dateLayout, strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("date must be %s", dateLayout)
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m TransactionsModel) enterAddMode() (tea.Model, tea.Cmd) {
	m.form = m.newForm("", m.currency, transaction.CategoryPurchase, "", time.Now().Format(dateLayout))
	m.state = txStateAdd
	m.editing = ""
	m.table.Blur()
	return m, m.form.Init()
}

func (m TransactionsModel) enterEditMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return m, nil
	}

	tx := m.txs[idx]
	m.form = m.newForm(tx.Amount.String(), tx.Currency, tx.Category, tx.Description, tx.Date.Format(dateLayout))
	m.state = txStateEdit
	m.editing = tx.ID
	m.table.Blur()
	return m, m.form.Init()
}

func (m TransactionsModel) deleteSelected() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return m, nil
	}

	store := m.store
	id := m.txs[idx].ID

	return m, func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		return txDeleteMsg{err: store.Delete(ctx, id)}
	}
}

func (m TransactionsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = txStateBrowse
			m.form = nil
			m.table.Focus()
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

	return m, m.saveCmd()
}

func (m TransactionsModel) saveCmd() tea.Cmd {
	amount, err := decimal.NewFromString(strings.TrimSpace(m.form.GetString("amount")))
	if err != nil {
		return func() tea.Msg { return txSaveMsg{err: err} }
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(m.form.GetString("date")))
	if err != nil {
		return func() tea.Msg { return txSaveMsg{err: err} }
	}

	currency := strings.ToUpper(strings.TrimSpace(m.form.GetString("currency")))
	category := m.form.GetString("category")
	description := strings.TrimSpace(m.form.GetString("description"))

	store := m.store
	id := m.editing

	if m.state == txStateEdit {
		patch := transaction.Patch{
			Amount:      &amount,
			Currency:    &currency,
			Category:    &category,
			Description: &description,
			Date:        &date,
		}

		return func() tea.Msg {
			ctx, cancel := ReqCtx()
			defer cancel()

			_, err := store.Update(ctx, id, patch)
			return txSaveMsg{err: err}
		}
	}

	draft := transaction.Draft{
		Amount:      amount,
		Currency:    currency,
		Category:    category,
		Description: description,
		Date:        date,
	}

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		_, err := store.Add(ctx, draft)
		return txSaveMsg{err: err}
	}
}

func (m TransactionsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := tableView

	if m.state != txStateBrowse && m.form != nil {
		title := "Add Transaction"
		if m.state == txStateEdit {
			title = "Edit Transaction"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("%s\n\n%s", title, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *TransactionsModel) refreshTable() {
	// Newest first; the store keeps server order.
	sort.SliceStable(m.txs, func(i, j int) bool {
		return m.txs[i].Date.After(m.txs[j].Date)
	})

	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		label := tx.CategoryDisplay
		if label == "" {
			label = transaction.CategoryLabels[tx.Category]
		}
		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			label,
			FormatAmount(tx.Amount, tx.Currency),
			tx.Description,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type txLoadMsg struct {
	txs []transaction.Transaction
	err error
}

func (m TransactionsModel) loadTxsCmd() tea.Cmd {
	store := m.store

	return func() tea.Msg {
		ctx, cancel := ReqCtx()
		defer cancel()

		txs, err := store.FetchAll(ctx)
		if err != nil && !sessionLost(err) {
			// Stale-but-available beats an empty table.
			txs = store.All()
		}

		return txLoadMsg{txs: txs, err: err}
	}
}

type txSaveMsg struct {
	err error
}

type txDeleteMsg struct {
	err error
}
