package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

var statusFilters = []struct {
	label  string
	status *transaction.Status
}{
	{label: "All"},
	{label: "Pending", status: new(transaction.StatusPending)},
	{label: "Approved", status: new(transaction.StatusApproved)},
	{label: "Rejected", status: new(transaction.StatusRejected)},
}

type ListModel struct {
	CommonModel
	txService *transaction.Service

	table table.Model
	txs   []*transaction.Transaction

	statusFilterIdx int

	filter  transaction.ListFilter
	loading bool
	err     error
	status  string
}

func NewListModel(txSvc *transaction.Service) ListModel {
	columns := []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Created (UTC)", Width: 17},
		{Title: "Status", Width: 10},
		{Title: "Value", Width: 12},
		{Title: "Source", Width: 10},
		{Title: "Target", Width: 10},
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

	return ListModel{
		txService: txSvc,
		table:     t,
		loading:   true,
	}
}

func (m ListModel) Title() string { return "Transactions" }
func (m ListModel) ShortHelp() string {
	return "Esc: back | s: status filter | p: republish pending | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.txs = msg.txs
		m.refreshTable()

		return m, nil

	case republishMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Republish failed: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Created event re-sent for %s", msg.id)
		}

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-10, 5))

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(statusFilters)
			m.filter.Status = statusFilters[m.statusFilterIdx].status

			return m, m.loadTxsCmd()
		case "p":
			return m, m.republishSelectedCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v\n\n(r to retry, Esc to back)", m.err))
	}

	header := fmt.Sprintf("Filter: [s] Status: %s | %d shown",
		activeStyle(statusFilters[m.statusFilterIdx].label), len(m.txs))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func statusStyle(s transaction.Status) string {
	switch s {
	case transaction.StatusApproved:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render(s.String())
	case transaction.StatusRejected:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s.String())
	default:
		return s.String()
	}
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			ShortID(tx.ExternalID),
			FormatTime(tx.CreatedAt),
			tx.Status.String(),
			FormatValue(tx.Value),
			ShortID(tx.SourceAccountID),
			ShortID(tx.TargetAccountID),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadListMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m ListModel) loadTxsCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.txService.List(ctx, filter)

		return loadListMsg{txs: txs, err: err}
	}
}

type republishMsg struct {
	id  string
	err error
}

func (m ListModel) republishSelectedCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	tx := m.txs[idx]

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.txService.Republish(ctx, tx.ExternalID)

		return republishMsg{id: ShortID(tx.ExternalID), err: err}
	}
}
