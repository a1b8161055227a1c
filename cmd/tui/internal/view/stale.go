package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

const staleLimit = 200

// StaleModel walks Pending transactions older than a threshold one at a time
// and lets the operator republish or skip each.
type StaleModel struct {
	CommonModel
	txService *transaction.Service

	ageInput textinput.Model

	queue     []*transaction.Transaction
	currentTx *transaction.Transaction

	searched    bool
	loading     bool
	status      string
	republished int
	totalCount  int
}

func NewStaleModel(txSvc *transaction.Service) StaleModel {
	ti := textinput.New()
	ti.Placeholder = "10m"
	ti.SetValue("10m")
	ti.Width = 12
	ti.Focus()

	return StaleModel{
		txService: txSvc,
		ageInput:  ti,
	}
}

func (m StaleModel) Title() string { return "Stale Pending" }
func (m StaleModel) ShortHelp() string {
	if !m.searched {
		return "Enter: search | Esc: back"
	}

	return "Enter: republish | s: skip | Esc: back"
}

func (m StaleModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m StaleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "enter":
			if !m.searched {
				age, err := time.ParseDuration(strings.TrimSpace(m.ageInput.Value()))
				if err != nil || age < 0 {
					m.status = "Age must be a duration such as 15m or 2h"
					return m, nil
				}

				m.loading = true

				return m, m.loadStaleCmd(age)
			}

			if m.currentTx != nil {
				return m, m.republishCmd(m.currentTx)
			}
		case "s":
			if m.searched && m.currentTx != nil {
				m.nextTx()
				return m, nil
			}
		}

	case loadStaleMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.searched = true
		m.ageInput.Blur()
		m.queue = msg.txs
		m.totalCount = len(m.queue)
		m.nextTx()

		return m, nil

	case republishMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Republish failed: %v", msg.err)
			return m, nil
		}

		m.republished++
		m.nextTx()

		return m, nil
	}

	var cmd tea.Cmd
	if !m.searched {
		m.ageInput, cmd = m.ageInput.Update(msg)
	}

	return m, cmd
}

func (m StaleModel) View() string {
	style := lipgloss.NewStyle().Padding(2)
	help := lipgloss.NewStyle().Faint(true).Render(m.ShortHelp())

	if m.loading {
		return style.Render("Looking for stale transactions...")
	}

	if !m.searched {
		return style.Render(fmt.Sprintf("Pending for longer than:\n%s\n\n%s\n\n%s", m.ageInput.View(), m.status, help))
	}

	if m.currentTx == nil {
		if m.totalCount == 0 {
			return style.Render("No stale Pending transactions.\n\n" + help)
		}

		return style.Render(fmt.Sprintf("%s\n\nRepublished %d of %d.\n\n%s", m.status, m.republished, m.totalCount, help))
	}

	info := fmt.Sprintf(
		"ID:      %s\nCreated: %s\nValue:   %s\nSource:  %s\nTarget:  %s\n",
		m.currentTx.ExternalID,
		FormatTime(m.currentTx.CreatedAt),
		FormatValue(m.currentTx.Value),
		m.currentTx.SourceAccountID,
		m.currentTx.TargetAccountID,
	)

	return style.Render(fmt.Sprintf("Stale transaction (%d remaining)\n\n%s\n%s\n\n%s",
		len(m.queue)+1, info, m.status, help))
}

func (m *StaleModel) nextTx() {
	m.status = ""

	if len(m.queue) == 0 {
		m.currentTx = nil
		m.status = "All done!"

		return
	}

	m.currentTx = m.queue[0]
	m.queue = m.queue[1:]
}

type loadStaleMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m StaleModel) loadStaleCmd(age time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.txService.ListStale(ctx, age, staleLimit)

		return loadStaleMsg{txs: txs, err: err}
	}
}

func (m StaleModel) republishCmd(tx *transaction.Transaction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.txService.Republish(ctx, tx.ExternalID)

		return republishMsg{id: ShortID(tx.ExternalID), err: err}
	}
}
