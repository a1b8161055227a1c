package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

type CreateModel struct {
	CommonModel
	txService *transaction.Service

	form    *huh.Form
	created *transaction.Transaction
	err     error

	// Form bindings live behind a pointer so they survive model copies.
	fields *createFields
}

type createFields struct {
	source string
	target string
	value  string
}

func NewCreateModel(txSvc *transaction.Service) CreateModel {
	m := CreateModel{txService: txSvc, fields: &createFields{}}
	m.form = m.newForm()

	return m
}

func (m *CreateModel) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("source").
				Title("Source account").
				Placeholder("UUID").
				Value(&m.fields.source).
				Validate(validateUUID),

			huh.NewInput().
				Key("target").
				Title("Target account").
				Placeholder("UUID").
				Value(&m.fields.target).
				Validate(validateUUID),

			huh.NewInput().
				Key("value").
				Title("Value").
				Placeholder("0.00").
				Value(&m.fields.value).
				Validate(func(s string) error {
					v, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("not a number")
					}

					if !v.IsPositive() {
						return fmt.Errorf("value must be greater than zero")
					}

					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

func validateUUID(s string) error {
	if _, err := uuid.Parse(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("not a valid UUID")
	}

	return nil
}

func (m CreateModel) Title() string { return "New Transaction" }
func (m CreateModel) ShortHelp() string {
	if m.form == nil {
		return "n: new transaction | Esc: back"
	}

	return "Navigate form | Esc: back"
}

func (m CreateModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m CreateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case createResultMsg:
		m.created, m.err = msg.tx, msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.form == nil && msg.String() == "n" {
			m.fields = &createFields{}
			m.created, m.err = nil, nil
			m.form = m.newForm()

			return m, m.form.Init()
		}
	}

	if m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.form = nil

	return m, m.createCmd()
}

func (m CreateModel) View() string {
	var body string

	switch {
	case m.form != nil:
		body = m.form.View()
	case m.err != nil:
		body = fmt.Sprintf("Could not create transaction: %v", m.err)
	case m.created != nil:
		body = fmt.Sprintf("Created %s\n\nValue:  %s\nStatus: %s\n\nThe fraud check runs asynchronously; refresh the list to see the outcome.",
			m.created.ExternalID, FormatValue(m.created.Value), statusStyle(m.created.Status))
	default:
		body = "Creating..."
	}

	panel := lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(60).
		Render(m.Title() + "\n\n" + body)

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, panel, lipgloss.NewStyle().Faint(true).Render(m.ShortHelp())),
	)
}

type createResultMsg struct {
	tx  *transaction.Transaction
	err error
}

func (m CreateModel) createCmd() tea.Cmd {
	params := transaction.CreateParams{
		SourceAccountID: uuid.MustParse(strings.TrimSpace(m.fields.source)),
		TargetAccountID: uuid.MustParse(strings.TrimSpace(m.fields.target)),
		Value:           decimal.RequireFromString(strings.TrimSpace(m.fields.value)),
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		tx, err := m.txService.Create(ctx, params)

		return createResultMsg{tx: tx, err: err}
	}
}
