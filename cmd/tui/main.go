package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/txflow/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/txflow/internal/bus/kafka"
	"github.com/MrJamesThe3rd/txflow/internal/config"
	"github.com/MrJamesThe3rd/txflow/internal/database"
	"github.com/MrJamesThe3rd/txflow/internal/logging"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
	txStore "github.com/MrJamesThe3rd/txflow/internal/transaction/store"
)

type model struct {
	txService *transaction.Service

	currentView View

	listView   view.ListModel
	createView view.CreateModel
	staleView  view.StaleModel
}

type View int

const (
	ViewMenu   View = 0
	ViewList   View = 1
	ViewCreate View = 2
	ViewStale  View = 3
)

func newModel(txSvc *transaction.Service) model {
	return model{
		txService:   txSvc,
		currentView: ViewMenu,
		listView:    view.NewListModel(txSvc),
		createView:  view.NewCreateModel(txSvc),
		staleView:   view.NewStaleModel(txSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.txService)

				return m, m.listView.Init()
			case "2":
				m.currentView = ViewCreate
				m.createView = view.NewCreateModel(m.txService)

				return m, m.createView.Init()
			case "3":
				m.currentView = ViewStale
				m.staleView = view.NewStaleModel(m.txService)

				return m, m.staleView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewCreate:
		var newModel tea.Model
		newModel, cmd = m.createView.Update(msg)
		m.createView = newModel.(view.CreateModel)
	case ViewStale:
		var newModel tea.Model
		newModel, cmd = m.staleView.Update(msg)
		m.staleView = newModel.(view.StaleModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"txflow console\n\n" +
				"1. Browse Transactions\n" +
				"2. New Transaction\n" +
				"3. Republish Stale Pending\n\n" +
				"q. Quit",
		)
	case ViewList:
		return m.listView.View()
	case ViewCreate:
		return m.createView.View()
	case ViewStale:
		return m.staleView.View()
	}

	return "Unknown View"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Stdout belongs to the alternate screen.
	logger := logging.Discard()
	if f, err := tea.LogToFile("txflow-tui.log", ""); err == nil {
		defer f.Close()
		logger = logging.NewWriter(f, cfg.Log.Level, cfg.Log.Format)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		slog.Error("failed to create producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	txSvc := transaction.NewService(txStore.New(db), producer, cfg.Kafka.CreatedTopic, logger)

	p := tea.NewProgram(newModel(txSvc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
