package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/torchlit/dungeongpt/internal/config"
	"github.com/torchlit/dungeongpt/internal/services"
	"github.com/torchlit/dungeongpt/internal/session"
	"github.com/torchlit/dungeongpt/internal/storage"
	"github.com/torchlit/dungeongpt/pkg/actor"
	"github.com/torchlit/dungeongpt/pkg/item"
	"github.com/torchlit/dungeongpt/pkg/state"
)

const (
	AgentName       = "DM"
	PlaceHolderText = "What do you do?"
)

// transcriptEntry is one line in the chat transcript.
type transcriptEntry struct {
	speaker string // "user", "dm" or "game"
	text    string
}

// GameUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type GameUI struct {
	cfg      *config.Config
	logger   *slog.Logger
	narrator services.Narrator
	store    storage.Storage
	sess     *session.Session

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	transcript   []transcriptEntry
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Class selection state
	showClassModal bool
	classes        []string
	selectedClass  int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	// Last DM narration, for Ctrl+Y copy
	lastNarration string
}

type turnResultMsg struct {
	result *session.Result
	err    error
}

type sessionReadyMsg struct {
	sess *session.Session
	err  error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")). // torch orange
			Bold(true)

	dmStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("208")).
				Bold(true)
)

func NewGameUI(cfg *config.Config, logger *slog.Logger, narrator services.Narrator, store storage.Storage) GameUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true
	metaVp := viewport.New(20, 20)

	return GameUI{
		cfg:            cfg,
		logger:         logger,
		narrator:       narrator,
		store:          store,
		textarea:       ta,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		showClassModal: true,
		classes:        actor.HeroClassNames(),
	}
}

func (m GameUI) Init() tea.Cmd {
	return textarea.Blink
}

// startSession generates the dungeon and wraps it in a session.
func (m GameUI) startSession(class string) tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		gs, err := state.NewGameState(cfg.Seed, cfg.GridWidth, cfg.GridHeight, class)
		if err != nil {
			return sessionReadyMsg{nil, err}
		}
		gs.CurrentRoom().Visited = true
		return sessionReadyMsg{session.New(gs, m.narrator, m.store, m.logger), nil}
	}
}

// doTurn hands one line of input to the session off the UI thread.
func (m GameUI) doTurn(input string) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		res, err := sess.Do(ctx, input)
		return turnResultMsg{res, err}
	}
}

func (m GameUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showClassModal {
		return m.updateClassModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.writeChatContent()
		m.writeMetadata()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			if m.lastNarration != "" {
				if err := clipboard.WriteAll(m.lastNarration); err != nil {
					m.logger.Warn("Clipboard copy failed", "error", err)
				}
			}
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.transcript = append(m.transcript, transcriptEntry{speaker: "user", text: input})
			m.writeChatContent()
			return m, tea.Batch(m.doTurn(input), progressTick())
		}

	case turnResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.transcript = append(m.transcript, transcriptEntry{speaker: "error", text: msg.err.Error()})
			m.writeChatContent()
			return m, nil
		}
		res := msg.result
		switch {
		case res.Quit:
			m.showQuitModal = true
			return m, nil
		case res.Stale:
			return m, nil
		}
		if res.Text != "" {
			speaker := "dm"
			if !res.TurnConsumed {
				speaker = "game"
			}
			m.transcript = append(m.transcript, transcriptEntry{speaker: speaker, text: res.Text})
			m.lastNarration = res.Text
		}
		for _, opt := range res.Options {
			m.transcript = append(m.transcript, transcriptEntry{speaker: "game", text: "• " + opt})
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *GameUI) layout() {
	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6
	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// writeChatContent rebuilds the transcript for the current width.
func (m *GameUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("DUNGEONGPT") + "\n\n")
	content.WriteString("Explore the dungeon, defeat the boss. Type /help for commands.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	for _, entry := range m.transcript {
		wrapped := wordwrap.String(entry.text, chatWidth)
		switch entry.speaker {
		case "user":
			content.WriteString(userStyle.Render("You: ") + wrapped + "\n\n")
		case "dm":
			content.WriteString(dmStyle.Render(AgentName+": ") + wrapped + "\n\n")
		case "error":
			content.WriteString(errorStyle.Render("Error: ") + wrapped + "\n\n")
		default:
			content.WriteString(gameStyle.Render(wrapped) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// writeMetadata rebuilds the side panel: hero, position, map.
func (m *GameUI) writeMetadata() {
	if m.sess == nil {
		return
	}
	gs := m.sess.State()
	h := gs.Hero

	var content strings.Builder
	content.WriteString(titleStyle.Render("HERO") + "\n\n")
	content.WriteString(item.DisplayName(h.Class) + "\n")
	content.WriteString(fmt.Sprintf("HP  %d/%d\n", h.Health, h.MaxHealth))
	content.WriteString(fmt.Sprintf("STR %d  DEX %d\n", h.EffectiveStrength(), h.EffectiveDexterity()))
	content.WriteString(fmt.Sprintf("LVL %d  XP %d/%d\n", h.Level, h.XP, h.Level*100))
	if h.TorchLit {
		content.WriteString("Torch lit\n")
	}
	content.WriteString("\n")

	content.WriteString(titleStyle.Render("DUNGEON") + "\n\n")
	content.WriteString(fmt.Sprintf("Turn %d  Room %s\n\n", gs.Turn, gs.Position))
	content.WriteString(gs.MapString() + "\n\n")

	if gs.GameOver {
		content.WriteString(errorStyle.Render("GAME OVER") + "\n\n")
	}

	content.WriteString(titleStyle.Render("SPEECH") + "\n\n")
	if m.cfg.SpeechEnabled {
		content.WriteString(fmt.Sprintf("On, volume %d%%\n", m.cfg.NarrationVolume))
	} else {
		content.WriteString("Off\n")
	}
	content.WriteString("\n")

	content.WriteString(titleStyle.Render("KEYS") + "\n\n")
	content.WriteString("Enter   Send\n")
	content.WriteString("Ctrl+Y  Copy narration\n")
	content.WriteString("Ctrl+C  Quit\n")

	m.metaViewport.SetContent(content.String())
}

func (m GameUI) updateClassModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionReadyMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sess = msg.sess
		m.showClassModal = false
		if m.width > 0 && m.height > 0 {
			m.layout()
		}
		gs := m.sess.State()
		m.transcript = append(m.transcript, transcriptEntry{
			speaker: "game",
			text:    fmt.Sprintf("You descend into the dungeon as a %s.\n%s", gs.Hero.Class, gs.DescribeRoom()),
		})
		m.writeChatContent()
		m.writeMetadata()
		m.textarea.Focus()
		m.ready = true
		return m, textarea.Blink

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.selectedClass > 0 {
				m.selectedClass--
			}
		case tea.KeyDown:
			if m.selectedClass < len(m.classes)-1 {
				m.selectedClass++
			}
		case tea.KeyEnter:
			if !m.loading && len(m.classes) > 0 {
				m.loading = true
				return m, m.startSession(m.classes[m.selectedClass])
			}
		}
	}
	return m, nil
}

func (m GameUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}
	return m, nil
}

func (m GameUI) renderClassModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.err.Error()))
		content.WriteString("\n\nPress Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Carving the Dungeon..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Choose Your Hero"))
		content.WriteString("\n\n")
		for i, class := range m.classes {
			hc := actor.HeroClasses[class]
			line := fmt.Sprintf("%-8s HP %2d STR %d DEX %d  %s",
				class, hc.MaxHealth, hc.Strength, hc.Dexterity, hc.Ability)
			if i == m.selectedClass {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + line))
			} else {
				content.WriteString(modalItemStyle.Render("  " + line))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars(" "))
}

func (m GameUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Abandon the Dungeon?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep playing"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars(" "))
}

func (m GameUI) View() string {
	if m.showClassModal {
		return m.renderClassModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar animates a loading bar while the narrator thinks.
func (m GameUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
