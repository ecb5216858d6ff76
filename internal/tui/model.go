// internal/tui/model.go
//
// Terminal client for the daily game (`cuca play`).
// Responsibilities:
//   - Load today's board from the server and resume a running bomb from the local file.
//   - Route key presses and the 1 Hz tick into the client.State controller.
//   - Save the board after each guess, on bomb expiry, and when the player leaves
//     a running bomb board.
//
// Notes:
//   - Leaving the program plays the part of the browser tab going hidden.
//   - All I/O runs in tea.Cmds; Update itself never blocks.

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cuca/internal/client"
	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/progress"
	"github.com/robalobadob/cuca/internal/words"
)

// Backend is the server surface the game screen needs.
type Backend interface {
	GetState(ctx context.Context, userID, theme string, mode game.Mode) (progress.View, error)
	SaveState(ctx context.Context, req progress.SaveRequest) error
	Validate(ctx context.Context, word string) (bool, error)
}

// BombTimers keeps bomb countdowns on this machine.
type BombTimers interface {
	Get(key string) (*int, error)
	Set(key string, seconds int) error
	Remove(key string) error
}

const callTimeout = 10 * time.Second

// Messages.
type (
	loadedMsg struct {
		view  progress.View
		local *int
		err   error
	}
	tickMsg      time.Time
	validatedMsg struct {
		known bool
		err   error
	}
	savedMsg struct{ err error }
)

type keyMap struct {
	Enter  key.Binding
	Delete key.Binding
	Left   key.Binding
	Right  key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Delete, k.Left, k.Right, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var keys = keyMap{
	Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "enviar")),
	Delete: key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "apagar")),
	Left:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "esquerda")),
	Right:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "direita")),
	Quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "sair")),
}

// Model is the bubbletea model of one game screen.
type Model struct {
	backend Backend
	bombs   BombTimers
	userID  string
	theme   string
	mode    game.Mode
	now     func() time.Time

	state   client.State
	loading bool
	flash   string
	failure string

	spinner spinner.Model
	help    help.Model
	styles  Styles
}

// New returns a model for userID's board in theme and mode.
func New(backend Backend, bombs BombTimers, userID, theme string, mode game.Mode) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		backend: backend,
		bombs:   bombs,
		userID:  userID,
		theme:   theme,
		mode:    mode,
		now:     time.Now,
		state:   client.NewState(userID, theme, mode),
		loading: true,
		spinner: sp,
		help:    help.New(),
		styles:  DefaultStyles(),
	}
}

// State exposes the current board.
func (m Model) State() client.State { return m.state }

// Init starts loading and the clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) bombKey() string { return client.BombKey(m.userID, m.theme) }

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		view, err := m.backend.GetState(ctx, m.userID, m.theme, m.mode)
		if err != nil {
			return loadedMsg{err: err}
		}
		var local *int
		if m.mode == game.ModeBomb {
			if local, err = m.bombs.Get(m.bombKey()); err != nil {
				log.Warn().Err(err).Msg("read local bomb timer")
			}
		}
		return loadedMsg{view: view, local: local}
	}
}

func (m Model) save(req progress.SaveRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		return savedMsg{err: m.backend.SaveState(ctx, req)}
	}
}

func (m Model) validate(word string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		ok, err := m.backend.Validate(ctx, word)
		return validatedMsg{known: ok, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			// Play on a local board; saves will report the failure.
			m.failure = "Falha ao buscar dados do jogo: " + msg.err.Error()
			return m, nil
		}
		m.state = client.FromServer(m.userID, m.mode, msg.view, msg.local)
		// Saves must use the theme the key was written under.
		m.state.Theme = m.theme
		if m.state.AlreadyPlayed {
			m.flash = "Você já jogou esse modo/tema hoje."
		}
		return m, nil

	case tickMsg:
		if m.loading {
			return m, tick()
		}
		var req *progress.SaveRequest
		m.state, req = m.state.Tick()
		if m.mode == game.ModeBomb && m.state.Running() {
			m.setBomb(m.state.Timer)
		}
		if req != nil {
			m.removeBomb()
			return m, tea.Batch(m.save(*req), tick())
		}
		return m, tick()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case validatedMsg:
		if msg.err != nil {
			m.flash = "Falha ao validar a palavra."
			return m, nil
		}
		next, req, err := m.state.Submit(msg.known)
		if err != nil {
			m.flash = flashFor(err)
			return m, nil
		}
		m.state = next
		m.flash = ""
		if m.state.GameOver && m.mode == game.ModeBomb {
			m.removeBomb()
		}
		return m, m.save(req)

	case savedMsg:
		if msg.err != nil {
			m.flash = flashFor(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		// Leaving a running bomb board saves where the clock stopped.
		if req, ok := m.state.Hide(); ok {
			m.setBomb(m.state.Timer)
			save := m.save(req)
			return m, func() tea.Msg {
				if res := save().(savedMsg); res.err != nil {
					log.Warn().Err(res.err).Msg("save on exit")
				}
				return tea.Quit()
			}
		}
		return m, tea.Quit
	}
	if m.loading {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Enter):
		if m.mode == game.ModeBomb && !m.state.BombStarted && !m.state.GameOver {
			m.state = m.state.StartBomb()
			m.setBomb(m.state.Timer)
			return m, nil
		}
		word, ok := m.state.Pending()
		if !ok {
			if !m.state.GameOver {
				m.flash = flashFor(client.ErrIncomplete)
			}
			return m, nil
		}
		return m, m.validate(word)
	case key.Matches(msg, keys.Delete):
		m.state = m.state.Delete()
	case key.Matches(msg, keys.Left):
		m.state = m.state.MoveLeft()
	case key.Matches(msg, keys.Right):
		m.state = m.state.MoveRight()
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
		m.state = m.state.Type(msg.Runes[0])
		m.flash = ""
	}
	return m, nil
}

func (m Model) setBomb(seconds int) {
	if err := m.bombs.Set(m.bombKey(), seconds); err != nil {
		log.Warn().Err(err).Msg("write local bomb timer")
	}
}

func (m Model) removeBomb() {
	if err := m.bombs.Remove(m.bombKey()); err != nil {
		log.Warn().Err(err).Msg("remove local bomb timer")
	}
}

func flashFor(err error) string {
	switch {
	case errors.Is(err, client.ErrNotAWord):
		return "Palavra não encontrada."
	case errors.Is(err, client.ErrIncomplete):
		return "Preencha as 5 letras."
	case errors.Is(err, client.ErrAlreadyPlayed):
		return "Já jogou esse modo/tema hoje."
	case errors.Is(err, client.ErrInactive):
		return ""
	}
	return "Erro ao salvar o progresso."
}

// ------------------------------- view --------------------------------------

// label reverses text in reverse mode, as the web client does.
func (m Model) label(s string) string {
	if m.mode == game.ModeReverse {
		return game.Reverse(s)
	}
	return s
}

// View renders the screen.
func (m Model) View() string {
	if m.loading {
		return m.spinner.View() + " Carregando...\n"
	}
	st := m.styles
	var b strings.Builder

	title := fmt.Sprintf("Cuca · %s · %s", game.ModeName(m.mode), words.ThemeName(m.state.Theme))
	b.WriteString(st.Title.Render(m.label(title)))
	b.WriteString("\n")

	b.WriteString(m.board())
	b.WriteString("\n")
	b.WriteString(m.keyboard())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %d/%d\n", m.label("Tentativas:"), len(m.state.Guesses), game.MaxAttempts)
	fmt.Fprintf(&b, "%s %ds\n", m.label("Tempo:"), m.state.Timer)

	switch {
	case m.state.GameWon:
		b.WriteString(st.Win.Render(fmt.Sprintf("Parabéns! A palavra era %s.", strings.ToUpper(m.state.Word))))
		b.WriteString("\n")
	case m.state.GameOver:
		b.WriteString(st.Error.Render(fmt.Sprintf("Fim de jogo! A palavra era %s.", strings.ToUpper(m.state.Word))))
		b.WriteString("\n")
	case m.mode == game.ModeBomb && !m.state.BombStarted:
		b.WriteString(st.Info.Render("Pressione Enter para armar a bomba: 60 segundos para acertar!"))
		b.WriteString("\n")
	}
	if m.state.GameOver && m.mode == game.ModeNormal {
		b.WriteString(st.Muted.Render("Próxima palavra em " + countdown(client.UntilMidnight(m.now()))))
		b.WriteString("\n")
	}
	if m.flash != "" {
		b.WriteString(st.Error.Render(m.flash))
		b.WriteString("\n")
	}
	if m.failure != "" {
		b.WriteString(st.Error.Render(m.failure))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) board() string {
	st := m.styles
	rows := make([]string, 0, game.MaxAttempts)
	for _, row := range m.state.Guesses {
		tiles := make([]string, 0, len(row))
		for _, fb := range row {
			tiles = append(tiles, st.Results[fb.Status].Render(strings.ToUpper(fb.Letter)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}
	if len(rows) < game.MaxAttempts && !m.state.GameOver {
		tiles := make([]string, 0, game.WordLength)
		for i, l := range m.state.Tiles {
			style := st.Tile
			if i == m.state.Active && m.state.TimerActive {
				style = st.Cursor
			}
			tiles = append(tiles, style.Render(strings.ToUpper(l)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}
	for len(rows) < game.MaxAttempts {
		tiles := make([]string, game.WordLength)
		for i := range tiles {
			tiles[i] = st.Tile.Render("")
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

var keyboardRows = []string{"qwertyuiop", "asdfghjklç", "zxcvbnm"}

func (m Model) keyboard() string {
	lines := make([]string, 0, len(keyboardRows))
	for _, row := range keyboardRows {
		cells := make([]string, 0, len(row))
		for _, r := range row {
			k := string(r)
			cells = append(cells, m.styles.keyStyle(m.state.Keys[words.Normalize(k)]).Render(strings.ToUpper(k)))
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

func countdown(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	mm := d / time.Minute
	d -= mm * time.Minute
	return fmt.Sprintf("%02d:%02d:%02d", h, mm, d/time.Second)
}

// Run starts the game screen and blocks until the player leaves.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
