package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"catnipgarden/internal/game"
	"catnipgarden/internal/play"

	pbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(1, 2)
)

// pacedMsg resolves an action held back for its reveal delay.
type pacedMsg struct {
	action game.Action
}

type playModel struct {
	title  string
	sess   *play.Session
	credit *creditBox
	delay  time.Duration

	cursor  int
	busy    bool
	pending *game.Action
	amount  textinput.Model
	bar     pbar.Model
	spin    spinner.Model

	message string
	tone    lipgloss.Style
	event   string
	left    bool
}

func newPlayModel(title string, sess *play.Session, credit *creditBox, delay time.Duration) playModel {
	amount := textinput.New()
	amount.Prompt = "$"
	amount.CharLimit = 7
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return playModel{
		title:  title,
		sess:   sess,
		credit: credit,
		delay:  delay,
		amount: amount,
		bar:    pbar.New(pbar.WithDefaultGradient(), pbar.WithWidth(40)),
		spin:   sp,
		tone:   lipgloss.NewStyle(),
	}
}

func (m playModel) Init() tea.Cmd {
	return nil
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(60, msg.Width-12))
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case pacedMsg:
		m.busy = false
		out, err := m.sess.Act(msg.action)
		m.show(out, err)
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m playModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.left = !m.sess.Game().Done()
		m.sess.Discard()
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}
	if m.pending != nil {
		return m.updateAmount(msg)
	}
	g := m.sess.Game()
	if g.Done() {
		switch msg.String() {
		case "enter", "q", "esc", " ":
			return m, tea.Quit
		}
		return m, nil
	}

	opts := g.Options()
	switch msg.String() {
	case "q", "esc":
		m.sess.Discard()
		m.left = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(opts)-1 {
			m.cursor++
		}
	case "enter", " ":
		return m.choose(opts)
	}
	return m, nil
}

func (m playModel) updateAmount(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pending = nil
		m.amount.Blur()
		return m, nil
	case "enter":
		v, err := strconv.Atoi(strings.TrimSpace(m.amount.Value()))
		if err != nil {
			m.message, m.tone = "Enter a whole number of dollars.", badStyle
			return m, nil
		}
		a := *m.pending
		a.Amount = v
		m.pending = nil
		m.amount.Blur()
		out, err := m.sess.Act(a)
		m.show(out, err)
		return m, nil
	}
	var cmd tea.Cmd
	m.amount, cmd = m.amount.Update(msg)
	return m, cmd
}

func (m playModel) choose(opts []game.Option) (tea.Model, tea.Cmd) {
	if m.cursor >= len(opts) {
		return m, nil
	}
	opt := opts[m.cursor]
	if !opt.Enabled {
		m.message, m.tone = opt.Label+" is not available right now.", eventStyle
		return m, nil
	}
	a := opt.Action
	if a.Kind == game.ActInvest {
		m.pending = &a
		m.amount.SetValue(strconv.Itoa(a.Amount))
		return m, m.amount.Focus()
	}
	if m.delay > 0 && play.Paced(a) {
		if err := m.sess.Check(a); err != nil {
			m.show(game.Outcome{}, err)
			return m, nil
		}
		m.busy = true
		m.message, m.event = "", ""
		return m, tea.Batch(m.spin.Tick, tea.Tick(m.delay, func(time.Time) tea.Msg { return pacedMsg{action: a} }))
	}
	out, err := m.sess.Act(a)
	m.show(out, err)
	return m, nil
}

func (m *playModel) show(out game.Outcome, err error) {
	m.event = ""
	if err != nil {
		m.message, m.tone = err.Error(), badStyle
		return
	}
	m.message, m.tone = out.Message, lipgloss.NewStyle()
	if out.Correct != nil {
		m.tone = badStyle
		if *out.Correct {
			m.tone = goodStyle
		}
	}
	m.event = out.Event
	if n := len(m.sess.Game().Options()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m playModel) View() string {
	g := m.sess.Game()
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(g.Progress()))
	b.WriteString("\n\n")
	for _, f := range g.Facts() {
		b.WriteString(labelStyle.Render(f.Label) + valueStyle.Render(f.Value) + "\n")
	}
	b.WriteString("\n")

	if g.Done() {
		b.WriteString(goodStyle.Render(fmt.Sprintf("Game complete! You earned %d points.", g.Points())))
		b.WriteString("\n")
		if c, ok := m.credit.get(); ok {
			switch {
			case c.Err != nil:
				b.WriteString(badStyle.Render("Could not save progress: " + c.Err.Error()))
			case c.NewBadge != "":
				b.WriteString(eventStyle.Render("New badge: " + c.NewBadge))
			default:
				b.WriteString(mutedStyle.Render(fmt.Sprintf("Total points: %d", c.Total)))
			}
			b.WriteString("\n")
		}
	} else {
		for i, o := range g.Options() {
			label := o.Label
			switch {
			case i == m.cursor:
				label = cursorStyle.Render("> " + label)
			case !o.Enabled:
				label = "  " + mutedStyle.Render(label)
			default:
				label = "  " + label
			}
			if o.Detail != "" {
				label += "  " + mutedStyle.Render(o.Detail)
			}
			b.WriteString(label + "\n")
		}
	}

	if m.pending != nil {
		b.WriteString("\nAmount to plant: " + m.amount.View() + "\n")
	}
	if m.busy {
		b.WriteString("\n" + m.spin.View() + " thinking...\n")
	}
	if m.message != "" {
		b.WriteString("\n" + m.tone.Render(m.message) + "\n")
	}
	if m.event != "" {
		b.WriteString(eventStyle.Render(m.event) + "\n")
	}

	help := "up/down move, enter choose, q leave"
	if g.Done() {
		help = "enter to return"
	}
	b.WriteString("\n" + mutedStyle.Render(help))
	return frameStyle.Render(b.String()) + "\n"
}

func playTUI(title string, sess *play.Session, credit *creditBox, delay time.Duration) error {
	final, err := tea.NewProgram(newPlayModel(title, sess, credit, delay), tea.WithAltScreen()).Run()
	if err != nil {
		sess.Discard()
		return err
	}
	if m, ok := final.(playModel); ok && m.left {
		return errQuit
	}
	return nil
}
