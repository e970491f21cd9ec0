package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"collabcore/internal/protocol"
	"collabcore/pkg/textengine"
	"collabcore/pkg/whiteboard"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	paneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// model is the root bubbletea model for collabtui: a text pane exercising
// TextEngine's rendering contract and a read-only whiteboard summary pane
// showing the scene received from collabd. Mirrors the teacher-adjacent
// chatpanel's value-receiver Update/View pattern.
type model struct {
	addr  string
	docID string

	cli *client

	engine *textengine.TextEngine
	scene  *whiteboard.Engine

	ta textarea.Model
	vp viewport.Model

	width, height int
	status        string
	lastErr       error
	quitting      bool

	// applyingRemote suppresses the textarea-change hook while a remote
	// diff is being painted back in, so the local edit path doesn't
	// re-diff its own echo.
	applyingRemote bool
}

func newModel(addr, docID string) *model {
	ta := textarea.New()
	ta.Placeholder = "start typing..."
	ta.ShowLineNumbers = false
	ta.Focus()

	vp := viewport.New(30, 10)

	m := &model{
		addr:  addr,
		docID: docID,
		ta:    ta,
		vp:    vp,
	}

	m.engine = textengine.NewTextEngine(
		textengine.EmitterFunc(func(msg protocol.TextClientMsg) {
			if m.cli != nil {
				_ = m.cli.sendText(msg)
			}
		}),
		textengine.WithRenderer(textengine.RendererFunc(func(rendered string) {
			m.applyingRemote = true
			m.ta.SetValue(rendered)
			m.applyingRemote = false
		})),
	)
	m.scene = whiteboard.NewEngine(
		whiteboard.EmitterFunc(func(protocol.WhiteboardMsg) {}),
		whiteboard.WithReadOnly(),
		whiteboard.WithSceneRenderer(whiteboard.SceneRendererFunc(func(s *whiteboard.Scene) {
			m.vp.SetContent(renderScene(s))
		})),
	)

	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, connectCmd(m.addr, m.docID))
}

func connectCmd(addr, docID string) tea.Cmd {
	return func() tea.Msg {
		cli, err := dial(teaCtx, addr, docID)
		return connectedMsg{cli: cli, err: err}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ta.SetWidth(m.width - 4)
		m.ta.SetHeight(m.height - 8)
		m.vp.Width = m.width - 4
		m.vp.Height = 5
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.quitting = true
			if m.cli != nil {
				m.cli.close()
			}
			return m, tea.Quit
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			for _, el := range m.scene.Scene().TopLevel() {
				if z := zone.Get(el); z != nil && z.InBounds(msg) {
					m.status = fmt.Sprintf("selected element %s", el)
				}
			}
		}

	case connectedMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.cli = msg.cli
		m.status = "connected to " + m.addr
		return m, m.cli.waitForServerMsg

	case textServerMsg:
		m.engine.HandleServerMsg(msg.msg)
		if msg.msg.UserDisconnected != nil {
			m.status = fmt.Sprintf("user %d disconnected", msg.msg.UserDisconnected.UserID)
		}
		return m, m.cli.waitForServerMsg

	case whiteboardMsg:
		m.scene.HandleServerMsg(msg.msg)
		return m, m.cli.waitForServerMsg

	case connErrorMsg:
		m.lastErr = msg.err
		m.status = "disconnected"
		return m, nil
	}

	before := m.ta.Value()
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)

	if !m.applyingRemote && m.engine.Connected() && m.ta.Value() != before {
		m.engine.ApplyTextDiff(m.ta.Value())
	}

	return m, cmd
}

func (m *model) View() string {
	if m.quitting {
		return "bye\n"
	}

	header := headerStyle.Render(fmt.Sprintf("collabcore · %s (%s)", m.docID, m.addr))

	status := m.status
	if m.lastErr != nil {
		status = errorStyle.Render("error: " + m.lastErr.Error())
	} else {
		status = statusStyle.Render(wordwrap.String(status, maxInt(m.width-4, 20)))
	}

	width := runewidth.StringWidth(lastLine(m.ta.Value()))
	footer := statusStyle.Render(fmt.Sprintf("%d chars on last line · ctrl+c to quit", width))

	editor := paneStyle.Render(m.ta.View())
	board := paneStyle.Render("whiteboard:\n" + m.vp.View())

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left, header, editor, board, status, footer))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func lastLine(value string) string {
	lines := strings.Split(value, "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// renderScene renders the whiteboard scene's top-level ids as a flat list,
// each wrapped in a bubblezone mark so mouse clicks can select an element
// (there is no terminal-native way to draw the path data itself).
func renderScene(s *whiteboard.Scene) string {
	top := s.TopLevel()
	if len(top) == 0 {
		return "(empty canvas)"
	}
	var b strings.Builder
	for _, id := range top {
		el, ok := s.Get(id)
		if !ok {
			continue
		}
		kind := "path"
		if el.IsGroup {
			kind = fmt.Sprintf("group(%d)", len(el.Children))
		}
		fmt.Fprintf(&b, "%s  %s [%s]\n", zone.Mark(id, "●"), id, kind)
	}
	return b.String()
}
