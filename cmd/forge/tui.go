package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wasmforge/forge/builder"
	"github.com/wasmforge/forge/config"
	"github.com/wasmforge/forge/manifest"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD580"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

type funcInfo struct {
	name      string
	signature string
	hasInput  bool
	inputHint string
}

type developModel struct {
	ctx context.Context
	env *devEnv

	funcs    []funcInfo
	inputs   []textinput.Model
	selected int
	state    modelState

	building bool
	status   string

	result  string
	callErr error
}

type changedMsg struct {
	paths int
}

type builtMsg struct {
	err   error
	res   *builder.Result
	funcs []funcInfo
	gen   int
}

type callResultMsg struct {
	err    error
	result string
	took   time.Duration
}

func newDevelopModel(ctx context.Context, env *devEnv) *developModel {
	return &developModel{
		ctx:      ctx,
		env:      env,
		state:    stateSelectFunc,
		building: true,
		status:   "building",
	}
}

func (m *developModel) Init() tea.Cmd {
	return tea.Batch(m.rebuild, m.waitForChanges)
}

// rebuild compiles and reloads, then rereads the manifest so export
// signature edits show up without restarting.
func (m *developModel) rebuild() tea.Msg {
	res, err := m.env.rebuild(m.ctx)
	if err != nil {
		return builtMsg{err: err}
	}

	funcs, err := loadFuncs(m.env.dir)
	if err != nil {
		return builtMsg{err: err}
	}
	return builtMsg{res: res, funcs: funcs, gen: m.env.session.Generation()}
}

func loadFuncs(dir string) ([]funcInfo, error) {
	mf, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}
	sigs, err := mf.Signatures()
	if err != nil {
		return nil, err
	}

	funcs := make([]funcInfo, 0, len(sigs))
	for name, sig := range sigs {
		hints := make([]string, len(sig.Params))
		for i, p := range sig.Params {
			hints[i] = manifest.TypeName(p)
		}
		funcs = append(funcs, funcInfo{
			name:      name,
			signature: sig.String(),
			hasInput:  len(sig.Params) > 0,
			inputHint: strings.Join(hints, ", "),
		})
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].name < funcs[j].name })
	return funcs, nil
}

func (m *developModel) waitForChanges() tea.Msg {
	batch, ok := <-m.env.events
	if !ok {
		return nil
	}
	return changedMsg{paths: len(batch)}
}

func (m *developModel) callFunction() tea.Msg {
	f := m.funcs[m.selected]

	var input []byte
	if len(m.inputs) > 0 {
		input = []byte(m.inputs[0].Value())
	}

	start := time.Now()
	out, err := m.env.session.Call(f.name, input)
	if err != nil {
		return callResultMsg{err: err, took: time.Since(start)}
	}
	return callResultMsg{result: string(out), took: time.Since(start)}
}

func (m *developModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()

		case "q":
			if m.state != stateInputArgs {
				return m.quit()
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "r":
			if m.state == stateSelectFunc && !m.building {
				m.building = true
				m.status = "building"
				return m, m.rebuild
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 || m.building {
					break
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.callErr = nil
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.callErr = nil
			}
		}

	case changedMsg:
		m.building = true
		m.status = fmt.Sprintf("building (%d changes)", msg.paths)
		return m, tea.Batch(m.rebuild, m.waitForChanges)

	case builtMsg:
		m.building = false
		if msg.err != nil {
			m.status = "build failed: " + firstLine(msg.err.Error())
			m.env.logger.Warn("rebuild failed", zap.Error(msg.err))
			return m, nil
		}
		m.funcs = msg.funcs
		if m.selected >= len(m.funcs) {
			m.selected = 0
		}
		m.status = fmt.Sprintf("gen %d • %s • %s",
			msg.gen, shortDigest(msg.res.Digest), formatSize(msg.res.Size))

	case callResultMsg:
		m.result = msg.result
		m.callErr = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *developModel) quit() (tea.Model, tea.Cmd) {
	m.env.close()
	return m, tea.Quit
}

// prepareInputs sets up the raw input field. Extension calls take one
// byte buffer, so a function with parameters gets a single line that is
// passed through verbatim.
func (m *developModel) prepareInputs() {
	f := m.funcs[m.selected]
	if !f.hasInput {
		m.inputs = nil
		return
	}

	ti := textinput.New()
	ti.Placeholder = f.inputHint
	ti.Prompt = "input: "
	ti.Width = 48
	ti.Focus()
	m.inputs = []textinput.Model{ti}
}

func (m *developModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("forge develop"))
	b.WriteString(" ")
	b.WriteString(m.env.dir)
	b.WriteString("\n")
	if m.building {
		b.WriteString(statusStyle.Render(m.status + "…"))
	} else if strings.HasPrefix(m.status, "build failed") {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(helpStyle.Render(m.status))
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		if len(m.funcs) == 0 {
			b.WriteString("Waiting for a successful build...\n")
			break
		}
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			line := m.formatFunc(f)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • r rebuild • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.name)))
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(f.inputHint))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.name)))
		if m.callErr != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.callErr)))
		} else if m.result == "" {
			b.WriteString(helpStyle.Render("(no output)"))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *developModel) formatFunc(f funcInfo) string {
	return funcStyle.Render(f.name) + " " + typeStyle.Render(f.signature)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func developTUI(ctx context.Context, cfg config.Config, logger *zap.Logger, dir string) error {
	env, err := newDevEnv(cfg, logger, dir)
	if err != nil {
		return err
	}
	defer env.close()

	env.w.Start(ctx)

	p := tea.NewProgram(newDevelopModel(ctx, env), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
