package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Beastly713/lsbkit/pkg/crypto/secrets"
	"github.com/Beastly713/lsbkit/pkg/imageio"
	"github.com/Beastly713/lsbkit/pkg/pipeline"
	"github.com/Beastly713/lsbkit/pkg/stego"
)

// Styles
var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	checkedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")) // Green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	docStyle     = lipgloss.NewStyle().Margin(1, 2)
)

type mode int

const (
	modeHide mode = iota
	modeExtract
)

func (m mode) String() string {
	if m == modeExtract {
		return "Extract"
	}
	return "Hide"
}

const (
	fieldPath = iota
	fieldMessage
	fieldPassword
	fieldCount
)

var (
	defaultClipboardWrite = clipboard.WriteAll

	// clipboardWrite is replaced in tests.
	clipboardWrite = defaultClipboardWrite
)

type model struct {
	mode     mode
	sealed   bool
	inputs   []textinput.Model
	focus    int
	status   string
	failed   bool
	result   string
	busy     bool
	quitting bool
}

type resultMsg struct {
	status string
	result string
	err    error
}

func initialModel() model {
	m := model{inputs: make([]textinput.Model, fieldCount)}

	for i := range m.inputs {
		t := textinput.New()
		t.CharLimit = 0
		t.PromptStyle = blurredStyle
		switch i {
		case fieldPath:
			t.Placeholder = "path/to/image.png"
			t.Prompt = "Image:    "
		case fieldMessage:
			t.Placeholder = "secret message"
			t.Prompt = "Message:  "
		case fieldPassword:
			t.Placeholder = "password"
			t.Prompt = "Password: "
			t.EchoMode = textinput.EchoPassword
			t.EchoCharacter = '•'
		}
		m.inputs[i] = t
	}
	m.inputs[fieldPath].Focus()
	m.inputs[fieldPath].PromptStyle = focusedStyle
	m.status = helpLine
	return m
}

const helpLine = "tab: next field | ctrl+t: hide/extract | ctrl+s: sealed | enter: run | ctrl+y: copy | esc: quit"

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "ctrl+t":
			if m.mode == modeHide {
				m.mode = modeExtract
			} else {
				m.mode = modeHide
			}
			m.clearSensitive()
			return m, m.setFocus(fieldPath)

		case "ctrl+s":
			m.sealed = !m.sealed
			return m, nil

		case "ctrl+y":
			if m.result == "" {
				m.status, m.failed = "Nothing to copy yet", true
				return m, nil
			}
			if err := clipboardWrite(m.result); err != nil {
				m.status, m.failed = fmt.Sprintf("Error: %v", err), true
				return m, nil
			}
			m.status, m.failed = "Copied to clipboard", false
			return m, nil

		case "tab", "down":
			return m, m.setFocus(m.nextField(1))

		case "shift+tab", "up":
			return m, m.setFocus(m.nextField(-1))

		case "enter":
			if m.busy {
				return m, nil
			}
			if m.focus != fieldPassword {
				return m, m.setFocus(m.nextField(1))
			}
			m.busy = true
			m.status, m.failed = "Working...", false
			return m, m.run()
		}

	case resultMsg:
		m.busy = false
		if msg.err != nil {
			m.status, m.failed = fmt.Sprintf("Error: %v", msg.err), true
			return m, nil
		}
		m.status, m.failed = msg.status, false
		m.result = msg.result
		m.inputs[fieldPassword].Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// nextField skips the message field in extract mode.
func (m model) nextField(step int) int {
	next := m.focus
	for {
		next = (next + step + fieldCount) % fieldCount
		if m.mode == modeExtract && next == fieldMessage {
			continue
		}
		return next
	}
}

func (m *model) setFocus(field int) tea.Cmd {
	m.focus = field
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == field {
			cmd = m.inputs[i].Focus()
			m.inputs[i].PromptStyle = focusedStyle
			continue
		}
		m.inputs[i].Blur()
		m.inputs[i].PromptStyle = blurredStyle
	}
	return cmd
}

// clearSensitive wipes the message, password and any previous result.
func (m *model) clearSensitive() {
	m.inputs[fieldMessage].Reset()
	m.inputs[fieldPassword].Reset()
	m.result = ""
	m.status, m.failed = helpLine, false
}

func (m model) run() tea.Cmd {
	path := strings.TrimSpace(m.inputs[fieldPath].Value())
	message := m.inputs[fieldMessage].Value()
	password := secrets.FromString(m.inputs[fieldPassword].Value())
	sealed := m.sealed
	current := m.mode

	return func() tea.Msg {
		defer password.Destroy()

		if current == modeExtract {
			text, err := runInteractiveExtract(path, password.Bytes(), sealed)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: "Message extracted (ctrl+y to copy)", result: text}
		}

		out, err := runInteractiveHide(path, message, password.Bytes(), sealed)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: fmt.Sprintf("Success! Message hidden in %s", out)}
	}
}

func (m model) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	var b strings.Builder
	title := fmt.Sprintf("lsbkit - %s", m.mode)
	if m.sealed {
		title += checkedStyle.Render(" [sealed]")
	}
	b.WriteString(focusedStyle.Render(title) + "\n\n")

	for i := range m.inputs {
		if m.mode == modeExtract && i == fieldMessage {
			continue
		}
		b.WriteString(m.inputs[i].View() + "\n")
	}

	if m.result != "" {
		b.WriteString("\n" + checkedStyle.Render("Message:") + "\n" + m.result + "\n")
	}

	status := m.status
	if m.failed {
		status = errorStyle.Render(status)
	}
	b.WriteString("\n" + status + "\n")
	return docStyle.Render(b.String())
}

// runInteractiveHide writes hidden-message.<ext> next to the input image.
func runInteractiveHide(path, message string, password []byte, sealed bool) (string, error) {
	if path == "" {
		return "", fmt.Errorf("image path required")
	}
	f, err := imageio.ParseFormat(settings.OutputFormat)
	if err != nil {
		return "", err
	}
	level, err := imageio.ParsePNGCompression(settings.PNGCompression)
	if err != nil {
		return "", err
	}
	layout, err := layoutOption("")
	if err != nil {
		return "", err
	}

	carrier, _, err := imageio.Load(path)
	if err != nil {
		return "", err
	}

	var out *stego.PixelBuffer
	if sealed {
		cfg, err := sealedConfig()
		if err != nil {
			return "", err
		}
		out, err = pipeline.Hide(carrier, message, password, cfg, layout)
		if err != nil {
			return "", err
		}
	} else {
		out, err = stego.Hide(carrier, message, string(password), layout)
		if err != nil {
			return "", err
		}
	}

	outPath := filepath.Join(filepath.Dir(path), defaultOutputName+f.Ext())
	if err := imageio.Save(outPath, out, f, imageio.WithPNGCompression(level)); err != nil {
		return "", err
	}
	return outPath, nil
}

func runInteractiveExtract(path string, password []byte, sealed bool) (string, error) {
	if path == "" {
		return "", fmt.Errorf("image path required")
	}
	layout, err := layoutOption("")
	if err != nil {
		return "", err
	}
	carrier, _, err := imageio.Load(path)
	if err != nil {
		return "", err
	}
	return extractMessage(carrier, password, sealed, layout)
}

// Cobra command setup
var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Interactive terminal UI for hiding and extracting messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(initialModel())
		if _, err := p.Run(); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
