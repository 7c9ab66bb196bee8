package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"exifpreset/internal/domain"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Phase represents the current state of the TUI
type Phase int

const (
	PhaseInspecting Phase = iota
	PhaseConfirm
	PhaseRewriting
	PhaseDone
	PhaseError
)

// Messages for the TUI
type (
	PreviewReadyMsg struct {
		Items []domain.PreviewItem
	}
	InspectProgressMsg struct {
		Current int
		Total   int
	}
	RewriteProgressMsg struct {
		Message string
	}
	ItemDoneMsg struct {
		Item  domain.BatchItem
		Total int
	}
	DoneMsg struct {
		Result domain.BatchResult
	}
	ConfirmMsg struct {
		Confirmed bool
	}
	ErrorMsg struct {
		Err error
	}
	tickMsg time.Time
)

// StartRewriteFunc starts the batch in the background. The batch reports
// back with RewriteProgressMsg, ItemDoneMsg and finally DoneMsg. The returned
// command may be nil.
type StartRewriteFunc func() tea.Cmd

// Config for the TUI
type Config struct {
	Preset       domain.Preset
	OutputDir    string
	DryRun       bool
	Verbose      bool
	StartRewrite StartRewriteFunc
	// Cancel stops a running batch when the user quits.
	Cancel func()
}

// Model is the main TUI model
type Model struct {
	config           Config
	Phase            Phase
	Preview          []domain.PreviewItem
	Result           domain.BatchResult
	spinner          spinner.Model
	progress         progress.Model
	inspectCurrent   int
	inspectTotal     int
	processed        int
	failed           int
	total            int
	status           string
	confirmSelection bool // true = yes, false = no
	Declined         bool
	Err              error
	Quitting         bool
	width            int
	height           int
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return Model{
		config:           cfg,
		Phase:            PhaseInspecting,
		spinner:          s,
		progress:         p,
		confirmSelection: true,
		width:            80,
		height:           24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-20, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.config.Cancel != nil {
				m.config.Cancel()
			}
			m.Quitting = true
			return m, tea.Quit
		case "left", "h", "y", "Y":
			if m.Phase == PhaseConfirm {
				m.confirmSelection = true
			}
		case "right", "l", "n", "N":
			if m.Phase == PhaseConfirm {
				m.confirmSelection = false
			}
		case "enter":
			if m.Phase == PhaseConfirm {
				confirmed := m.confirmSelection
				return m, func() tea.Msg {
					return ConfirmMsg{Confirmed: confirmed}
				}
			}
			if m.Phase == PhaseDone || m.Phase == PhaseError {
				return m, tea.Quit
			}
		}

	case InspectProgressMsg:
		m.inspectCurrent = msg.Current
		m.inspectTotal = msg.Total
		return m, nil

	case PreviewReadyMsg:
		m.Preview = msg.Items
		m.total = len(msg.Items)
		switch {
		case m.config.DryRun:
			m.Phase = PhaseDone
		case len(m.Preview) == 0:
			m.Phase = PhaseDone
		default:
			m.Phase = PhaseConfirm
		}
		return m, nil

	case ConfirmMsg:
		if !msg.Confirmed {
			m.Declined = true
			m.Phase = PhaseDone
			return m, nil
		}
		m.Phase = PhaseRewriting
		if m.config.StartRewrite != nil {
			return m, tea.Batch(tickCmd(), m.config.StartRewrite())
		}
		return m, nil

	case RewriteProgressMsg:
		m.status = msg.Message
		return m, nil

	case ItemDoneMsg:
		m.processed++
		m.total = msg.Total
		if !msg.Item.Outcome.OK() {
			m.failed++
		}
		return m, nil

	case DoneMsg:
		m.Result = msg.Result
		m.Phase = PhaseDone
		return m, nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhaseInspecting || m.Phase == PhaseRewriting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		if m.Phase == PhaseRewriting {
			var cmds []tea.Cmd
			if m.total > 0 {
				cmds = append(cmds, m.progress.SetPercent(float64(m.processed)/float64(m.total)))
			}
			cmds = append(cmds, tickCmd(), m.spinner.Tick)
			return m, tea.Batch(cmds...)
		}
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhaseInspecting:
		b.WriteString(m.renderInspecting())
	case PhaseConfirm:
		b.WriteString(m.renderPreview())
		b.WriteString("\n")
		b.WriteString(m.renderConfirmPrompt())
	case PhaseRewriting:
		b.WriteString(m.renderPreview())
		b.WriteString("\n")
		b.WriteString(m.renderRewriting())
	case PhaseDone:
		b.WriteString(m.renderPreview())
		if !m.config.DryRun && !m.Declined && len(m.Preview) > 0 {
			b.WriteString("\n")
			b.WriteString(m.renderCompletion())
		}
	case PhaseError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render(fmt.Sprintf("%s exifpreset", iconCamera))
	subtitle := subtitleStyle.Render(fmt.Sprintf("Shot on %s %s", m.config.Preset.Make, m.config.Preset.Model))

	dimStyle := lipgloss.NewStyle().Foreground(dimTextColor)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		dimStyle.Render(fmt.Sprintf("%s Output: %s", iconFolder, shortenPath(m.config.OutputDir))),
	)
}

func (m Model) renderInspecting() string {
	if m.inspectTotal > 0 {
		percent := float64(m.inspectCurrent) / float64(m.inspectTotal)

		countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
		percentStyle := lipgloss.NewStyle().Foreground(dimTextColor)

		return fmt.Sprintf("%s Reading EXIF...\n\n  %s\n  %s %s",
			m.spinner.View(),
			m.progress.ViewAs(percent),
			countStyle.Render(fmt.Sprintf("%d/%d", m.inspectCurrent, m.inspectTotal)),
			percentStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
		)
	}
	return fmt.Sprintf("%s Reading EXIF...", m.spinner.View())
}

func (m Model) renderPreview() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Photos to Rewrite"))
	b.WriteString("\n\n")

	if len(m.Preview) == 0 {
		dimStyle := lipgloss.NewStyle().Foreground(dimTextColor)
		b.WriteString(dimStyle.Render("  No photos selected"))
		b.WriteString("\n")
	} else {
		for _, line := range formatPreviewList(m.Preview, 4) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	unreadable := 0
	for _, item := range m.Preview {
		if item.Info.Err != nil {
			unreadable++
		}
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Summary"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Photos:"), statValueStyle.Render(fmt.Sprintf("%d", len(m.Preview)))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Make:"), targetStyle.Render(m.config.Preset.Make)))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Model:"), targetStyle.Render(m.config.Preset.Model)))
	if unreadable > 0 {
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Without EXIF:"), warningStyle.Render(fmt.Sprintf("%s %d", iconWarning, unreadable))))
	}

	if m.config.Verbose && unreadable > 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render("Warnings:"))
		b.WriteString("\n")
		for _, item := range m.Preview {
			if item.Info.Err != nil {
				b.WriteString(fmt.Sprintf("  %s %s: %v\n", iconWarning, item.Info.Source, item.Info.Err))
			}
		}
	}

	if m.config.DryRun {
		b.WriteString("\n")
		b.WriteString(highlightBoxStyle.Render("🔍 Dry Run - No photos were saved"))
	}

	return b.String()
}

func (m Model) renderConfirmPrompt() string {
	prompt := confirmPromptStyle.Render(fmt.Sprintf("Save %d photos as %s?", len(m.Preview), m.config.Preset.Model))

	var yesBtn, noBtn string
	if m.confirmSelection {
		yesBtn = highlightBoxStyle.Copy().
			Background(lipgloss.Color("#2D5A27")).
			Render(" Yes ")
		noBtn = boxStyle.Render(" No ")
	} else {
		yesBtn = boxStyle.Render(" Yes ")
		noBtn = highlightBoxStyle.Copy().
			Background(lipgloss.Color("#5A2727")).
			Render(" No ")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yesBtn, "  ", noBtn)

	return lipgloss.JoinVertical(lipgloss.Left, prompt, "", buttons)
}

func (m Model) renderRewriting() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Rewriting"))
	b.WriteString("\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.processed) / float64(m.total)
	}

	status := m.status
	if status == "" {
		status = "Starting..."
	}
	b.WriteString(fmt.Sprintf("  %s %s\n\n", m.spinner.View(), status))
	b.WriteString(fmt.Sprintf("  %s\n", m.progress.ViewAs(percent)))

	countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	percentStyle := lipgloss.NewStyle().Foreground(dimTextColor)

	b.WriteString(fmt.Sprintf("  %s %s\n",
		countStyle.Render(fmt.Sprintf("%d/%d photos", m.processed, m.total)),
		percentStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
	))

	if m.failed > 0 {
		b.WriteString(fmt.Sprintf("\n  %s %s\n", errorStyle.Render(iconError), errorStyle.Render(fmt.Sprintf("%d failed", m.failed))))
	}

	return b.String()
}

func (m Model) renderCompletion() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Complete"))
	b.WriteString("\n\n")

	result := m.Result
	switch {
	case result.Cancelled:
		b.WriteString(fmt.Sprintf("  %s %s\n\n", warningStyle.Render(iconWarning), warningStyle.Render("Cancelled")))
	case result.Succeeded == result.Total:
		b.WriteString(fmt.Sprintf("  %s %s\n\n", successStyle.Render(iconSuccess), successStyle.Render("All photos saved!")))
	default:
		b.WriteString(fmt.Sprintf("  %s %s\n\n", errorStyle.Render(iconError), errorStyle.Render("Some photos failed")))
	}

	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Saved:"), successStyle.Render(fmt.Sprintf("%s %d", iconSuccess, result.Succeeded))))
	if failed := result.Failed(); failed > 0 {
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Failed:"), errorStyle.Render(fmt.Sprintf("%s %d", iconError, failed))))
		for i, item := range result.Failures() {
			if i >= 4 {
				b.WriteString(fmt.Sprintf("  ... and %d more\n", failed-4))
				break
			}
			b.WriteString(fmt.Sprintf("  %s %s  %s\n",
				errorStyle.Render(iconError),
				fileNameStyle.Render(item.Source),
				dateStyle.Render(item.Outcome.String()),
			))
		}
	}
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Total:"), statValueStyle.Render(fmt.Sprintf("%d photos", result.Total))))

	return b.String()
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render(fmt.Sprintf("Error: %s", m.Err.Error()))

	return highlightBoxStyle.Copy().
		BorderForeground(errorColor).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhaseInspecting:
		help = "Press q to quit"
	case PhaseConfirm:
		help = "← → or y/n to select • Enter to confirm • q to quit"
	case PhaseRewriting:
		help = "Rewriting photos... q to cancel"
	case PhaseDone:
		help = "Press Enter to exit"
	case PhaseError:
		help = "Press Enter or q to exit"
	}
	return helpStyle.Render(help)
}

// formatPreviewList formats preview items for display
func formatPreviewList(items []domain.PreviewItem, maxItems int) []string {
	if len(items) == 0 {
		return []string{}
	}

	lines := make([]string, 0, min(len(items), maxItems+1))

	if len(items) > maxItems {
		half := maxItems / 2
		for i := 0; i < half; i++ {
			lines = append(lines, formatPreviewItem(items[i]))
		}
		dimStyle := lipgloss.NewStyle().Foreground(dimTextColor)
		lines = append(lines, dimStyle.Render(fmt.Sprintf("... %d more photos ...", len(items)-maxItems)))
		for i := len(items) - half; i < len(items); i++ {
			lines = append(lines, formatPreviewItem(items[i]))
		}
		return lines
	}

	for _, item := range items {
		lines = append(lines, formatPreviewItem(item))
	}
	return lines
}

func formatPreviewItem(item domain.PreviewItem) string {
	current := item.Info.Current.Model
	if current == "" {
		current = "unknown"
	}
	return fmt.Sprintf("%s %s  %s %s",
		iconPhoto,
		fileNameStyle.Render(item.DestinationName),
		dateStyle.Render(current),
		iconArrow,
	) + " " + targetStyle.Render(item.Target.Model)
}

// shortenPath replaces the home directory prefix with ~ for display
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
