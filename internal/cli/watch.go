package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/courseforge/internal/client"
)

const watchPollInterval = time.Second

// Theme holds the color scheme for the watch display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Watch a generation job until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchJob(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// watchJob follows a job to its terminal state. On a terminal it runs
// the interactive UI; otherwise it falls back to plain polling output.
func watchJob(ctx context.Context, jobID string) error {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return runWatchUI(api, jobID)
	}
	return watchJobPlain(ctx, jobID)
}

// watchJobPlain polls and prints one line per status change.
func watchJobPlain(ctx context.Context, jobID string) error {
	w := client.NewWatcher(api, client.DefaultPollInterval)
	job, err := w.WaitForJob(ctx, jobID, func(j client.Job) {
		fmt.Printf("job %s: %s\n", j.ID, j.Status)
	})
	if err != nil {
		return err
	}
	if job.Status == "failed" {
		if job.Error != nil {
			return fmt.Errorf("job failed: %s", *job.Error)
		}
		return fmt.Errorf("job failed")
	}
	return nil
}

// tickMsg triggers polling the job status.
type tickMsg time.Time

// jobUpdateMsg carries the updated job data.
type jobUpdateMsg struct {
	job *client.Job
	err error
}

// watchModel is the bubbletea model for following a job.
type watchModel struct {
	client   *client.Client
	jobID    string
	job      *client.Job
	spinner  spinner.Model
	theme    Theme
	started  time.Time
	done     bool
	quitting bool
	err      error
}

func newWatchModel(c *client.Client, jobID string) watchModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return watchModel{
		client:  c,
		jobID:   jobID,
		spinner: sp,
		theme:   defaultTheme,
		started: time.Now(),
	}
}

// Init returns the initial command (start polling).
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchJob(),
		m.spinner.Tick,
	)
}

// Update handles messages and returns the updated model.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.fetchJob()

	case jobUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch job status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.job = msg.job

		switch m.job.Status {
		case "completed":
			m.done = true
			return m, tea.Quit
		case "failed":
			m.done = true
			if m.job.Error != nil {
				m.err = fmt.Errorf("%s", *m.job.Error)
			} else {
				m.err = fmt.Errorf("job failed with unknown error")
			}
			return m, tea.Quit
		}

		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the watch display.
func (m watchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m watchModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	status := "pending"
	if m.job != nil {
		status = m.job.Status
	}

	elapsed := time.Since(m.started).Round(time.Second)
	line := fmt.Sprintf("%s %s %s",
		m.spinner.View(),
		m.theme.statusStyle().Render(fmt.Sprintf("[%s]", status)),
		m.theme.hintStyle().Render(fmt.Sprintf("elapsed %s", elapsed)))
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s\n%s\n", line, hint)
}

func (m watchModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nJob %s continues in background.\nUse 'courseforge jobs %s' to check status.\n",
			m.jobID, m.jobID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Job failed: %s\n", m.err))
	}

	out := m.theme.completedStyle().Render("✓ Completed") + "\n"
	if m.job != nil && m.job.ResultRef != nil {
		out += fmt.Sprintf("  Result: %s\n", *m.job.ResultRef)
	}
	return out
}

// fetchJob fetches the current job status from the server.
// Runs as a command to avoid blocking Update().
func (m watchModel) fetchJob() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		job, err := m.client.GetJob(ctx, m.jobID)
		return jobUpdateMsg{job: job, err: err}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(watchPollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runWatchUI runs the interactive watch UI for a job.
// Returns nil on success or Ctrl+C (background), error on job failure.
func runWatchUI(c *client.Client, jobID string) error {
	p := tea.NewProgram(newWatchModel(c, jobID))

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("watch UI error: %w", err)
	}

	if m, ok := finalModel.(watchModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}

	return nil
}
