package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"shrinker/internal/pipeline"
	"shrinker/internal/ui"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stdout) && (current == nil || !current.Quiet)
	}
}

// runWithUI calls run on a goroutine and renders the progress events it
// reports until it returns.
func runWithUI(title string, run func(pipeline.ProgressSink) error) error {
	events := make(chan pipeline.Event, 256)
	done := make(chan error, 1)

	go func() {
		err := run(pipeline.ChannelSink{Ch: events})
		close(events)
		done <- err
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, events), tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// The model stops reading when the user quits early.
	for range events {
	}
	runErr := <-done
	if uiErr != nil {
		return uiErr
	}
	return runErr
}
