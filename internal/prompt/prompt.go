// Package prompt asks the user questions on the terminal.
package prompt

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"golang.org/x/term"

	"github.com/ghtraf/ghtraf/internal/errors"
)

// Prompter asks questions. Every method returns errors.ErrInterrupted when
// the user presses Ctrl-C.
type Prompter interface {
	Input(message, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
	Password(message string) (string, error)
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Survey is the terminal Prompter.
type Survey struct {
	opts []survey.AskOpt
}

// NewSurvey returns a Prompter backed by survey.
func NewSurvey(opts ...survey.AskOpt) *Survey {
	return &Survey{opts: opts}
}

// Input asks for a line of text. An empty answer yields defaultValue.
func (s *Survey) Input(message, defaultValue string) (string, error) {
	var result string
	q := &survey.Input{Message: message, Default: defaultValue}
	return result, wrap(survey.AskOne(q, &result, s.opts...))
}

// Confirm asks a yes/no question.
func (s *Survey) Confirm(message string, defaultValue bool) (bool, error) {
	var result bool
	q := &survey.Confirm{Message: message, Default: defaultValue}
	return result, wrap(survey.AskOne(q, &result, s.opts...))
}

// Select asks for one of options.
func (s *Survey) Select(message string, options []string, defaultValue string) (string, error) {
	var result string
	q := &survey.Select{Message: message, Options: options}
	if defaultValue != "" {
		q.Default = defaultValue
	}
	return result, wrap(survey.AskOne(q, &result, s.opts...))
}

// Password asks for a secret without echoing it.
func (s *Survey) Password(message string) (string, error) {
	var result string
	q := &survey.Password{Message: message}
	return result, wrap(survey.AskOne(q, &result, s.opts...))
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, terminal.InterruptErr) {
		return errors.ErrInterrupted
	}
	return fmt.Errorf("prompt failed: %w", err)
}
