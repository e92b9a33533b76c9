package prompt

import (
	"fmt"
	"strconv"
)

// Script is a Prompter that replays canned answers in order. It is used by
// command tests in place of a terminal. An answer of "" takes the default;
// running out of answers is an error.
type Script struct {
	Answers []string
	// Asked records every message in the order it was asked.
	Asked []string
}

// NewScript returns a Script with the given answers.
func NewScript(answers ...string) *Script {
	return &Script{Answers: answers}
}

func (s *Script) next(message string) (string, error) {
	s.Asked = append(s.Asked, message)
	if len(s.Answers) == 0 {
		return "", fmt.Errorf("no scripted answer for %q", message)
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}

// Input returns the next answer.
func (s *Script) Input(message, defaultValue string) (string, error) {
	a, err := s.next(message)
	if err != nil {
		return "", err
	}
	if a == "" {
		return defaultValue, nil
	}
	return a, nil
}

// Confirm parses the next answer as a bool ("y" and "n" also work).
func (s *Script) Confirm(message string, defaultValue bool) (bool, error) {
	a, err := s.next(message)
	if err != nil {
		return false, err
	}
	switch a {
	case "":
		return defaultValue, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return strconv.ParseBool(a)
}

// Select returns the next answer, which must be one of options.
func (s *Script) Select(message string, options []string, defaultValue string) (string, error) {
	a, err := s.next(message)
	if err != nil {
		return "", err
	}
	if a == "" {
		return defaultValue, nil
	}
	for _, o := range options {
		if o == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("scripted answer %q is not an option for %q", a, message)
}

// Password returns the next answer.
func (s *Script) Password(message string) (string, error) {
	return s.next(message)
}
