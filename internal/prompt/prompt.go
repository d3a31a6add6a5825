// Package prompt implements the interactive terminal input used by
// configure and login.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
)

var ErrInterrupted = errors.New("operation interrupted")

// Prompter is the set of terminal input primitives.
type Prompter interface {
	PromptWithDefault(label, def string) (string, error)
	PromptPassword(label string) (string, error)
	PromptYesNo(label string, def bool) (bool, error)
}

// PromptUI is a promptui backed Prompter.
type PromptUI struct {
	stdin  io.ReadCloser
	stdout io.WriteCloser
	run    func(p *promptui.Prompt) (string, error)
}

func New() *PromptUI {
	return &PromptUI{run: runPrompt}
}

func runPrompt(p *promptui.Prompt) (string, error) {
	return p.Run()
}

// WithIO redirects prompts, nil keeps the terminal.
func (p *PromptUI) WithIO(stdin io.ReadCloser, stdout io.WriteCloser) *PromptUI {
	p.stdin = stdin
	p.stdout = stdout
	return p
}

func handlePromptError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrInterrupted
	}
	return fmt.Errorf("prompt failed: %w", err)
}

// PromptWithDefault shows def as the answer taken on enter.
func (p *PromptUI) PromptWithDefault(label, def string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
		Stdin:   p.stdin,
		Stdout:  p.stdout,
	}
	result, err := p.run(&prompt)
	if err := handlePromptError(err); err != nil {
		return "", err
	}
	result = strings.TrimSpace(result)
	if result == "" {
		return def, nil
	}
	return result, nil
}

// PromptPassword reads a masked, non empty value.
func (p *PromptUI) PromptPassword(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			return nil
		},
		Stdin:  p.stdin,
		Stdout: p.stdout,
	}
	result, err := p.run(&prompt)
	if err := handlePromptError(err); err != nil {
		return "", err
	}
	return result, nil
}

func (p *PromptUI) PromptYesNo(label string, def bool) (bool, error) {
	defaultStr := "n"
	if def {
		defaultStr = "y"
	}
	prompt := promptui.Prompt{
		Label:   label + " (y/n)",
		Default: defaultStr,
		Validate: func(input string) error {
			input = strings.ToLower(strings.TrimSpace(input))
			if input != "" && input != "y" && input != "n" {
				return errors.New("input must be 'y' or 'n'")
			}
			return nil
		},
		Stdin:  p.stdin,
		Stdout: p.stdout,
	}
	result, err := p.run(&prompt)
	if err := handlePromptError(err); err != nil {
		return false, err
	}
	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		result = defaultStr
	}
	return result == "y", nil
}
