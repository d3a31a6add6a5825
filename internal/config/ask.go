package config

import "strings"

// Prompter collects a value from the operator, offering def as the
// value used when nothing is entered.
type Prompter interface {
	PromptWithDefault(label, def string) (string, error)
}

// Ask prompts for section.key using the currently stored value as the
// default. Empty input keeps the stored value. The answer is written back
// into the document but not saved.
func (d *Document) Ask(p Prompter, section, key, label string) (string, error) {
	last := d.Get(section, key)
	value, err := p.PromptWithDefault(label, last)
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		value = last
	}
	d.Set(section, key, value)
	return value, nil
}
