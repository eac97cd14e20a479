// Package questions serves the built-in practice question bank.
package questions

import (
	_ "embed"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"ai-interview-eval-service/internal/scoring"
)

//go:embed bank.yaml
var bankData []byte

// Question is one practice prompt. Category doubles as the question type
// passed to the scorer.
type Question struct {
	ID       int      `yaml:"id" json:"id"`
	Category string   `yaml:"category" json:"category"`
	Text     string   `yaml:"text" json:"text"`
	Tips     []string `yaml:"tips,omitempty" json:"tips,omitempty"`
}

// Bank holds the questions for each scoring mode.
type Bank struct {
	Behavioral []Question `yaml:"behavioral"`
	Voice      []Question `yaml:"voice"`
}

// Load parses the embedded bank.
func Load() (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(bankData, &b); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	return &b, nil
}

// ForMode returns the questions for a scoring mode name.
func (b *Bank) ForMode(mode string) ([]Question, error) {
	switch mode {
	case scoring.ModeBehavioral:
		return b.Behavioral, nil
	case scoring.ModeVoice:
		return b.Voice, nil
	default:
		return nil, fmt.Errorf("unknown question mode %q", mode)
	}
}

// Find looks up a question by mode and id.
func (b *Bank) Find(mode string, id int) (Question, bool) {
	qs, err := b.ForMode(mode)
	if err != nil {
		return Question{}, false
	}
	for _, q := range qs {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Key is the stable identifier sent with uploads.
func (q Question) Key() string {
	return strconv.Itoa(q.ID)
}
