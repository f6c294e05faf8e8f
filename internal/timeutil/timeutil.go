// Package timeutil parses calendar days given by operators, either as ISO
// dates or as natural language such as "today" or "last sunday".
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/okian/tourboard/internal/domain/model"
)

// ErrUnrecognizedDate is returned when input is neither an ISO date nor a
// phrase the natural language parser understands.
var ErrUnrecognizedDate = errors.New("unrecognized date")

// Parser turns user input into calendar days.
type Parser struct {
	w *when.Parser
}

// NewParser returns a parser with the English and common rule sets.
func NewParser() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w}
}

// ParseDay resolves input relative to now. Empty input means today.
func (p *Parser) ParseDay(input string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return model.Day(now), nil
	}
	if d, err := model.ParseDay(s); err == nil {
		return d, nil
	}

	switch strings.ToLower(s) {
	case "today", "now":
		return model.Day(now), nil
	case "yesterday":
		return model.Day(now.AddDate(0, 0, -1)), nil
	case "tomorrow":
		return model.Day(now.AddDate(0, 0, 1)), nil
	}

	r, err := p.w.Parse(strings.ToLower(s), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrUnrecognizedDate, input, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognizedDate, input)
	}
	return model.Day(r.Time), nil
}
