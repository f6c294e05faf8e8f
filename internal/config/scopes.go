package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/tourboard/internal/domain/model"
)

// allTimeStart is the date_from used by all-time scopes.
var allTimeStart = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // constant date

// ScopeConfig is one named scope of the catalog.
type ScopeConfig struct {
	Key            string            `koanf:"key"`
	Name           string            `koanf:"name"`
	DateFrom       string            `koanf:"date_from"`
	DateTo         string            `koanf:"date_to"`
	AllTime        bool              `koanf:"all_time"`
	HighRollerOnly bool              `koanf:"high_roller_only"`
	MaxBuyIn       string            `koanf:"max_buy_in"`
	SeriesIDs      []string          `koanf:"series_ids"`
	FestivalIDs    []string          `koanf:"festival_ids"`
	ScoringMethod  string            `koanf:"scoring_method"`
	Cap            int               `koanf:"cap"`
	BonusRules     []BonusRuleConfig `koanf:"bonus_rules"`
}

// BonusRuleConfig configures one bonus rule.
type BonusRuleConfig struct {
	Kind   string  `koanf:"kind"`
	Points float64 `koanf:"points"`
}

// Descriptor builds the scope descriptor effective on asOf. An empty
// date_to means "up to asOf", never earlier than date_from.
func (s ScopeConfig) Descriptor(asOf time.Time) (model.ScopeDescriptor, error) {
	if strings.TrimSpace(s.Key) == "" {
		return model.ScopeDescriptor{}, fmt.Errorf("%w: scope key is required", model.ErrInvalidScope)
	}

	var from time.Time
	switch {
	case s.DateFrom != "":
		d, err := model.ParseDay(s.DateFrom)
		if err != nil {
			return model.ScopeDescriptor{}, fmt.Errorf("%w: scope %q date_from: %w", model.ErrInvalidScope, s.Key, err)
		}
		from = d
	case s.AllTime:
		from = allTimeStart
	default:
		return model.ScopeDescriptor{}, fmt.Errorf("%w: scope %q needs date_from or all_time", model.ErrInvalidScope, s.Key)
	}

	var to time.Time
	if s.DateTo != "" {
		d, err := model.ParseDay(s.DateTo)
		if err != nil {
			return model.ScopeDescriptor{}, fmt.Errorf("%w: scope %q date_to: %w", model.ErrInvalidScope, s.Key, err)
		}
		to = d
	} else {
		to = model.Day(asOf)
		if to.Before(from) {
			to = from
		}
	}

	method, err := model.ParseScoringMethod(s.ScoringMethod)
	if err != nil {
		return model.ScopeDescriptor{}, fmt.Errorf("scope %q: %w", s.Key, err)
	}

	desc := model.ScopeDescriptor{
		Key:                 s.Key,
		DateFrom:            from,
		DateTo:              to,
		SeriesOrFestivalIDs: model.IDSet(append(append([]string{}, s.SeriesIDs...), s.FestivalIDs...)...),
		Method:              method,
		Cap:                 s.Cap,
	}
	if s.HighRollerOnly {
		desc.HighRoller = model.HighRollerOnly
	}
	if s.MaxBuyIn != "" {
		d, err := decimal.NewFromString(s.MaxBuyIn)
		if err != nil {
			return model.ScopeDescriptor{}, fmt.Errorf("%w: scope %q max_buy_in: %w", model.ErrInvalidScope, s.Key, err)
		}
		desc.MaxBuyIn = &d
	}
	for _, r := range s.BonusRules {
		desc.BonusRules = append(desc.BonusRules, model.BonusRule{
			Kind:   model.BonusKind(strings.ToLower(strings.TrimSpace(r.Kind))),
			Points: r.Points,
		})
	}

	if err := desc.Validate(); err != nil {
		return model.ScopeDescriptor{}, fmt.Errorf("scope %q: %w", s.Key, err)
	}
	return desc, nil
}

// Catalog indexes scope configs by key.
type Catalog struct {
	order  []string
	scopes map[string]ScopeConfig
}

// NewCatalog validates scopes and indexes them by key. Keys must be unique
// and every entry must produce a valid descriptor.
func NewCatalog(scopes []ScopeConfig) (*Catalog, error) {
	c := &Catalog{scopes: make(map[string]ScopeConfig, len(scopes))}
	probe := time.Now()
	for _, s := range scopes {
		if _, dup := c.scopes[s.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate scope key %q", ErrInvalidConfig, s.Key)
		}
		if _, err := s.Descriptor(probe); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		c.scopes[s.Key] = s
		c.order = append(c.order, s.Key)
	}
	return c, nil
}

// Get returns the scope named key.
func (c *Catalog) Get(key string) (ScopeConfig, bool) {
	s, ok := c.scopes[key]
	return s, ok
}

// Descriptor resolves key into the descriptor effective on asOf.
func (c *Catalog) Descriptor(key string, asOf time.Time) (model.ScopeDescriptor, error) {
	s, ok := c.scopes[key]
	if !ok {
		return model.ScopeDescriptor{}, fmt.Errorf("%w: %q", model.ErrUnknownScope, key)
	}
	return s.Descriptor(asOf)
}

// Scopes returns the catalog in configuration order.
func (c *Catalog) Scopes() []ScopeConfig {
	out := make([]ScopeConfig, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.scopes[k])
	}
	return out
}
