package terminal

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownUnit is returned when a unit shorthand is not in the match config.
var ErrUnknownUnit = errors.New("unknown unit type")

// UnitType is the engine's two-letter shorthand for a unit kind (e.g. "FF").
type UnitType string

// Resource identifies one of the two replenishing pools.
type Resource int

const (
	Cores Resource = iota // funds structures
	Bits                  // funds mobile units
)

func (r Resource) String() string {
	if r == Cores {
		return "cores"
	}
	return "bits"
}

// The contest always sends exactly six unit kinds, structures first.
const (
	unitKindCount   = 6
	structureKinds  = 3
	removalUnitSlot = 6
)

// UnitInfo is one entry of the config's unitInformation array.
type UnitInfo struct {
	Shorthand string  `json:"shorthand"`
	Display   string  `json:"display"`
	Cost      float64 `json:"cost"`
	Range     float64 `json:"range"`
	Damage    float64 `json:"damage"`
	Stability float64 `json:"stability"`
}

// ResourceConfig holds the per-match economy settings.
type ResourceConfig struct {
	StartingHP    float64 `json:"startingHP"`
	StartingCores float64 `json:"startingCores"`
	StartingBits  float64 `json:"startingBits"`
	CoresPerRound float64 `json:"coresPerRound"`
	BitsPerRound  float64 `json:"bitsPerRound"`
	MaxBits       float64 `json:"maxBits"`
}

// Config is the match configuration sent by the engine before the first frame.
type Config struct {
	UnitInformation []UnitInfo     `json:"unitInformation"`
	Resources       ResourceConfig `json:"resources"`
}

// ParseConfig decodes and validates the engine's config line.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.UnitInformation) < unitKindCount {
		return nil, fmt.Errorf("config has %d unit entries, need %d", len(cfg.UnitInformation), unitKindCount)
	}
	seen := make(map[string]bool, unitKindCount)
	for i, u := range cfg.UnitInformation[:unitKindCount] {
		if u.Shorthand == "" {
			return nil, fmt.Errorf("unit entry %d has no shorthand", i)
		}
		if seen[u.Shorthand] {
			return nil, fmt.Errorf("duplicate unit shorthand %q", u.Shorthand)
		}
		if u.Cost <= 0 {
			return nil, fmt.Errorf("unit %q has non-positive cost %v", u.Shorthand, u.Cost)
		}
		seen[u.Shorthand] = true
	}
	return &cfg, nil
}

// Catalog answers per-kind questions (cost, pool, range) for one match.
type Catalog struct {
	order []UnitType
	info  map[UnitType]UnitInfo
}

// NewCatalog indexes the first six unit entries of cfg.
func NewCatalog(cfg *Config) *Catalog {
	c := &Catalog{info: make(map[UnitType]UnitInfo, unitKindCount)}
	for _, u := range cfg.UnitInformation[:unitKindCount] {
		t := UnitType(u.Shorthand)
		c.order = append(c.order, t)
		c.info[t] = u
	}
	return c
}

// TypeAt returns the unit kind at the given config index.
func (c *Catalog) TypeAt(index int) (UnitType, error) {
	if index < 0 || index >= len(c.order) {
		return "", fmt.Errorf("unit index %d: %w", index, ErrUnknownUnit)
	}
	return c.order[index], nil
}

// Index returns the config index of t, or -1.
func (c *Catalog) Index(t UnitType) int {
	for i, u := range c.order {
		if u == t {
			return i
		}
	}
	return -1
}

// Known reports whether t is one of the six configured kinds.
func (c *Catalog) Known(t UnitType) bool {
	_, ok := c.info[t]
	return ok
}

// IsStationary reports whether t is a structure kind.
func (c *Catalog) IsStationary(t UnitType) bool {
	i := c.Index(t)
	return i >= 0 && i < structureKinds
}

// Cost returns the price of one unit of t.
func (c *Catalog) Cost(t UnitType) float64 {
	return c.info[t].Cost
}

// Range returns the attack range of t.
func (c *Catalog) Range(t UnitType) float64 {
	return c.info[t].Range
}

// Pool returns the resource that funds t.
func (c *Catalog) Pool(t UnitType) Resource {
	if c.IsStationary(t) {
		return Cores
	}
	return Bits
}

// Types returns the six kinds in config order.
func (c *Catalog) Types() []UnitType {
	out := make([]UnitType, len(c.order))
	copy(out, c.order)
	return out
}
