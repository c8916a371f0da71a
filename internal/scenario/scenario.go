// Package scenario loads universe layouts from YAML files and registers
// them with a running engine.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
)

// ErrInvalidScenario is returned for documents that parse but fail validation.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a set of celestial objects and hazards to seed a universe with.
type Scenario struct {
	Name        string                        `yaml:"name"`
	Description string                        `yaml:"description,omitempty"`
	Celestials  []environment.CelestialObject `yaml:"celestials"`
	Hazards     []environment.Hazard          `yaml:"hazards"`
}

// Target receives scenario entries. *game.Engine satisfies it.
type Target interface {
	AddCelestialObject(o environment.CelestialObject) (environment.CelestialID, error)
	AddHazard(h environment.Hazard) (environment.HazardID, error)
}

// Load reads and validates the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario document. Unknown fields are
// rejected. An empty document is a valid empty scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks every entry. Errors name the offending list and index.
func (s *Scenario) Validate() error {
	for i, o := range s.Celestials {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("%w: celestials[%d]: %w", ErrInvalidScenario, i, err)
		}
	}
	for i, h := range s.Hazards {
		if err := h.Validate(); err != nil {
			return fmt.Errorf("%w: hazards[%d]: %w", ErrInvalidScenario, i, err)
		}
	}
	return nil
}

// Summary counts what Apply registered.
type Summary struct {
	Celestials int
	Hazards    int
}

// Apply registers celestials first, then hazards. It stops at the first
// rejected entry; entries before it stay registered.
func (s *Scenario) Apply(t Target) (Summary, error) {
	var sum Summary
	for i, o := range s.Celestials {
		if _, err := t.AddCelestialObject(o); err != nil {
			return sum, fmt.Errorf("celestials[%d]: %w", i, err)
		}
		sum.Celestials++
	}
	for i, h := range s.Hazards {
		if _, err := t.AddHazard(h); err != nil {
			return sum, fmt.Errorf("hazards[%d]: %w", i, err)
		}
		sum.Hazards++
	}
	return sum, nil
}
