package model

import (
	"fmt"

	"github.com/AaronAnima/Twinnet/backend"
	"github.com/AaronAnima/Twinnet/nn"
)

// Config describes the shape of a model. NumLayers is recorded for callers
// that track it, but the depth of each model is fixed by its architecture:
// one cell for Labeler and Twin, two cells per direction for TwinNet.
type Config struct {
	InputSize  int    `mapstructure:"input_size"`
	HiddenSize int    `mapstructure:"hidden_size"`
	NumLayers  int    `mapstructure:"num_layers"`
	NumClasses int    `mapstructure:"num_classes"`
	Reverse    bool   `mapstructure:"reverse"` // Twin only: skip the affine map on states
	Device     string `mapstructure:"device"`  // "cpu", "cuda:0", "auto", ...
	Seed       uint64 `mapstructure:"seed"`    // parameter initialisation
}

// Validate checks that every size is positive.
func (c Config) Validate() error {
	switch {
	case c.InputSize <= 0:
		return fmt.Errorf("config: input_size must be > 0, got %d", c.InputSize)
	case c.HiddenSize <= 0:
		return fmt.Errorf("config: hidden_size must be > 0, got %d", c.HiddenSize)
	case c.NumClasses <= 0:
		return fmt.Errorf("config: num_classes must be > 0, got %d", c.NumClasses)
	case c.NumLayers < 0:
		return fmt.Errorf("config: num_layers must be >= 0, got %d", c.NumLayers)
	}
	return nil
}

// setup validates c and resolves its device and initializer.
func (c Config) setup() (backend.Device, *nn.Initializer, error) {
	if err := c.Validate(); err != nil {
		return backend.Device{}, nil, err
	}
	dev, err := backend.Select(c.Device)
	if err != nil {
		return backend.Device{}, nil, err
	}
	return dev, nn.NewInitializer(c.Seed), nil
}
