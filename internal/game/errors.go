package game

import (
	"errors"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/environment"
)

var (
	ErrShipLimit      = errors.New("ship limit reached")
	ErrShipNotFound   = errors.New("ship not found")
	ErrHazardLimit    = errors.New("hazard limit reached")
	ErrHazardNotFound = errors.New("hazard not found")
	ErrCelestialLimit = errors.New("celestial limit reached")
	ErrInvalidName    = errors.New("invalid ship name")

	ErrInvalidHazard    = environment.ErrInvalidHazard
	ErrInvalidCelestial = environment.ErrInvalidCelestial
)
