package game

import (
	"time"

	"github.com/pedro-modular/vibecode-pilot-game/internal/game/vector"
)

// Session is the per-process game state shared by the UI surfaces: pause
// flag, score and the primary ship the camera follows. It is owned by the
// Engine and only mutated under the engine lock.
type Session struct {
	paused         bool
	score          int64
	primaryShipID  string
	playerPosition vector.Vector3D
	startedAt      time.Time
}

func newSession() Session {
	return Session{startedAt: time.Now()}
}

// SessionState is a copy of the session for readers.
type SessionState struct {
	Paused         bool            `json:"paused" msgpack:"paused"`
	Score          int64           `json:"score" msgpack:"score"`
	PrimaryShipID  string          `json:"primaryShipId" msgpack:"primaryShipId"`
	PlayerPosition vector.Vector3D `json:"playerPosition" msgpack:"playerPosition"`
	Players        int             `json:"players" msgpack:"players"`
	Uptime         float64         `json:"uptimeSeconds" msgpack:"uptimeSeconds"`
}

func (s *Session) state(players int) SessionState {
	return SessionState{
		Paused:         s.paused,
		Score:          s.score,
		PrimaryShipID:  s.primaryShipID,
		PlayerPosition: s.playerPosition,
		Players:        players,
		Uptime:         time.Since(s.startedAt).Seconds(),
	}
}
