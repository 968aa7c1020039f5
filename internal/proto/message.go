package proto

import "encoding/json"

// Every frame on the room socket is a flat JSON object with a "type"
// discriminator. Unknown types are relayed to the room unmodified.
const (
	TypePlayersUpdated = "players_updated"
	TypeGameStarted    = "game_started"
	TypePlayerFinished = "player_finished"
	TypeGameEnded      = "game_ended"
)

// Envelope is the minimal decoded form of an inbound frame.
type Envelope struct {
	Type string `json:"type"`
}

// Player is one roster entry as seen by clients.
type Player struct {
	Username string `json:"username"`
	IsHost   bool   `json:"isHost"`
}

// PlayersUpdated carries the full roster of a room after a join or leave.
type PlayersUpdated struct {
	Type    string   `json:"type"`
	Players []Player `json:"players"`
}

// GameStarted announces the start of a quiz round to the room.
// Timestamp is generated server-side at dispatch.
type GameStarted struct {
	Type          string `json:"type"`
	RoomCode      string `json:"roomCode"`
	QuestionCount int    `json:"questionCount"`
	Timestamp     string `json:"timestamp"`
}

// GameStartedRequest is the client frame that triggers GameStarted.
type GameStartedRequest struct {
	QuestionCount *int `json:"questionCount"`
}

// PlayerFinished relays one player's result to the room. Fields are
// passed through verbatim; an absent field is re-emitted as null.
type PlayerFinished struct {
	Type           string          `json:"type"`
	Username       json.RawMessage `json:"username"`
	Score          json.RawMessage `json:"score"`
	CorrectAnswers json.RawMessage `json:"correctAnswers"`
	TimeTaken      json.RawMessage `json:"timeTaken"`
}

// GameEnded relays the final leaderboard. The payload is opaque to the
// server and forwarded unvalidated.
type GameEnded struct {
	Type        string          `json:"type"`
	Leaderboard json.RawMessage `json:"leaderboard"`
}
