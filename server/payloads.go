// server/payloads.go
package server

import (
	"github.com/wfunc/duelserver/models"
)

type playCardRequest struct {
	CardID string `json:"card_id"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type duelStartPayload struct {
	RoomID   string        `json:"room_id"`
	Opponent string        `json:"opponent"`
	Hand     []models.Card `json:"hand"`
}

type roundSummaryPayload struct {
	Round   int            `json:"round"`
	MetricA float64        `json:"metric_a"`
	MetricB float64        `json:"metric_b"`
	Result  string         `json:"result"`
	Scores  map[string]int `json:"scores"`
}

type roundResultPayload struct {
	YourCard     models.Card    `json:"your_card"`
	OpponentCard models.Card    `json:"opponent_card"`
	Result       string         `json:"result"`
	Scores       map[string]int `json:"scores"`
}

type nextRoundPayload struct {
	Round int           `json:"round"`
	Hand  []models.Card `json:"hand"`
}

type winnerPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type duelEndedPayload struct {
	FinalResult string         `json:"final_result"`
	Scores      map[string]int `json:"scores"`
	Winner      *winnerPayload `json:"winner"`
}
