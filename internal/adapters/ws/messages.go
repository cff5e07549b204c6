package ws

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/rfialho/paddle/internal/domain/auction"
)

// Client message types
const (
	MsgPlaceBid = "placeBid"
	MsgCloseBid = "closeBid"
	MsgReset    = "reset"
)

// Server message types
const (
	MsgBidUpdated = "bidUpdated"
	MsgPlayerSold = "playerSold"
	MsgCloseError = "closeError"
	MsgError      = "error"
)

// ClientMessage is one inbound frame from a connected client
type ClientMessage struct {
	Type     string `json:"type"`
	Team     string `json:"team,omitempty"`
	Captain  string `json:"captain,omitempty"`
	Bid      int64  `json:"bid,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// bidUpdatedMessage announces the current snapshot. Team and captain are
// null when no bid is leading.
type bidUpdatedMessage struct {
	Type    string  `json:"type"`
	Bid     int64   `json:"bid"`
	Team    *string `json:"team"`
	Captain *string `json:"captain"`
}

type playerSoldMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Team     string `json:"team"`
	Price    int64  `json:"price"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func encodeBidUpdated(snap auction.Snapshot) []byte {
	msg := bidUpdatedMessage{Type: MsgBidUpdated, Bid: snap.Bid}
	if snap.Active() {
		msg.Team = &snap.Team
		msg.Captain = &snap.Captain
	}
	payload, _ := json.Marshal(msg)
	return payload
}

func encodePlayerSold(playerID uuid.UUID, team string, price int64) []byte {
	payload, _ := json.Marshal(playerSoldMessage{
		Type:     MsgPlayerSold,
		PlayerID: playerID.String(),
		Team:     team,
		Price:    price,
	})
	return payload
}

func encodeError(msgType, text string) []byte {
	payload, _ := json.Marshal(errorMessage{Type: msgType, Error: text})
	return payload
}
