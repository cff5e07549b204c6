package auction

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rfialho/paddle/internal/domain/roster"
)

// Coordinator errors
var (
	ErrNoActiveBid    = fmt.Errorf("no active bid to close")
	ErrTeamNotFound   = fmt.Errorf("winning team not found")
	ErrPlayerNotFound = fmt.Errorf("player not found")
)

// Snapshot is an immutable copy of the live auction state, safe to hand to
// callers and broadcast. Team is empty iff Bid is zero (no leader).
type Snapshot struct {
	Bid     int64
	Team    string
	Captain string
}

// Active reports whether a bid is currently leading
func (s Snapshot) Active() bool {
	return s.Team != ""
}

// BidProposal is one client's attempt to take the lead. Not persisted.
type BidProposal struct {
	Team    string
	Captain string
	Amount  int64
}

// CloseCommand selects the player the current round was auctioning
type CloseCommand struct {
	PlayerID uuid.UUID
	Gender   roster.Gender
}

// EventTypePlayerSold is the outbox event type recorded on a successful close
const EventTypePlayerSold = "player.sold"

// PlayerSoldEvent is the JSON payload published when a close-out commits
type PlayerSoldEvent struct {
	PlayerID uuid.UUID     `json:"player_id"`
	TeamID   uuid.UUID     `json:"team_id"`
	TeamName string        `json:"team_name"`
	Gender   roster.Gender `json:"gender"`
	Price    int64         `json:"price"`
	SoldAt   time.Time     `json:"sold_at"`
}
