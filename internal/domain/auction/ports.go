package auction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rfialho/paddle/internal/domain/roster"
	"github.com/rfialho/paddle/pkg/events"
)

// TeamStore is the slice of team persistence the close-out transaction needs
type TeamStore interface {
	// GetTeamByName resolves the winning team
	GetTeamByName(ctx context.Context, name string) (*roster.Team, error)

	// DebitBalance decrements a team's balance within a transaction.
	// The balance is allowed to go negative.
	DebitBalance(ctx context.Context, tx pgx.Tx, teamID uuid.UUID, amount int64) error
}

// PlayerStore is the slice of player persistence the close-out transaction needs
type PlayerStore interface {
	// MarkSold sets the player's price, sold flag and owning team within a
	// transaction
	MarkSold(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, gender roster.Gender, teamID uuid.UUID, price int64) error
}

// OutboxStore records the sold event in the same transaction as the sale
type OutboxStore interface {
	SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error
}

// Broadcaster fans accepted coordinator outcomes out to every connected
// client. Implementations must not block: the coordinator calls these while
// holding its lock, which is what gives broadcasts their total order.
type Broadcaster interface {
	// BidUpdated announces a new snapshot, including the zero snapshot after
	// a reset or close
	BidUpdated(snap Snapshot)

	// PlayerSold announces a successful close-out
	PlayerSold(playerID uuid.UUID, team string, price int64)
}
