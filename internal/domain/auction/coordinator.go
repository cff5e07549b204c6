package auction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rfialho/paddle/pkg/database"
	"github.com/rfialho/paddle/pkg/events"
)

// Coordinator owns the live auction state: the single highest bid and the
// team leading it. All four operations serialize through one mutex, so
// clients racing on the same amount observe a linearized history and exactly
// one of them takes the lead. The lock is held across the close-out's store
// round-trip: a close and a bid can never interleave.
type Coordinator struct {
	mu      sync.Mutex
	current Snapshot

	txManager   database.TransactionManager
	teams       TeamStore
	players     PlayerStore
	outbox      OutboxStore
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewCoordinator creates a new auction coordinator in the idle state
func NewCoordinator(
	txManager database.TransactionManager,
	teams TeamStore,
	players PlayerStore,
	outbox OutboxStore,
	broadcaster Broadcaster,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		txManager:   txManager,
		teams:       teams,
		players:     players,
		outbox:      outbox,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Join returns the current snapshot. The optional deliver callback runs
// inside the coordinator's critical section: the websocket hub uses it to
// register a new subscriber and hand it the snapshot in one step, so a
// concurrent bid's broadcast can neither be missed nor arrive out of order.
func (c *Coordinator) Join(deliver func(Snapshot)) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deliver != nil {
		deliver(c.current)
	}
	return c.current
}

// ProposeBid applies the highest-bid-wins rule. A proposal is accepted iff
// its amount is strictly greater than the current bid; an equal amount keeps
// the incumbent leader. Acceptance replaces the whole snapshot atomically and
// broadcasts it. Rejection mutates nothing and broadcasts nothing: only the
// proposer learns of it through the return value.
func (c *Coordinator) ProposeBid(p BidProposal) (bool, Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.Team == "" || p.Amount <= c.current.Bid {
		return false, c.current
	}

	c.current = Snapshot{Bid: p.Amount, Team: p.Team, Captain: p.Captain}
	c.broadcaster.BidUpdated(c.current)

	c.logger.Info("bid accepted",
		slog.String("team", p.Team),
		slog.String("captain", p.Captain),
		slog.Int64("amount", p.Amount),
	)
	return true, c.current
}

// CloseBid finalizes the round: the winning team and amount are captured
// from the current snapshot, the close-out transaction runs against the
// store, and the state returns to zero no matter what. A failed close-out is
// reported to the caller, but the in-memory round still terminates; leaving
// the stale bid in place would present a phantom unresolved auction to the
// next join with no way to close it for a different player.
func (c *Coordinator) CloseBid(ctx context.Context, cmd CloseCommand) (snap Snapshot, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.current.Active() {
		return c.current, ErrNoActiveBid
	}

	winner := c.current

	defer func() {
		c.current = Snapshot{}
		snap = c.current
		c.broadcaster.BidUpdated(c.current)
	}()

	if err := c.settle(ctx, cmd, winner); err != nil {
		c.logger.Error("close-out failed",
			slog.String("player_id", cmd.PlayerID.String()),
			slog.String("team", winner.Team),
			slog.Int64("amount", winner.Bid),
			slog.Any("error", err),
		)
		return c.current, err
	}

	c.broadcaster.PlayerSold(cmd.PlayerID, winner.Team, winner.Bid)

	c.logger.Info("player sold",
		slog.String("player_id", cmd.PlayerID.String()),
		slog.String("team", winner.Team),
		slog.Int64("price", winner.Bid),
	)
	return c.current, nil
}

// Reset unconditionally zeroes the auction state and re-announces it, also
// when already idle. Used for operator-initiated abort of a round with no
// sale.
func (c *Coordinator) Reset() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = Snapshot{}
	c.broadcaster.BidUpdated(c.current)
	return c.current
}

// settle runs the close-out transaction: resolve the winning team, then in a
// single database transaction mark the player sold, debit the team's balance
// (it may go negative) and record the sold event in the outbox. Rollback on
// any step leaves the store exactly as it was.
func (c *Coordinator) settle(ctx context.Context, cmd CloseCommand, winner Snapshot) error {
	team, err := c.teams.GetTeamByName(ctx, winner.Team)
	if err != nil {
		return fmt.Errorf("failed to resolve winning team: %w", err)
	}

	tx, err := c.txManager.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := c.players.MarkSold(ctx, tx, cmd.PlayerID, cmd.Gender, team.ID, winner.Bid); err != nil {
		return fmt.Errorf("failed to mark player sold: %w", err)
	}

	if err := c.teams.DebitBalance(ctx, tx, team.ID, winner.Bid); err != nil {
		return fmt.Errorf("failed to debit team balance: %w", err)
	}

	soldAt := time.Now()
	payload, err := json.Marshal(PlayerSoldEvent{
		PlayerID: cmd.PlayerID,
		TeamID:   team.ID,
		TeamName: team.Name,
		Gender:   cmd.Gender,
		Price:    winner.Bid,
		SoldAt:   soldAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sold event: %w", err)
	}

	outboxEvent := &events.OutboxEvent{
		ID:        uuid.New(),
		EventType: EventTypePlayerSold,
		Payload:   payload,
		Status:    events.OutboxStatusPending,
		CreatedAt: soldAt,
	}
	if err := c.outbox.SaveEvent(ctx, tx, outboxEvent); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
