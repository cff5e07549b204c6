package auction_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfialho/paddle/internal/domain/auction"
	"github.com/rfialho/paddle/internal/domain/roster"
	"github.com/rfialho/paddle/pkg/events"
)

// fakeTx stubs the two transaction methods the coordinator uses. Everything
// else panics via the embedded nil interface, which is what we want: the
// coordinator must not touch the transaction directly.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeTxManager struct {
	beginErr error
	last     *fakeTx
	begun    int
}

func (m *fakeTxManager) BeginTx(ctx context.Context) (pgx.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	m.begun++
	m.last = &fakeTx{}
	return m.last, nil
}

type debit struct {
	teamID uuid.UUID
	amount int64
}

type fakeTeamStore struct {
	teams    map[string]*roster.Team
	debits   []debit
	debitErr error
}

func (s *fakeTeamStore) GetTeamByName(ctx context.Context, name string) (*roster.Team, error) {
	if team, ok := s.teams[name]; ok {
		return team, nil
	}
	return nil, auction.ErrTeamNotFound
}

func (s *fakeTeamStore) DebitBalance(ctx context.Context, tx pgx.Tx, teamID uuid.UUID, amount int64) error {
	if s.debitErr != nil {
		return s.debitErr
	}
	s.debits = append(s.debits, debit{teamID: teamID, amount: amount})
	return nil
}

type sale struct {
	playerID uuid.UUID
	gender   roster.Gender
	teamID   uuid.UUID
	price    int64
}

type fakePlayerStore struct {
	sales   []sale
	markErr error
}

func (s *fakePlayerStore) MarkSold(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, gender roster.Gender, teamID uuid.UUID, price int64) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.sales = append(s.sales, sale{playerID: playerID, gender: gender, teamID: teamID, price: price})
	return nil
}

type fakeOutboxStore struct {
	saved   []*events.OutboxEvent
	saveErr error
}

func (s *fakeOutboxStore) SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, event)
	return nil
}

type soldNotice struct {
	playerID uuid.UUID
	team     string
	price    int64
}

// recordingBroadcaster captures broadcasts in the order the coordinator
// produced them. The mutex lets the concurrency tests read it safely.
type recordingBroadcaster struct {
	mu    sync.Mutex
	snaps []auction.Snapshot
	sold  []soldNotice
}

func (b *recordingBroadcaster) BidUpdated(snap auction.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snaps = append(b.snaps, snap)
}

func (b *recordingBroadcaster) PlayerSold(playerID uuid.UUID, team string, price int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sold = append(b.sold, soldNotice{playerID: playerID, team: team, price: price})
}

func (b *recordingBroadcaster) snapshots() []auction.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]auction.Snapshot(nil), b.snaps...)
}

type fixture struct {
	coordinator *auction.Coordinator
	txManager   *fakeTxManager
	teams       *fakeTeamStore
	players     *fakePlayerStore
	outbox      *fakeOutboxStore
	broadcaster *recordingBroadcaster
}

func newFixture(teams map[string]*roster.Team) *fixture {
	f := &fixture{
		txManager:   &fakeTxManager{},
		teams:       &fakeTeamStore{teams: teams},
		players:     &fakePlayerStore{},
		outbox:      &fakeOutboxStore{},
		broadcaster: &recordingBroadcaster{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.coordinator = auction.NewCoordinator(f.txManager, f.teams, f.players, f.outbox, f.broadcaster, logger)
	return f
}

func testTeam(name string) *roster.Team {
	return &roster.Team{
		ID:      uuid.New(),
		Name:    name,
		Captain: "Captain " + name,
		Gender:  roster.GenderMale,
		Type:    roster.TeamTypeTeam,
		Balance: roster.DefaultBalance,
	}
}

func TestProposeBid(t *testing.T) {
	tests := []struct {
		name     string
		existing auction.BidProposal
		proposal auction.BidProposal
		want     bool
	}{
		{
			name:     "first bid accepted",
			proposal: auction.BidProposal{Team: "A", Captain: "X", Amount: 100},
			want:     true,
		},
		{
			name:     "higher bid takes the lead",
			existing: auction.BidProposal{Team: "A", Captain: "X", Amount: 100},
			proposal: auction.BidProposal{Team: "B", Captain: "Y", Amount: 150},
			want:     true,
		},
		{
			name:     "lower bid rejected",
			existing: auction.BidProposal{Team: "A", Captain: "X", Amount: 100},
			proposal: auction.BidProposal{Team: "B", Captain: "Y", Amount: 90},
			want:     false,
		},
		{
			name:     "equal bid rejected - incumbent keeps the lead",
			existing: auction.BidProposal{Team: "A", Captain: "X", Amount: 100},
			proposal: auction.BidProposal{Team: "B", Captain: "Y", Amount: 100},
			want:     false,
		},
		{
			name:     "zero bid rejected when idle",
			proposal: auction.BidProposal{Team: "A", Captain: "X", Amount: 0},
			want:     false,
		},
		{
			name:     "bid without a team rejected",
			proposal: auction.BidProposal{Amount: 100},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			if tt.existing.Team != "" {
				accepted, _ := f.coordinator.ProposeBid(tt.existing)
				require.True(t, accepted)
			}

			accepted, snap := f.coordinator.ProposeBid(tt.proposal)

			assert.Equal(t, tt.want, accepted)
			if tt.want {
				assert.Equal(t, tt.proposal.Amount, snap.Bid)
				assert.Equal(t, tt.proposal.Team, snap.Team)
				assert.Equal(t, tt.proposal.Captain, snap.Captain)
			} else {
				// Rejection leaves the incumbent snapshot untouched
				assert.Equal(t, tt.existing.Amount, snap.Bid)
				assert.Equal(t, tt.existing.Team, snap.Team)
			}
		})
	}
}

func TestProposeBid_RejectionDoesNotBroadcast(t *testing.T) {
	f := newFixture(nil)

	accepted, _ := f.coordinator.ProposeBid(auction.BidProposal{Team: "A", Captain: "X", Amount: 100})
	require.True(t, accepted)

	accepted, _ = f.coordinator.ProposeBid(auction.BidProposal{Team: "B", Captain: "Y", Amount: 90})
	require.False(t, accepted)

	snaps := f.broadcaster.snapshots()
	require.Len(t, snaps, 1, "rejected bid must not be broadcast")
	assert.Equal(t, auction.Snapshot{Bid: 100, Team: "A", Captain: "X"}, snaps[0])
}

func TestProposeBid_BroadcastsAreMonotonic(t *testing.T) {
	f := newFixture(nil)

	amounts := []int64{50, 40, 120, 120, 80, 200, 199, 250}
	proposed := make(map[int64]bool)
	for _, amount := range amounts {
		proposed[amount] = true
		f.coordinator.ProposeBid(auction.BidProposal{Team: "T", Captain: "C", Amount: amount})
	}

	snaps := f.broadcaster.snapshots()
	var prev int64
	for _, snap := range snaps {
		assert.GreaterOrEqual(t, snap.Bid, prev, "broadcast bids must be non-decreasing")
		assert.True(t, proposed[snap.Bid], "broadcast %d must come from a proposal", snap.Bid)
		prev = snap.Bid
	}
}

func TestProposeBid_ConcurrentBiddersLinearize(t *testing.T) {
	f := newFixture(nil)

	const bidders = 50
	var wg sync.WaitGroup
	for i := 1; i <= bidders; i++ {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			f.coordinator.ProposeBid(auction.BidProposal{Team: "T", Captain: "C", Amount: amount})
		}(int64(i))
	}
	wg.Wait()

	snap := f.coordinator.Join(nil)
	assert.Equal(t, int64(bidders), snap.Bid, "highest bid must win regardless of arrival order")

	// Every broadcast observed a strictly increasing bid: two racing equal
	// amounts can never both be announced.
	snaps := f.broadcaster.snapshots()
	var prev int64
	for _, s := range snaps {
		assert.Greater(t, s.Bid, prev)
		prev = s.Bid
	}
}

func TestJoin_ReflectsCurrentLeader(t *testing.T) {
	f := newFixture(nil)

	f.coordinator.ProposeBid(auction.BidProposal{Team: "A", Captain: "X", Amount: 100})

	var delivered auction.Snapshot
	snap := f.coordinator.Join(func(s auction.Snapshot) { delivered = s })

	want := auction.Snapshot{Bid: 100, Team: "A", Captain: "X"}
	assert.Equal(t, want, snap)
	assert.Equal(t, want, delivered, "deliver callback must see the same snapshot")
}

func TestCloseBid_NoActiveBid(t *testing.T) {
	f := newFixture(nil)

	_, err := f.coordinator.CloseBid(context.Background(), auction.CloseCommand{
		PlayerID: uuid.New(),
		Gender:   roster.GenderMale,
	})

	require.ErrorIs(t, err, auction.ErrNoActiveBid)
	assert.Zero(t, f.txManager.begun, "no transaction may be started")
	assert.Empty(t, f.players.sales)
	assert.Empty(t, f.teams.debits)
	assert.Empty(t, f.broadcaster.snapshots(), "fail-fast close must not broadcast")
}

func TestCloseBid_Success(t *testing.T) {
	teamA := testTeam("A")
	f := newFixture(map[string]*roster.Team{"A": teamA})
	playerID := uuid.New()

	accepted, _ := f.coordinator.ProposeBid(auction.BidProposal{Team: "A", Captain: "X", Amount: 100})
	require.True(t, accepted)

	snap, err := f.coordinator.CloseBid(context.Background(), auction.CloseCommand{
		PlayerID: playerID,
		Gender:   roster.GenderMale,
	})
	require.NoError(t, err)
	assert.Equal(t, auction.Snapshot{}, snap, "state must be zero after close")

	// Player marked sold with the captured winning amount
	require.Len(t, f.players.sales, 1)
	assert.Equal(t, sale{playerID: playerID, gender: roster.GenderMale, teamID: teamA.ID, price: 100}, f.players.sales[0])

	// Team debited by the same amount
	require.Len(t, f.teams.debits, 1)
	assert.Equal(t, debit{teamID: teamA.ID, amount: 100}, f.teams.debits[0])

	// Sold event recorded in the same transaction, then committed
	require.Len(t, f.outbox.saved, 1)
	assert.Equal(t, auction.EventTypePlayerSold, f.outbox.saved[0].EventType)
	var event auction.PlayerSoldEvent
	require.NoError(t, json.Unmarshal(f.outbox.saved[0].Payload, &event))
	assert.Equal(t, playerID, event.PlayerID)
	assert.Equal(t, teamA.ID, event.TeamID)
	assert.Equal(t, int64(100), event.Price)
	assert.True(t, f.txManager.last.committed)

	// Broadcast order: accepted bid, sold notice, reset
	snaps := f.broadcaster.snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, auction.Snapshot{Bid: 100, Team: "A", Captain: "X"}, snaps[0])
	assert.Equal(t, auction.Snapshot{}, snaps[1])
	require.Len(t, f.broadcaster.sold, 1)
	assert.Equal(t, soldNotice{playerID: playerID, team: "A", price: 100}, f.broadcaster.sold[0])
}

func TestCloseBid_TeamNotFound(t *testing.T) {
	f := newFixture(nil) // no teams registered
	playerID := uuid.New()

	f.coordinator.ProposeBid(auction.BidProposal{Team: "Ghosts", Captain: "X", Amount: 100})

	snap, err := f.coordinator.CloseBid(context.Background(), auction.CloseCommand{
		PlayerID: playerID,
		Gender:   roster.GenderFemale,
	})

	require.ErrorIs(t, err, auction.ErrTeamNotFound)
	assert.Equal(t, auction.Snapshot{}, snap, "state resets even when the close-out fails")
	assert.Empty(t, f.players.sales, "player record must be unchanged")
	assert.Empty(t, f.teams.debits, "balance must be unchanged")
	assert.Empty(t, f.outbox.saved)
	assert.Empty(t, f.broadcaster.sold, "no sold notice on failure")

	// All clients still see the reset snapshot
	snaps := f.broadcaster.snapshots()
	require.NotEmpty(t, snaps)
	assert.Equal(t, auction.Snapshot{}, snaps[len(snaps)-1])

	// A later join sees an idle auction, not a phantom round
	assert.Equal(t, auction.Snapshot{}, f.coordinator.Join(nil))
}

func TestCloseBid_PlayerUpdateFails(t *testing.T) {
	teamA := testTeam("A")
	f := newFixture(map[string]*roster.Team{"A": teamA})
	f.players.markErr = auction.ErrPlayerNotFound

	f.coordinator.ProposeBid(auction.BidProposal{Team: "A", Captain: "X", Amount: 100})

	snap, err := f.coordinator.CloseBid(context.Background(), auction.CloseCommand{
		PlayerID: uuid.New(),
		Gender:   roster.GenderMale,
	})

	require.ErrorIs(t, err, auction.ErrPlayerNotFound)
	assert.Equal(t, auction.Snapshot{}, snap)
	assert.Empty(t, f.teams.debits, "debit must not happen when the player update fails")
	assert.True(t, f.txManager.last.rolledBack)
	assert.False(t, f.txManager.last.committed)
}

func TestCloseBid_DebitFailureRollsBackSale(t *testing.T) {
	teamA := testTeam("A")
	f := newFixture(map[string]*roster.Team{"A": teamA})
	f.teams.debitErr = assert.AnError

	f.coordinator.ProposeBid(auction.BidProposal{Team: "A", Captain: "X", Amount: 100})

	_, err := f.coordinator.CloseBid(context.Background(), auction.CloseCommand{
		PlayerID: uuid.New(),
		Gender:   roster.GenderMale,
	})

	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, f.txManager.last.rolledBack, "the sold player row must not outlive a failed debit")
	assert.False(t, f.txManager.last.committed)
	assert.Empty(t, f.broadcaster.sold)
	assert.Equal(t, auction.Snapshot{}, f.coordinator.Join(nil))
}

func TestReset_Idempotent(t *testing.T) {
	f := newFixture(nil)

	f.coordinator.ProposeBid(auction.BidProposal{Team: "A", Captain: "X", Amount: 100})

	first := f.coordinator.Reset()
	second := f.coordinator.Reset()

	assert.Equal(t, auction.Snapshot{}, first)
	assert.Equal(t, auction.Snapshot{}, second)

	// Reset always re-announces, also when already idle
	snaps := f.broadcaster.snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, auction.Snapshot{}, snaps[1])
	assert.Equal(t, auction.Snapshot{}, snaps[2])
}

func TestAuctionRound_EndToEnd(t *testing.T) {
	teamA := testTeam("A")
	f := newFixture(map[string]*roster.Team{"A": teamA})

	// Team A takes the lead, team B's lower counter is rejected
	accepted, _ := f.coordinator.ProposeBid(auction.BidProposal{Team: "A", Captain: "X", Amount: 100})
	require.True(t, accepted)
	accepted, snap := f.coordinator.ProposeBid(auction.BidProposal{Team: "B", Captain: "Y", Amount: 90})
	require.False(t, accepted)
	assert.Equal(t, auction.Snapshot{Bid: 100, Team: "A", Captain: "X"}, snap)

	// Closing sells the player to the leader
	playerID := uuid.New()
	_, err := f.coordinator.CloseBid(context.Background(), auction.CloseCommand{
		PlayerID: playerID,
		Gender:   roster.GenderMale,
	})
	require.NoError(t, err)

	require.Len(t, f.players.sales, 1)
	assert.Equal(t, teamA.ID, f.players.sales[0].teamID)
	assert.Equal(t, int64(100), f.players.sales[0].price)

	// The next round starts idle
	assert.Equal(t, auction.Snapshot{}, f.coordinator.Join(nil))
}
