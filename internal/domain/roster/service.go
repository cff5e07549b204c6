package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service errors
var (
	ErrMissingFields   = fmt.Errorf("missing required fields")
	ErrInvalidGender   = fmt.Errorf("gender must be \"male\" or \"female\"")
	ErrInvalidPosition = fmt.Errorf("invalid field position")
	ErrInvalidNumber   = fmt.Errorf("player number must be positive")
	ErrPlayerNotFound  = fmt.Errorf("player not found")
)

// CreateTeamCommand represents the command to register a new team
type CreateTeamCommand struct {
	Name         string
	Captain      string
	CaptainImage string
	Email        string
	Gender       Gender
}

// CreatePlayerCommand represents the command to add a draftable player
type CreatePlayerCommand struct {
	Name     string
	Image    string
	Number   int
	Position Position
	Gender   Gender
	IsStar   bool
}

// Service implements the roster business logic
type Service struct {
	teams   TeamRepository
	players PlayerRepository
}

// NewService creates a new roster service
func NewService(teams TeamRepository, players PlayerRepository) *Service {
	return &Service{teams: teams, players: players}
}

// CreateTeam registers a new team with the default starting balance
func (s *Service) CreateTeam(ctx context.Context, cmd CreateTeamCommand) (*Team, error) {
	if cmd.Name == "" || cmd.Captain == "" || cmd.CaptainImage == "" || cmd.Email == "" {
		return nil, ErrMissingFields
	}
	if !cmd.Gender.IsValid() {
		return nil, ErrInvalidGender
	}

	team := &Team{
		ID:           uuid.New(),
		Name:         cmd.Name,
		Captain:      cmd.Captain,
		CaptainImage: cmd.CaptainImage,
		Email:        cmd.Email,
		Gender:       cmd.Gender,
		Type:         TeamTypeTeam,
		Balance:      DefaultBalance,
		CreatedAt:    time.Now(),
	}

	if err := s.teams.CreateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return team, nil
}

// ListTeams retrieves all teams, each hydrated with the players it has bought
func (s *Service) ListTeams(ctx context.Context) ([]*TeamRoster, error) {
	teams, err := s.teams.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	rosters := make([]*TeamRoster, 0, len(teams))
	for _, team := range teams {
		players, err := s.players.ListPlayersBySoldTo(ctx, team.ID, team.Gender)
		if err != nil {
			return nil, fmt.Errorf("failed to list players for team %s: %w", team.ID, err)
		}
		rosters = append(rosters, &TeamRoster{Team: *team, Players: players})
	}

	return rosters, nil
}

// CreatePlayer adds a new draftable player to a gender pool
func (s *Service) CreatePlayer(ctx context.Context, cmd CreatePlayerCommand) (*Player, error) {
	if cmd.Name == "" || cmd.Image == "" {
		return nil, ErrMissingFields
	}
	if !cmd.Gender.IsValid() {
		return nil, ErrInvalidGender
	}
	if !cmd.Position.IsValid() {
		return nil, ErrInvalidPosition
	}
	if cmd.Number <= 0 {
		return nil, ErrInvalidNumber
	}

	player := &Player{
		ID:        uuid.New(),
		Name:      cmd.Name,
		Image:     cmd.Image,
		Number:    cmd.Number,
		Position:  cmd.Position,
		Gender:    cmd.Gender,
		IsStar:    cmd.IsStar,
		IsSold:    false,
		CreatedAt: time.Now(),
	}

	if err := s.players.CreatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

// ListPlayers retrieves all players in one gender pool
func (s *Service) ListPlayers(ctx context.Context, gender Gender) ([]*Player, error) {
	if !gender.IsValid() {
		return nil, ErrInvalidGender
	}

	players, err := s.players.ListPlayers(ctx, gender)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

// DeletePlayer removes a player from a gender pool
func (s *Service) DeletePlayer(ctx context.Context, playerID uuid.UUID, gender Gender) error {
	if !gender.IsValid() {
		return ErrInvalidGender
	}
	return s.players.DeletePlayer(ctx, playerID, gender)
}
