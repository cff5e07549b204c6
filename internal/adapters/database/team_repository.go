package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rfialho/paddle/internal/domain/auction"
	"github.com/rfialho/paddle/internal/domain/roster"
	pkgdb "github.com/rfialho/paddle/pkg/database"
)

// PostgresTeamRepository implements roster.TeamRepository and auction.TeamStore
type PostgresTeamRepository struct {
	pool *pgxpool.Pool // Keep pool for non-transactional reads
}

// NewPostgresTeamRepository creates a new PostgreSQL team repository
func NewPostgresTeamRepository(pool *pgxpool.Pool) *PostgresTeamRepository {
	return &PostgresTeamRepository{pool: pool}
}

const teamColumns = "id, name, captain, captain_image, email, gender, type, balance, created_at"

// CreateTeam creates a new team
func (r *PostgresTeamRepository) CreateTeam(ctx context.Context, team *roster.Team) error {
	query := `
		INSERT INTO teams (id, name, captain, captain_image, email, gender, type, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		team.ID,
		team.Name,
		team.Captain,
		team.CaptainImage,
		team.Email,
		team.Gender,
		team.Type,
		team.Balance,
		team.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

// ListTeams retrieves all teams
func (r *PostgresTeamRepository) ListTeams(ctx context.Context) ([]*roster.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var result []*roster.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		result = append(result, team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}
	return result, nil
}

// GetTeamByID retrieves a team by its ID
func (r *PostgresTeamRepository) GetTeamByID(ctx context.Context, teamID uuid.UUID) (*roster.Team, error) {
	return r.getTeam(ctx, r.pool, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, teamID)
}

// GetTeamByName resolves a team by its unique name
func (r *PostgresTeamRepository) GetTeamByName(ctx context.Context, name string) (*roster.Team, error) {
	return r.getTeam(ctx, r.pool, `SELECT `+teamColumns+` FROM teams WHERE name = $1`, name)
}

// getTeam is the internal single-row lookup that works with any DBTX
func (r *PostgresTeamRepository) getTeam(ctx context.Context, db pkgdb.DBTX, query string, arg any) (*roster.Team, error) {
	team, err := scanTeam(db.QueryRow(ctx, query, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, auction.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// DebitBalance decrements a team's balance within a transaction. No
// sufficiency check: the balance is allowed to go negative.
func (r *PostgresTeamRepository) DebitBalance(ctx context.Context, tx pgx.Tx, teamID uuid.UUID, amount int64) error {
	query := `
		UPDATE teams
		SET balance = balance - $1
		WHERE id = $2
	`
	result, err := tx.Exec(ctx, query, amount, teamID)
	if err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return auction.ErrTeamNotFound
	}
	return nil
}

// scanTeam scans one team row
func scanTeam(row pgx.Row) (*roster.Team, error) {
	var team roster.Team
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Captain,
		&team.CaptainImage,
		&team.Email,
		&team.Gender,
		&team.Type,
		&team.Balance,
		&team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &team, nil
}
