package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rfialho/paddle/internal/domain/auction"
	"github.com/rfialho/paddle/internal/domain/roster"
)

// PostgresPlayerRepository implements roster.PlayerRepository and auction.PlayerStore
type PostgresPlayerRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPlayerRepository creates a new PostgreSQL player repository
func NewPostgresPlayerRepository(pool *pgxpool.Pool) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{pool: pool}
}

const playerColumns = "id, name, image, number, position, gender, is_star, is_sold, price, sold_to, created_at"

// CreatePlayer creates a new player
func (r *PostgresPlayerRepository) CreatePlayer(ctx context.Context, player *roster.Player) error {
	query := `
		INSERT INTO players (id, name, image, number, position, gender, is_star, is_sold, price, sold_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		player.ID,
		player.Name,
		player.Image,
		player.Number,
		player.Position,
		player.Gender,
		player.IsStar,
		player.IsSold,
		player.Price,
		player.SoldTo,
		player.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

// ListPlayers retrieves all players in one gender pool
func (r *PostgresPlayerRepository) ListPlayers(ctx context.Context, gender roster.Gender) ([]*roster.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE gender = $1 ORDER BY number ASC`
	return r.queryPlayers(ctx, query, gender)
}

// ListPlayersBySoldTo retrieves the players a team has bought
func (r *PostgresPlayerRepository) ListPlayersBySoldTo(ctx context.Context, teamID uuid.UUID, gender roster.Gender) ([]*roster.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE sold_to = $1 AND gender = $2 ORDER BY number ASC`
	return r.queryPlayers(ctx, query, teamID, gender)
}

// DeletePlayer removes a player from a gender pool
func (r *PostgresPlayerRepository) DeletePlayer(ctx context.Context, playerID uuid.UUID, gender roster.Gender) error {
	query := `DELETE FROM players WHERE id = $1 AND gender = $2`

	result, err := r.pool.Exec(ctx, query, playerID, gender)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}

	if result.RowsAffected() == 0 {
		return roster.ErrPlayerNotFound
	}
	return nil
}

// MarkSold sets the player's price, sold flag and owning team within a
// transaction. Exactly one row changes per successful close.
func (r *PostgresPlayerRepository) MarkSold(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, gender roster.Gender, teamID uuid.UUID, price int64) error {
	query := `
		UPDATE players
		SET price = $1, is_sold = TRUE, sold_to = $2
		WHERE id = $3 AND gender = $4
	`
	result, err := tx.Exec(ctx, query, price, teamID, playerID, gender)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	if result.RowsAffected() == 0 {
		return auction.ErrPlayerNotFound
	}
	return nil
}

// queryPlayers runs a multi-row player query
func (r *PostgresPlayerRepository) queryPlayers(ctx context.Context, query string, args ...any) ([]*roster.Player, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var result []*roster.Player
	for rows.Next() {
		var player roster.Player
		if err := rows.Scan(
			&player.ID,
			&player.Name,
			&player.Image,
			&player.Number,
			&player.Position,
			&player.Gender,
			&player.IsStar,
			&player.IsSold,
			&player.Price,
			&player.SoldTo,
			&player.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		result = append(result, &player)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}
	return result, nil
}
