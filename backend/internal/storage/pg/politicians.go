package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radake/polihub/shared/domain"
	internal_errors "github.com/radake/polihub/shared/errors"
)

func (s *Storage) SavePolitician(ctx context.Context, p domain.Politician) (domain.Politician, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	saved, err := scanPolitician(s.db.QueryRowContext(ctx, `
		INSERT INTO politicians (name, party, county, position)
		VALUES ($1, $2, $3, $4)
		RETURNING `+politicianColumns,
		p.Name, p.Party, p.County, p.Position,
	))
	if err != nil {
		return domain.Politician{}, fmt.Errorf("failed to insert politician: %w", err)
	}
	return saved, nil
}

func (s *Storage) UpdatePolitician(ctx context.Context, p domain.Politician) (domain.Politician, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	updated, err := scanPolitician(s.db.QueryRowContext(ctx, `
		UPDATE politicians
		SET name = $2, party = $3, county = $4, position = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+politicianColumns,
		p.Id, p.Name, p.Party, p.County, p.Position,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Politician{}, internal_errors.NotFound("Politician not found")
		}
		return domain.Politician{}, fmt.Errorf("failed to update politician: %w", err)
	}
	return updated, nil
}

func (s *Storage) DeletePolitician(ctx context.Context, id domain.PoliticianId) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, "DELETE FROM politicians WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete politician: %w", err)
	}
	return expectOneRow(result, "Politician not found")
}

func (s *Storage) Politicians(ctx context.Context) ([]domain.Politician, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT "+politicianColumns+" FROM politicians ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query politicians: %w", err)
	}
	defer rows.Close()

	result := []domain.Politician{}
	for rows.Next() {
		p, err := scanPolitician(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan politician: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating politicians: %w", err)
	}
	return result, nil
}

const politicianColumns = "id, name, party, county, position, created_at, updated_at"

func scanPolitician(row interface{ Scan(...any) error }) (domain.Politician, error) {
	var p domain.Politician
	err := row.Scan(&p.Id, &p.Name, &p.Party, &p.County, &p.Position, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
