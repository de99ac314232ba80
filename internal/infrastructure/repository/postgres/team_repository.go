package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/team-schedule/internal/domain/team"
	qb "github.com/riskibarqy/team-schedule/internal/platform/querybuilder"
)

const uniqueViolationCode = "23505"

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, data team.Data) error {
	if err := data.Team.Validate(); err != nil {
		return err
	}
	document, err := encodeDocument(data)
	if err != nil {
		return err
	}

	insertModel := teamInsertModel{
		PublicID:      data.Team.ID,
		Name:          data.Team.Name,
		Slug:          data.Team.Slug,
		AccessCode:    data.Team.AccessCode,
		PlayersNeeded: data.Team.PlayersNeeded,
		Document:      document,
		CreatedAt:     data.Team.CreatedAt,
	}
	query, args, err := qb.InsertModel("teams", insertModel, "ON CONFLICT (public_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert team query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", team.ErrTeamExists, data.Team.ID)
		}
		return fmt.Errorf("insert team: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected insert team: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", team.ErrTeamExists, data.Team.ID)
	}

	return nil
}

func (r *TeamRepository) Get(ctx context.Context, teamID string) (team.Data, bool, error) {
	query, args, err := selectTeamQuery(teamID, false)
	if err != nil {
		return team.Data{}, false, err
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Data{}, false, nil
		}
		return team.Data{}, false, fmt.Errorf("get team by public id: %w", err)
	}

	data, err := row.toDomain()
	if err != nil {
		return team.Data{}, false, err
	}
	return data, true, nil
}

// Update locks the team row for the duration of fn and writes the document back on success.
func (r *TeamRepository) Update(ctx context.Context, teamID string, fn team.UpdateFunc) (team.Data, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return team.Data{}, false, fmt.Errorf("begin tx update team: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := selectTeamQuery(teamID, true)
	if err != nil {
		return team.Data{}, false, err
	}

	var row teamTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Data{}, false, nil
		}
		return team.Data{}, false, fmt.Errorf("lock team row: %w", err)
	}

	data, err := row.toDomain()
	if err != nil {
		return team.Data{}, true, err
	}
	if err := fn(&data); err != nil {
		return team.Data{}, true, err
	}

	document, err := encodeDocument(data)
	if err != nil {
		return team.Data{}, true, err
	}
	updateQuery, updateArgs, err := qb.Update("teams").
		Set("name", data.Team.Name).
		Set("players_needed", data.Team.PlayersNeeded).
		Set("document", document).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", teamID)).
		ToSQL()
	if err != nil {
		return team.Data{}, true, fmt.Errorf("build update team query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
		return team.Data{}, true, fmt.Errorf("update team: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return team.Data{}, true, fmt.Errorf("commit update team tx: %w", err)
	}

	return data, true, nil
}

func selectTeamQuery(teamID string, forUpdate bool) (string, []any, error) {
	builder := qb.Select(
		"id", "public_id", "name", "slug", "access_code",
		"players_needed", "document", "created_at", "updated_at",
	).From("teams").
		Where(qb.Eq("public_id", teamID)).
		Limit(1)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build select team query: %w", err)
	}
	return query, args, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode
}
