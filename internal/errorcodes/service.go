package errorcodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecodanforum/backend/internal/models"
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// Search matches the query as a case-insensitive substring of the error code,
// title, cause or diagnosis text. An empty query lists everything for the
// selected unit type. No fuzzy matching.
func (s *Service) Search(ctx context.Context, query, unitType string, limit int) ([]models.ErrorCode, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	sql := `SELECT id, unit_type, model_name, error_code, title, possible_cause, diagnosis_and_action
	        FROM error_codes`
	var conds []string
	var args []interface{}

	if q := strings.TrimSpace(query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(error_code ILIKE $%d OR title ILIKE $%d OR possible_cause ILIKE $%d OR diagnosis_and_action ILIKE $%d)`,
			n, n, n, n))
	}
	if unitType != "" {
		if unitType != models.UnitIndoor && unitType != models.UnitOutdoor {
			return nil, fmt.Errorf("unknown unit type %q", unitType)
		}
		args = append(args, unitType)
		conds = append(conds, fmt.Sprintf("unit_type = $%d", len(args)))
	}

	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY error_code, unit_type LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search error codes: %w", err)
	}
	defer rows.Close()

	var codes []models.ErrorCode
	for rows.Next() {
		var ec models.ErrorCode
		if err := rows.Scan(&ec.ID, &ec.UnitType, &ec.ModelName, &ec.ErrorCode, &ec.Title, &ec.PossibleCause, &ec.DiagnosisAndAction); err != nil {
			return nil, fmt.Errorf("scan error code: %w", err)
		}
		codes = append(codes, ec)
	}
	return codes, rows.Err()
}
