package sqlite

import (
	"context"
)

type scopesRepo struct {
	db dbtx
}

func (r *scopesRepo) GetUserScopes(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT scope FROM user_scopes
		WHERE user_id = ?
		ORDER BY scope`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		scopes = append(scopes, s)
	}
	return scopes, rows.Err()
}

func (r *scopesRepo) GrantScopes(ctx context.Context, userID string, scopes []string) error {
	for _, scope := range scopes {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO user_scopes (user_id, scope)
			VALUES (?, ?)
			ON CONFLICT (user_id, scope) DO NOTHING`, userID, scope)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *scopesRepo) RevokeScope(ctx context.Context, userID, scope string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM user_scopes WHERE user_id = ? AND scope = ?`, userID, scope)
	return err
}
