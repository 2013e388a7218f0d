package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/pawtrack/internal/errs"
	"github.com/eleven-am/pawtrack/internal/logger"
)

// PostgresGate answers pet-access questions from the pet_access table
// maintained by the (out-of-scope) ownership subsystem. A pet with no
// rows at all has no owner restriction.
type PostgresGate struct {
	db  *sqlx.DB
	log logger.Logger
}

func NewPostgresGate(db *sqlx.DB) *PostgresGate {
	return &PostgresGate{db: db, log: logger.Store()}
}

func (g *PostgresGate) HasAccess(ctx context.Context, petID, userID string) (bool, error) {
	return g.query(ctx, petID, userID)
}

func (g *PostgresGate) IsCoOwnerVisible(ctx context.Context, petID, userID string) (bool, error) {
	return g.query(ctx, petID, userID)
}

// query answers membership in a single round-trip. bool_or is NULL when
// the pet has no access rows at all, which COALESCE turns into the
// unrestricted-pet answer. The calendar aggregator hits this per item,
// so the extra COUNT a two-step check would need is not free.
func (g *PostgresGate) query(ctx context.Context, petID, userID string) (bool, error) {
	query, args, err := psql.Select().
		Column(sq.Expr("COALESCE(bool_or(user_id = ?), TRUE)", userID)).
		From("pet_access").
		Where(sq.Eq{"pet_id": petID}).
		ToSql()
	if err != nil {
		return false, errs.FromPostgres(err, "pet_access", "pet")
	}

	var allowed bool
	if err := g.db.GetContext(ctx, &allowed, query, args...); err != nil {
		return false, errs.FromPostgres(err, "pet_access", "pet")
	}
	g.log.Debugf("pet %s visibility for %s: %t", petID, userID, allowed)
	return allowed, nil
}

var _ PetAccessGate = (*PostgresGate)(nil)
