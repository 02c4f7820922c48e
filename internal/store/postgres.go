package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/polisee/polisee-cli/internal/db"
	"github.com/polisee/polisee-cli/internal/model"
)

// defaultInsertBatch bounds how many inserts go into one batched round trip.
// Purely a request-size concern; atomicity comes from the transaction.
const defaultInsertBatch = 50

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool        db.Pool
	insertBatch int
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, insertBatch int) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return NewPostgresWithPool(pool, insertBatch), nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool, insertBatch int) *PostgresStore {
	if insertBatch <= 0 {
		insertBatch = defaultInsertBatch
	}
	return &PostgresStore{pool: pool, insertBatch: insertBatch}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS insurance_policies (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id             TEXT NOT NULL,
	upload_batch_id     TEXT NOT NULL,
	category            TEXT NOT NULL DEFAULT '',
	identity_number     TEXT NOT NULL DEFAULT '',
	main_branch         TEXT NOT NULL DEFAULT '',
	sub_branch          TEXT NOT NULL DEFAULT '',
	product_type        TEXT NOT NULL DEFAULT '',
	company             TEXT NOT NULL DEFAULT '',
	coverage_period     TEXT NOT NULL DEFAULT '',
	additional_details  TEXT NOT NULL DEFAULT '',
	premium_nis         DOUBLE PRECISION,
	premium_type        TEXT NOT NULL DEFAULT '',
	policy_number       TEXT NOT NULL DEFAULT '',
	plan_classification TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_policies_user ON insurance_policies(user_id);
CREATE INDEX IF NOT EXISTS idx_policies_user_batch ON insurance_policies(user_id, upload_batch_id);
`

const insertPolicySQL = `
INSERT INTO insurance_policies (
	id, user_id, upload_batch_id, category, identity_number,
	main_branch, sub_branch, product_type, company, coverage_period,
	additional_details, premium_nis, premium_type, policy_number,
	plan_classification, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ReplacePolicies(ctx context.Context, userID string, policies []model.Policy) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin replace")
	}
	defer tx.Rollback(ctx)

	// Delete and insert share one transaction so readers never see the
	// empty-state window between them.
	if _, err := tx.Exec(ctx,
		`DELETE FROM insurance_policies WHERE user_id = $1`, userID,
	); err != nil {
		return 0, eris.Wrapf(err, "postgres: delete policies for %s", userID)
	}

	now := time.Now().UTC()
	for start := 0; start < len(policies); start += s.insertBatch {
		end := start + s.insertBatch
		if end > len(policies) {
			end = len(policies)
		}

		batch := &pgx.Batch{}
		for _, p := range policies[start:end] {
			id := p.ID
			if id == "" {
				id = uuid.New().String()
			}
			batch.Queue(insertPolicySQL,
				id, userID, p.BatchID, p.Category, p.IdentityNumber,
				p.MainBranch, p.SubBranch, p.ProductType, p.Company, p.CoveragePeriod,
				p.AdditionalDetails, nullFloat(p.PremiumNIS), p.PremiumType, p.PolicyNumber,
				p.PlanClassification, now,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return 0, eris.Wrap(err, "postgres: insert policy batch")
			}
		}
		if err := br.Close(); err != nil {
			return 0, eris.Wrap(err, "postgres: close policy batch")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit replace")
	}
	return len(policies), nil
}

func (s *PostgresStore) ListPolicies(ctx context.Context, userID string) ([]model.Policy, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, upload_batch_id, category, identity_number,
		       main_branch, sub_branch, product_type, company, coverage_period,
		       additional_details, premium_nis, premium_type, policy_number,
		       plan_classification, created_at
		FROM insurance_policies
		WHERE user_id = $1
		ORDER BY category, company, main_branch`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list policies")
	}
	defer rows.Close()

	var policies []model.Policy
	for rows.Next() {
		var p model.Policy
		var premium sql.NullFloat64
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.BatchID, &p.Category, &p.IdentityNumber,
			&p.MainBranch, &p.SubBranch, &p.ProductType, &p.Company, &p.CoveragePeriod,
			&p.AdditionalDetails, &premium, &p.PremiumType, &p.PolicyNumber,
			&p.PlanClassification, &p.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan policy")
		}
		if premium.Valid {
			v := premium.Float64
			p.PremiumNIS = &v
		}
		policies = append(policies, p)
	}
	return policies, eris.Wrap(rows.Err(), "postgres: list policies iterate")
}

func (s *PostgresStore) DeletePolicies(ctx context.Context, userID string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM insurance_policies WHERE user_id = $1`, userID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: delete policies for %s", userID)
	}
	return int(tag.RowsAffected()), nil
}
