package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/polisee/polisee-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS insurance_policies (
	id                  TEXT PRIMARY KEY,
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
	premium_nis         REAL,
	premium_type        TEXT NOT NULL DEFAULT '',
	policy_number       TEXT NOT NULL DEFAULT '',
	plan_classification TEXT NOT NULL DEFAULT '',
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_policies_user ON insurance_policies(user_id);
CREATE INDEX IF NOT EXISTS idx_policies_user_batch ON insurance_policies(user_id, upload_batch_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplacePolicies(ctx context.Context, userID string, policies []model.Policy) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin replace")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM insurance_policies WHERE user_id = ?`, userID,
	); err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete policies for %s", userID)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO insurance_policies (
			id, user_id, upload_batch_id, category, identity_number,
			main_branch, sub_branch, product_type, company, coverage_period,
			additional_details, premium_nis, premium_type, policy_number,
			plan_classification, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range policies {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx,
			id, userID, p.BatchID, p.Category, p.IdentityNumber,
			p.MainBranch, p.SubBranch, p.ProductType, p.Company, p.CoveragePeriod,
			p.AdditionalDetails, nullFloat(p.PremiumNIS), p.PremiumType, p.PolicyNumber,
			p.PlanClassification, now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert policy %s", p.PolicyNumber)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit replace")
	}
	return len(policies), nil
}

func (s *SQLiteStore) ListPolicies(ctx context.Context, userID string) ([]model.Policy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, upload_batch_id, category, identity_number,
		       main_branch, sub_branch, product_type, company, coverage_period,
		       additional_details, premium_nis, premium_type, policy_number,
		       plan_classification, created_at
		FROM insurance_policies
		WHERE user_id = ?
		ORDER BY category, company, main_branch`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list policies")
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
			return nil, eris.Wrap(err, "sqlite: scan policy")
		}
		if premium.Valid {
			v := premium.Float64
			p.PremiumNIS = &v
		}
		policies = append(policies, p)
	}
	return policies, eris.Wrap(rows.Err(), "sqlite: list policies iterate")
}

func (s *SQLiteStore) DeletePolicies(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM insurance_policies WHERE user_id = ?`, userID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete policies for %s", userID)
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
