package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"smartsacco/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	memberSelect = `SELECT member_id, first_name, last_name, email, total_savings, credit_score,
		guarantor_count, COALESCE(guarantor_avg_credit_score, 0), has_defaulted_before
		FROM members`
	maxSearchResults = 100
)

type PostgresConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// NewPostgresPool opens a pgx pool and verifies it with a ping.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// RunMigrations applies the member schema migrations.
func RunMigrations(logger *zap.Logger, dsn string) error {
	d, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, "pgx5://"+strings.TrimPrefix(strings.TrimPrefix(dsn, "postgres://"), "postgresql://"))
	if err != nil {
		return err
	}
	defer func(m *migrate.Migrate) {
		_, _ = m.Close()
	}(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	logger.Info("database migrations applied")
	return nil
}

// querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresMemberRepository struct {
	db querier
}

func NewPostgresMemberRepository(db querier) *PostgresMemberRepository {
	return &PostgresMemberRepository{db: db}
}

func scanMember(row pgx.Row) (domain.Member, error) {
	var m domain.Member
	err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email,
		&m.Snapshot.TotalSavings, &m.Snapshot.CreditScore, &m.Snapshot.GuarantorCount,
		&m.Snapshot.GuarantorAvgCreditScore, &m.Snapshot.HasDefaultedBefore)
	return m, err
}

func (r *PostgresMemberRepository) FindByID(ctx context.Context, id string) (domain.Member, error) {
	m, err := scanMember(r.db.QueryRow(ctx, memberSelect+` WHERE member_id = $1`, strings.TrimSpace(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Member{}, memberNotFound(id)
	}
	if err != nil {
		return domain.Member{}, domain.NewAppError(domain.ErrServerCode, "member lookup failed", err)
	}
	return m, nil
}

// Search returns at most maxSearchResults matches ordered by member id.
func (r *PostgresMemberRepository) Search(ctx context.Context, query string) ([]domain.Member, error) {
	q, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	pattern := "%" + escapeLike(q) + "%"
	rows, err := r.db.Query(ctx, memberSelect+`
		WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR member_id LIKE $1
		ORDER BY member_id
		LIMIT $2`, pattern, maxSearchResults)
	if err != nil {
		return nil, domain.NewAppError(domain.ErrServerCode, "member search failed", err)
	}
	defer rows.Close()

	out := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, domain.NewAppError(domain.ErrServerCode, "member search failed", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewAppError(domain.ErrServerCode, "member search failed", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
