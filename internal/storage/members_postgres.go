package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peteski22/clubsync/internal/members"
)

// DefaultMembersTable is the member table read when no other is configured.
const DefaultMembersTable = "members"

// memberColumns are read in this order and scanned into Record fields.
var memberColumns = []string{
	"email",
	"first_name",
	"last_name",
	"phone",
	"address",
	"city",
	"state",
	"zip_code",
	"membership_type",
	"status",
	"joined_date",
	"created_at",
}

// PostgresQuerier is the subset of pgxpool.Pool used by the member source.
type PostgresQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresMemberSource reads member records from the club's Postgres database.
type PostgresMemberSource struct {
	db    PostgresQuerier
	query string
}

// NewPostgresMemberSource creates a member source reading table through db.
func NewPostgresMemberSource(db PostgresQuerier, table string) (*PostgresMemberSource, error) {
	if db == nil {
		return nil, errors.New("postgres connection is required")
	}
	if table == "" {
		table = DefaultMembersTable
	}

	return &PostgresMemberSource{
		db:    db,
		query: membersQuery(table),
	}, nil
}

// OpenPostgresPool connects to databaseURL and verifies the connection.
func OpenPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is required")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return pool, nil
}

// Members returns every row with a non-empty email, in email order.
func (s *PostgresMemberSource) Members(ctx context.Context) ([]members.Record, error) {
	rows, err := s.db.Query(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (members.Record, error) {
		var r members.Record
		err := row.Scan(
			&r.Email,
			&r.FirstName,
			&r.LastName,
			&r.Phone,
			&r.Address,
			&r.City,
			&r.State,
			&r.ZipCode,
			&r.MembershipType,
			&r.Status,
			&r.JoinedDate,
			&r.CreatedAt,
		)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading members: %w", err)
	}

	return records, nil
}

// membersQuery selects every member column as text so any column type maps onto Record.
func membersQuery(table string) string {
	selects := make([]string, len(memberColumns))
	for i, col := range memberColumns {
		ident := pgx.Identifier{col}.Sanitize()
		selects[i] = fmt.Sprintf("COALESCE(%s::text, '')", ident)
	}

	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE email IS NOT NULL AND email <> '' ORDER BY email",
		strings.Join(selects, ", "),
		tableIdentifier(table).Sanitize(),
	)
}

// tableIdentifier splits an optionally schema-qualified table name.
func tableIdentifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}
