package affinity

import (
	"context"
	"fmt"

	"crappybird/pkg/surreal"
)

// Querier is the slice of the SurrealDB client the backend needs.
type Querier interface {
	Query(ctx context.Context, sql string, vars map[string]interface{}) (interface{}, error)
}

// SurrealBackend keeps the score in a single bird_state record.
type SurrealBackend struct {
	db    Querier
	table string
}

func NewSurrealBackend(db Querier, table string) (*SurrealBackend, error) {
	if table == "" {
		table = "bird_state"
	}
	if err := surreal.ValidateIdentifier(table); err != nil {
		return nil, err
	}
	return &SurrealBackend{db: db, table: table}, nil
}

func (s *SurrealBackend) Name() string { return "surreal" }

// Init defines the state table if it is missing.
func (s *SurrealBackend) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
		DEFINE TABLE IF NOT EXISTS %[1]s SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS value ON %[1]s TYPE string;
		DEFINE FIELD IF NOT EXISTS last_updated ON %[1]s TYPE int;
	`, s.table)
	_, err := s.db.Query(ctx, query, map[string]interface{}{})
	return err
}

func (s *SurrealBackend) Load(ctx context.Context) (string, error) {
	query := `SELECT value FROM type::thing($table, $key);`
	result, err := s.db.Query(ctx, query, map[string]interface{}{
		"table": s.table,
		"key":   Key,
	})
	if err != nil {
		return "", err
	}

	rows, ok := result.([]interface{})
	if !ok || len(rows) == 0 {
		return "", ErrNotFound
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected row type: %T", rows[0])
	}
	value, ok := row["value"].(string)
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *SurrealBackend) Save(ctx context.Context, value string) error {
	query := `
		INSERT INTO ` + s.table + ` (id, value, last_updated)
		VALUES (type::thing($table, $key), $value, time::unix())
		ON DUPLICATE KEY UPDATE value = $value, last_updated = time::unix();
	`
	_, err := s.db.Query(ctx, query, map[string]interface{}{
		"table": s.table,
		"key":   Key,
		"value": value,
	})
	return err
}
