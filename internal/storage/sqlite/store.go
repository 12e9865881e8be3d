// Package sqlite provides SQLite-backed persistence for bundle configuration.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/rules"
	"github.com/Daakon/stone-caster-2-sub004/internal/platform/storage/sqlitemigrate"
	"github.com/Daakon/stone-caster-2-sub004/internal/storage"
	"github.com/Daakon/stone-caster-2-sub004/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for bundle configuration records.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutRuleset inserts or replaces a ruleset record. Marking a record active
// deactivates every other ruleset in the same transaction.
func (s *Store) PutRuleset(ctx context.Context, record storage.RulesetRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("ruleset id is required")
	}
	rulesJSON, err := encodeRules(record.Rules)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put ruleset: %w", err)
	}

	if record.Active {
		if _, err := tx.ExecContext(ctx, "UPDATE rulesets SET active = 0 WHERE id != ?", record.ID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("deactivate rulesets: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO rulesets (id, name, version, active, rules_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    version = excluded.version,
    active = excluded.active,
    rules_json = excluded.rules_json,
    updated_at = excluded.updated_at`,
		record.ID,
		record.Name,
		record.Version,
		boolToInt(record.Active),
		rulesJSON,
		toMillis(createdAt),
		toMillis(updatedAt),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("put ruleset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put ruleset: %w", err)
	}
	return nil
}

// GetRuleset returns a ruleset record by id.
func (s *Store) GetRuleset(ctx context.Context, id string) (storage.RulesetRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, version, active, rules_json, created_at, updated_at
FROM rulesets WHERE id = ?`, id)
	return scanRulesetRow(row)
}

// GetActiveRuleset returns the currently active ruleset record.
func (s *Store) GetActiveRuleset(ctx context.Context) (storage.RulesetRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, version, active, rules_json, created_at, updated_at
FROM rulesets WHERE active = 1 ORDER BY updated_at DESC LIMIT 1`)
	return scanRulesetRow(row)
}

// ListRulesets returns every ruleset record ordered by id.
func (s *Store) ListRulesets(ctx context.Context) ([]storage.RulesetRecord, error) {
	dbRows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, version, active, rules_json, created_at, updated_at
FROM rulesets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rulesets: %w", err)
	}
	defer dbRows.Close()

	var records []storage.RulesetRecord
	for dbRows.Next() {
		record, err := scanRuleset(dbRows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rulesets: %w", err)
	}
	return records, nil
}

// PutLocalePack inserts or replaces a locale pack record.
func (s *Store) PutLocalePack(ctx context.Context, record storage.LocalePackRecord) error {
	if strings.TrimSpace(record.DocType) == "" || strings.TrimSpace(record.DocID) == "" {
		return fmt.Errorf("locale pack doc type and doc id are required")
	}
	if strings.TrimSpace(record.Locale) == "" {
		return fmt.Errorf("locale pack locale is required")
	}
	payloadJSON, err := encodePayload(record.Payload)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO locale_packs (doc_type, doc_id, locale, payload_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(doc_type, doc_id, locale) DO UPDATE SET
    payload_json = excluded.payload_json,
    updated_at = excluded.updated_at`,
		record.DocType,
		record.DocID,
		record.Locale,
		payloadJSON,
		toMillis(createdAt),
		toMillis(updatedAt),
	); err != nil {
		return fmt.Errorf("put locale pack: %w", err)
	}
	return nil
}

// GetLocalePack returns the locale pack for a document and locale.
func (s *Store) GetLocalePack(ctx context.Context, docType, docID, locale string) (storage.LocalePackRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT doc_type, doc_id, locale, payload_json, created_at, updated_at
FROM locale_packs WHERE doc_type = ? AND doc_id = ? AND locale = ?`, docType, docID, locale)

	var (
		record      storage.LocalePackRecord
		payloadJSON string
		createdAt   int64
		updatedAt   int64
	)
	if err := row.Scan(&record.DocType, &record.DocID, &record.Locale, &payloadJSON, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return storage.LocalePackRecord{}, storage.ErrNotFound
		}
		return storage.LocalePackRecord{}, fmt.Errorf("scan locale pack: %w", err)
	}

	payload, err := decodePayload(payloadJSON)
	if err != nil {
		return storage.LocalePackRecord{}, err
	}
	record.Payload = payload
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanRulesetRow(row *sql.Row) (storage.RulesetRecord, error) {
	return scanRuleset(row.Scan)
}

func scanRuleset(scan func(...any) error) (storage.RulesetRecord, error) {
	var (
		record    storage.RulesetRecord
		active    int
		rulesJSON string
		createdAt int64
		updatedAt int64
	)
	if err := scan(&record.ID, &record.Name, &record.Version, &active, &rulesJSON, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return storage.RulesetRecord{}, storage.ErrNotFound
		}
		return storage.RulesetRecord{}, fmt.Errorf("scan ruleset: %w", err)
	}

	ruleList, err := decodeRules(rulesJSON)
	if err != nil {
		return storage.RulesetRecord{}, err
	}
	record.Active = active != 0
	record.Rules = ruleList
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func encodeRules(ruleList []rules.Rule) (string, error) {
	if len(ruleList) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(ruleList)
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}
	return string(encoded), nil
}

func decodeRules(value string) ([]rules.Rule, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var ruleList []rules.Rule
	if err := json.Unmarshal([]byte(value), &ruleList); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	return ruleList, nil
}

func encodePayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(encoded), nil
}

func decodePayload(value string) (map[string]any, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(value), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return payload, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
