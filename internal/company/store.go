// Package company stores the startup profile that is injected into every
// agent task.
package company

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"engram/internal/db"
)

// Fields lists the profile keys in display order.
var Fields = []string{
	"company_name",
	"tagline",
	"industry",
	"stage",
	"product_description",
	"target_customers",
	"team_size",
	"key_differentiators",
	"competitors",
	"revenue_model",
}

var labels = map[string]string{
	"company_name":        "Company",
	"tagline":             "Tagline",
	"industry":            "Industry",
	"stage":               "Stage",
	"product_description": "Product",
	"target_customers":    "Target Customers",
	"team_size":           "Team Size",
	"key_differentiators": "Key Differentiators",
	"competitors":         "Key Competitors",
	"revenue_model":       "Revenue Model",
}

// Profile maps every field in Fields to its value; unset fields are "".
type Profile map[string]string

func emptyProfile() Profile {
	p := make(Profile, len(Fields))
	for _, f := range Fields {
		p[f] = ""
	}
	return p
}

// Store persists the profile as key-value rows.
type Store struct {
	db *db.DB
}

func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Load returns the stored profile with every known field present.
func (s *Store) Load(ctx context.Context) (Profile, error) {
	rows, err := s.db.Conn().QueryContext(ctx, "SELECT field, value FROM company_profile")
	if err != nil {
		return nil, fmt.Errorf("company: load: %w", err)
	}
	defer rows.Close()

	p := emptyProfile()
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("company: scan: %w", err)
		}
		if _, known := labels[field]; known {
			p[field] = value
		}
	}
	return p, rows.Err()
}

// Save merges the known fields of update into the stored profile and returns
// the result. Unknown keys are ignored.
func (s *Store) Save(ctx context.Context, update map[string]string) (Profile, error) {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("company: begin: %w", err)
	}
	defer tx.Rollback()

	for field, value := range update {
		if _, known := labels[field]; !known {
			continue
		}
		if err := upsert(ctx, tx, field, value); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("company: commit: %w", err)
	}
	return s.Load(ctx)
}

func upsert(ctx context.Context, tx *sql.Tx, field, value string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO company_profile (field, value) VALUES (?, ?)
		ON CONFLICT(field) DO UPDATE SET value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		field, value)
	if err != nil {
		return fmt.Errorf("company: save %s: %w", field, err)
	}
	return nil
}

// LoadContext returns the formatted context block for the stored profile.
func (s *Store) LoadContext(ctx context.Context) (string, error) {
	p, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	return FormatContext(p), nil
}

// FormatContext renders the non-empty fields as a labelled block, or "" when
// nothing is set.
func FormatContext(p Profile) string {
	var lines []string
	for _, f := range Fields {
		if v := strings.TrimSpace(p[f]); v != "" {
			lines = append(lines, labels[f]+": "+v)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "=== YOUR STARTUP CONTEXT ===\n" +
		strings.Join(lines, "\n") +
		"\n=== USE THIS CONTEXT IN EVERY RESPONSE ===\n"
}
