package company

import (
	"context"
	"path/filepath"
	"testing"

	"engram/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "engram.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.Migrate(context.Background()))
	return NewStore(d)
}

func TestStoreLoadEmpty(t *testing.T) {
	s := newStore(t)

	p, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, p, len(Fields))
	for _, f := range Fields {
		assert.Equal(t, "", p[f])
	}

	text, err := s.LoadContext(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestStoreSaveMerges(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, map[string]string{"company_name": "Acme", "stage": "seed"})
	require.NoError(t, err)

	p, err := s.Save(ctx, map[string]string{"stage": "series A", "favourite_color": "blue"})
	require.NoError(t, err)

	assert.Equal(t, "Acme", p["company_name"])
	assert.Equal(t, "series A", p["stage"])
	_, ok := p["favourite_color"]
	assert.False(t, ok)
}

func TestFormatContext(t *testing.T) {
	got := FormatContext(Profile{
		"company_name": "Acme",
		"competitors":  "Globex",
		"tagline":      "   ",
		"industry":     "Logistics",
	})

	assert.Equal(t, "=== YOUR STARTUP CONTEXT ===\n"+
		"Company: Acme\n"+
		"Industry: Logistics\n"+
		"Key Competitors: Globex\n"+
		"=== USE THIS CONTEXT IN EVERY RESPONSE ===\n", got)

	assert.Empty(t, FormatContext(Profile{}))
}
