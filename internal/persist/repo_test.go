package persist

import (
	"regexp"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityRowsKeepFullIDRange(t *testing.T) {
	ents := []EntityRecord{
		{Index: 7, Generation: 1<<31 + 5, Enabled: true},
		{Index: 1<<32 - 1, Generation: 1<<32 - 1, Components: []ComponentRecord{
			{Name: "script", Payload: json.RawMessage(`{"handler":"walk"}`)},
		}},
	}
	rows, err := entityRows(11, ents)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []any{int64(11), int64(7), int64(2147483653), true, "[]"}, rows[0])
	assert.Equal(t, int64(4294967295), rows[1][1])
	assert.Equal(t, int64(4294967295), rows[1][2])
	assert.JSONEq(t, `[{"name":"script","payload":{"handler":"walk"}}]`, rows[1][4].(string))
}

func TestSnapshotSchemaStoresIDsAsBigint(t *testing.T) {
	sql, err := migrations.ReadFile("migrations/00001_world_snapshots.sql")
	require.NoError(t, err)
	for _, col := range []string{"entity_index", "generation"} {
		assert.Regexp(t, regexp.MustCompile(`(?m)^\s*`+col+`\s+BIGINT\b`), string(sql))
	}
}
