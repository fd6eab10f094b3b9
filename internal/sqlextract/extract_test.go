package sqlextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/askerrors"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "sql fenced block with trailing prose",
			raw:  "```sql\nSELECT 1;\n```\nExplanation...",
			want: "SELECT 1;",
		},
		{
			name:    "refusal text fails",
			raw:     "I cannot answer.",
			wantErr: true,
		},
		{
			name: "bare statement",
			raw:  "SELECT COUNT(*) FROM users WHERE status='active';",
			want: "SELECT COUNT(*) FROM users WHERE status='active';",
		},
		{
			name: "bare statement without terminator",
			raw:  "SELECT name FROM users",
			want: "SELECT name FROM users",
		},
		{
			name: "untagged fence",
			raw:  "Here you go:\n```\nSELECT id FROM orders;\n```",
			want: "SELECT id FROM orders;",
		},
		{
			name: "sql fence preferred over untagged fence",
			raw:  "```\nnot sql\n```\n```sql\nSELECT 2;\n```",
			want: "SELECT 2;",
		},
		{
			name: "only first statement kept",
			raw:  "SELECT 1; DROP TABLE users;",
			want: "SELECT 1;",
		},
		{
			name: "multiple statements inside fence",
			raw:  "```sql\nSELECT a FROM t;\nSELECT b FROM t;\n```",
			want: "SELECT a FROM t;",
		},
		{
			name: "case-insensitive fence tag and keyword",
			raw:  "```SQL\nselect 1;\n```",
			want: "select 1;",
		},
		{
			name: "with clause",
			raw:  "WITH c AS (SELECT 1) SELECT * FROM c;",
			want: "WITH c AS (SELECT 1) SELECT * FROM c;",
		},
		{
			name: "show statement",
			raw:  "SHOW TABLES;",
			want: "SHOW TABLES;",
		},
		{
			name: "surrounding whitespace stripped",
			raw:  "   \n SELECT 1;  \n",
			want: "SELECT 1;",
		},
		{
			name:    "empty output fails",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "fenced prose fails",
			raw:     "```sql\n-- nothing to see\n```",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, askerrors.ErrExtractionFailed)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
