package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"TABLE", FormatTable, false},
		{" json ", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	rows := []row{{1, "강남 맛집"}, {22, "x"}}

	err := New(FormatTable, &buf).Render(rows, func(tb *Table) {
		tb.Row("ID", "NAME")
		for _, r := range rows {
			tb.Row(r.ID, r.Name)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "ID  NAME\n1   강남 맛집\n22  x\n", buf.String())
}

func TestRender_JSONKeepsHangulAndAmpersand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatJSON, &buf).Render(row{1, "김밥 & 라면"}, nil))
	assert.JSONEq(t, `{"id":1,"name":"김밥 & 라면"}`, buf.String())
	assert.Contains(t, buf.String(), "&")
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatYAML, &buf).Render([]row{{1, "a"}}, nil))
	assert.Equal(t, "- id: 1\n  name: a\n", buf.String())
}

func TestMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatTable, &buf).Message("done"))
	assert.Equal(t, "done\n", buf.String())

	buf.Reset()
	require.NoError(t, New(FormatJSON, &buf).Message("done"))
	assert.JSONEq(t, `{"message":"done"}`, buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "가나…", Truncate("가나다라", 3))
	assert.Equal(t, "…", Truncate("abc", 1))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestRender_YAMLUsesJSONNames(t *testing.T) {
	type status string
	v := struct {
		AverageRating *float64 `json:"averageRating"`
		Status        status   `json:"status"`
		Code          string   `json:"code"`
	}{Status: "모집중", Code: "007"}

	var buf bytes.Buffer
	require.NoError(t, New(FormatYAML, &buf).Render(v, nil))
	assert.Equal(t, "averageRating: null\nstatus: 모집중\ncode: \"007\"\n", buf.String())
}
