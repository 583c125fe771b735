package results

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, raw string) *ResultPayload {
	t.Helper()
	var payload ResultPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return &payload
}

func TestBuildView_EmptyStates(t *testing.T) {
	cases := []struct {
		name    string
		payload *ResultPayload
	}{
		{"nil payload", nil},
		{"nil output", &ResultPayload{}},
		{"decoded empty output", mustDecode(t, `{"output": {}}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			view := BuildView(tc.payload)
			assert.Equal(t, NoSolutionNotice, view.Notice)
			assert.Empty(t, view.Sections)
			assert.True(t, view.Empty())
		})
	}
}

func TestBuildView_SectionCountAndOrder(t *testing.T) {
	payload := mustDecode(t, `{"output": {
		"Zeta": {"a": [1, "u"]},
		"Alpha": {"b": [2, "u"]},
		"Mid": {"c": [3, "u"]}
	}}`)

	view := BuildView(payload)
	require.Len(t, view.Sections, 3)

	// Input mapping order, not sorted
	assert.Equal(t, "Zeta", view.Sections[0].Title)
	assert.Equal(t, "Alpha", view.Sections[1].Title)
	assert.Equal(t, "Mid", view.Sections[2].Title)
	assert.Empty(t, view.Notice)
}

func TestBuildView_FirstSectionFullWidth(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		sections := make([]Section, n)
		for i := range sections {
			sections[i] = Section{Name: "s"}
		}
		view := BuildView(&ResultPayload{Output: sections})

		require.Len(t, view.Sections, n)
		assert.True(t, view.Sections[0].FullWidth)
		for i := 1; i < n; i++ {
			assert.False(t, view.Sections[i].FullWidth, "section %d must be narrow", i)
		}
	}
}

func TestBuildView_PanelsAlwaysExpanded(t *testing.T) {
	view := BuildView(mustDecode(t, `{"output": {"A": {"x": [1, "u"]}, "B": {}}}`))
	for _, s := range view.Sections {
		assert.True(t, s.Expanded)
	}
}

func TestBuildView_RowContent(t *testing.T) {
	view := BuildView(mustDecode(t, `{"output": {"Levels": {
		"depth": [12.5, "m"],
		"label": ["overflow", ""]
	}}}`))

	require.Len(t, view.Sections, 1)
	rows := view.Sections[0].Rows
	require.Len(t, rows, 2)

	assert.Equal(t, "depth", rows[0].Name)
	assert.Equal(t, "12.5", rows[0].Value)
	assert.Equal(t, "m", rows[0].Unit)
	assert.Equal(t, "label", rows[1].Name)
	assert.Equal(t, "overflow", rows[1].Value)
}

func TestBuildView_DuplicateNamesGetDistinctKeys(t *testing.T) {
	payload := &ResultPayload{Output: []Section{
		{
			Name: "S",
			Fields: []Field{
				{Name: "flow_rate", Value: "1", Unit: "a"},
				{Name: "flow_rate", Value: "2", Unit: "b"},
			},
		},
		{Name: "S"},
	}}

	view := BuildView(payload)
	require.Len(t, view.Sections, 2)
	assert.NotEqual(t, view.Sections[0].Key, view.Sections[1].Key)

	rows := view.Sections[0].Rows
	require.Len(t, rows, 2)
	assert.NotEqual(t, rows[0].Key, rows[1].Key)
	assert.Equal(t, "1", rows[0].Value)
	assert.Equal(t, "2", rows[1].Value)
}

func TestBuildView_Deterministic(t *testing.T) {
	raw := `{"output": {"A": {"x": [1, "u"], "y": [2, "v"]}, "B": {"z": [3, "w"]}}}`

	first := BuildView(mustDecode(t, raw))
	second := BuildView(mustDecode(t, raw))

	assert.Equal(t, first, second)
}

func TestWriteFragment_Sections(t *testing.T) {
	view := BuildView(mustDecode(t, `{"output": {"Energy": {"sec": [3.1, "kWh/m3"]}, "Cost": {}}}`))

	var sb strings.Builder
	require.NoError(t, WriteFragment(&sb, view))
	html := sb.String()

	assert.Contains(t, html, "<summary>Energy</summary>")
	assert.Contains(t, html, "section-wide")
	assert.Contains(t, html, "section-narrow")
	assert.Contains(t, html, `<b class="field-value">3.1</b>`)
	assert.Contains(t, html, "kWh/m3")
	assert.NotContains(t, html, NoSolutionNotice)
}

func TestWriteFragment_EmptyState(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteFragment(&sb, BuildView(nil)))

	assert.Contains(t, sb.String(), NoSolutionNotice)
	assert.NotContains(t, sb.String(), "<details")
}
