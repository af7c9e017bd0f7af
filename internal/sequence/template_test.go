package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memento/internal/model"
)

func TestParse_JSON(t *testing.T) {
	tmpl, err := Parse([]byte(`[1, 1, [[0, "target"], [1, "filler"], [0, "target_repeat"]]]`))
	require.NoError(t, err)

	assert.Equal(t, 1, tmpl.NTargets)
	assert.Equal(t, 1, tmpl.NFillers)
	assert.Equal(t, 2, tmpl.NumVideos())
	assert.Equal(t, []Slot{
		{Index: 0, Type: model.Target},
		{Index: 1, Type: model.Filler},
		{Index: 0, Type: model.TargetRepeat},
	}, tmpl.Ordering)
}

func TestParse_YAML(t *testing.T) {
	src := `
- 1
- 1
- - [0, target]
  - [1, vig]
  - [1, vig_repeat]
  - [0, target_repeat]
`
	tmpl, err := Parse([]byte(src))
	require.NoError(t, err)
	assert.Len(t, tmpl.Ordering, 4)
	assert.Equal(t, model.VigRepeat, tmpl.Ordering[2].Type)
}

func TestParse_SchemaRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not a list", `{"nTargets": 1}`},
		{"too short", `[1, 1]`},
		{"unknown type", `[1, 1, [[0, "target"], [1, "repeat"]]]`},
		{"negative count", `[-1, 1, [[0, "filler"]]]`},
		{"string index", `[1, 1, [["0", "target"], [1, "filler"]]]`},
		{"pair too long", `[1, 1, [[0, "target", 3], [1, "filler"]]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema")
		})
	}
}

func TestTemplate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    Template
		wantErr string
	}{
		{
			name: "valid",
			tmpl: Template{NTargets: 1, NFillers: 2, Ordering: []Slot{
				{0, model.Target}, {1, model.Vig}, {2, model.Filler}, {1, model.VigRepeat}, {0, model.TargetRepeat},
			}},
		},
		{
			name: "largest index too small",
			tmpl: Template{NTargets: 1, NFillers: 2, Ordering: []Slot{
				{0, model.Target}, {1, model.Filler}, {0, model.TargetRepeat},
			}},
			wantErr: "largest index is 1, want 2",
		},
		{
			name: "index out of range",
			tmpl: Template{NTargets: 1, NFillers: 1, Ordering: []Slot{
				{0, model.Target}, {2, model.Filler},
			}},
			wantErr: "outside",
		},
		{
			name: "filler on target index",
			tmpl: Template{NTargets: 1, NFillers: 1, Ordering: []Slot{
				{0, model.Filler}, {1, model.Filler},
			}},
			wantErr: "cannot use index 0",
		},
		{
			name: "target on filler index",
			tmpl: Template{NTargets: 1, NFillers: 1, Ordering: []Slot{
				{0, model.Target}, {1, model.TargetRepeat},
			}},
			wantErr: "cannot use index 1",
		},
		{
			name:    "empty",
			tmpl:    Template{NTargets: 0, NFillers: 0},
			wantErr: "empty ordering",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tmpl.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTemplate_Clone(t *testing.T) {
	orig := Template{NTargets: 1, NFillers: 0, Ordering: []Slot{{0, model.Target}, {0, model.TargetRepeat}}}
	c := orig.Clone()
	c.Ordering[0].Index = 7

	assert.Equal(t, 0, orig.Ordering[0].Index)
}
