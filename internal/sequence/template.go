// Package sequence loads and validates level sequence templates.
//
// A template is stored as the tuple
//
//	[nTargets, nFillers, [[index, contentType], ...]]
//
// in a JSON or YAML file. Indexes [0, nTargets) name target clips and
// [nTargets, nTargets+nFillers) name filler and vigilance clips; the
// allocator maps each index to a concrete video.
package sequence

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/memento/internal/model"
)

// Slot is one position of a template: which clip index and how it is used.
type Slot struct {
	Index int
	Type  model.ContentType
}

// Template describes the shape of one level.
type Template struct {
	NTargets int
	NFillers int
	Ordering []Slot
}

// NumVideos is the number of distinct videos a level built from t needs.
func (t Template) NumVideos() int {
	return t.NTargets + t.NFillers
}

// Clone returns a deep copy of t.
func (t Template) Clone() Template {
	c := t
	c.Ordering = append([]Slot(nil), t.Ordering...)
	return c
}

// Validate checks the structural rules of a template: counts are
// non-negative, every slot has a known type and an in-range index, target
// slots use target indexes and every other slot uses a filler index, and
// the largest index is exactly NumVideos()-1.
func (t Template) Validate() error {
	if t.NTargets < 0 || t.NFillers < 0 {
		return fmt.Errorf("negative counts: nTargets=%d nFillers=%d", t.NTargets, t.NFillers)
	}
	if len(t.Ordering) == 0 {
		return errors.New("empty ordering")
	}

	maxIndex := -1
	for pos, s := range t.Ordering {
		if !s.Type.Valid() {
			return fmt.Errorf("slot %d: unknown content type %q", pos, s.Type)
		}
		if s.Index < 0 || s.Index >= t.NumVideos() {
			return fmt.Errorf("slot %d: index %d outside [0, %d)", pos, s.Index, t.NumVideos())
		}
		if s.Type.IsTarget() != (s.Index < t.NTargets) {
			return fmt.Errorf("slot %d: %s clip cannot use index %d", pos, s.Type, s.Index)
		}
		maxIndex = max(maxIndex, s.Index)
	}
	if maxIndex != t.NumVideos()-1 {
		return fmt.Errorf("largest index is %d, want %d", maxIndex, t.NumVideos()-1)
	}
	return nil
}

// Parse decodes, schema-checks and validates one template file body.
// JSON input is accepted as YAML.
func Parse(data []byte) (Template, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Template{}, fmt.Errorf("decode template: %w", err)
	}
	if err := ValidateSchema(raw); err != nil {
		return Template{}, err
	}

	t, err := fromTuple(raw)
	if err != nil {
		return Template{}, err
	}
	if err := t.Validate(); err != nil {
		return Template{}, fmt.Errorf("invalid template: %w", err)
	}
	return t, nil
}

// fromTuple converts a schema-checked tuple into a Template.
func fromTuple(raw any) (Template, error) {
	tuple, ok := raw.([]any)
	if !ok || len(tuple) != 3 {
		return Template{}, errors.New("template must be a 3-element list")
	}
	nTargets, ok1 := tuple[0].(int)
	nFillers, ok2 := tuple[1].(int)
	pairs, ok3 := tuple[2].([]any)
	if !ok1 || !ok2 || !ok3 {
		return Template{}, errors.New("template must be [int, int, list]")
	}

	t := Template{NTargets: nTargets, NFillers: nFillers, Ordering: make([]Slot, len(pairs))}
	for i, p := range pairs {
		pair, ok := p.([]any)
		if !ok || len(pair) != 2 {
			return Template{}, fmt.Errorf("slot %d: must be [index, type]", i)
		}
		index, ok1 := pair[0].(int)
		typ, ok2 := pair[1].(string)
		if !ok1 || !ok2 {
			return Template{}, fmt.Errorf("slot %d: must be [int, string]", i)
		}
		t.Ordering[i] = Slot{Index: index, Type: model.ContentType(typ)}
	}
	return t, nil
}
