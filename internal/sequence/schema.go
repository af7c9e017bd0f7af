package sequence

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed template.cue
var templateSchema string

type schemaValidator struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

var loadSchema = sync.OnceValues(func() (*schemaValidator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(templateSchema)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile template schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Template"))
	if !def.Exists() {
		return nil, fmt.Errorf("template schema has no #Template definition")
	}
	return &schemaValidator{ctx: ctx, def: def}, nil
})

// ValidateSchema checks a decoded template tuple against the embedded CUE
// schema.
func ValidateSchema(raw any) error {
	s, err := loadSchema()
	if err != nil {
		return err
	}

	// cue.Context is not safe for concurrent use.
	s.mu.Lock()
	defer s.mu.Unlock()

	val := s.ctx.Encode(raw)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	if err := s.def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("template does not match schema: %w", err)
	}
	return nil
}
