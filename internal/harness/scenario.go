package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/memento/internal/engine"
)

// Scenario is an end-to-end test of the engine.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Videos is the number of videos seeded before the flow runs.
	Videos int `yaml:"videos"`

	// Template is a template file, relative to the scenario file. When
	// empty the two-target fixture template is used.
	Template string `yaml:"template,omitempty"`

	Policy     PolicyOverrides `yaml:"policy,omitempty"`
	Flow       []FlowStep      `yaml:"flow"`
	Assertions []Assertion     `yaml:"assertions"`
}

// PolicyOverrides replaces fields of the default engine policy.
// Fast-submit checks are always off: the harness answers instantly.
type PolicyOverrides struct {
	LevelsPerLife     *int     `yaml:"levels_per_life,omitempty"`
	DefaultLives      *int     `yaml:"default_lives,omitempty"`
	EnableBlockUsers  *bool    `yaml:"enable_block_users,omitempty"`
	EnforceSameInputs *bool    `yaml:"enforce_same_inputs,omitempty"`
	MaxLevelTimeSec   *int     `yaml:"max_level_time_sec,omitempty"`
	RewardAmount      *float64 `yaml:"reward_amount,omitempty"`
}

// Apply returns p with the overrides set.
func (o PolicyOverrides) Apply(p engine.Policy) engine.Policy {
	p.ErrorOnFastSubmit = false
	if o.LevelsPerLife != nil {
		p.LevelsPerLife = *o.LevelsPerLife
	}
	if o.DefaultLives != nil {
		p.DefaultLives = *o.DefaultLives
	}
	if o.EnableBlockUsers != nil {
		p.EnableBlockUsers = *o.EnableBlockUsers
	}
	if o.EnforceSameInputs != nil {
		p.EnforceSameInputs = *o.EnforceSameInputs
	}
	if o.MaxLevelTimeSec != nil {
		p.MaxLevelTime = time.Duration(*o.MaxLevelTimeSec) * time.Second
	}
	if o.RewardAmount != nil {
		p.RewardAmount = *o.RewardAmount
	}
	return p
}

// Flow operations.
const (
	OpUser      = "user"
	OpAllocate  = "allocate"
	OpAnswer    = "answer"
	OpSubmit    = "submit"
	OpBackdate  = "backdate"
	OpReconcile = "reconcile"
)

// FlowStep is one worker or operator action.
type FlowStep struct {
	Op     string `yaml:"op"`
	Worker string `yaml:"worker,omitempty"`

	// As names the level allocated by an allocate step.
	As string `yaml:"as,omitempty"`

	// Level refers to a level by alias. answer and submit default to the
	// worker's most recent allocation.
	Level string `yaml:"level,omitempty"`

	// Correct selects all-right or all-wrong answers (default right).
	Correct *bool `yaml:"correct,omitempty"`

	// Tamper echoes back inputs with the first url replaced.
	Tamper bool `yaml:"tamper,omitempty"`

	DurationMsec int64  `yaml:"duration_msec,omitempty"`
	Feedback     string `yaml:"feedback,omitempty"`

	// By is how far a backdate step moves the level into the past.
	By string `yaml:"by,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause is the expected outcome of a step.
type ExpectClause struct {
	// Case is OK or an engine error kind.
	Case string `yaml:"case"`

	// Result is a subset of the step's result fields.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Op, Case and Worker select trace events (trace_contains,
	// trace_count). Case and Worker are optional.
	Op     string `yaml:"op,omitempty"`
	Case   string `yaml:"case,omitempty"`
	Worker string `yaml:"worker,omitempty"`

	// Ops is the expected order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of events (trace_count) or of rows
	// (final_state).
	Count *int `yaml:"count,omitempty"`

	// Table, Where and Expect describe a final_state check. Without
	// Count exactly one row must match Where.
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Template != "" && !filepath.IsAbs(scenario.Template) {
		scenario.Template = filepath.Join(filepath.Dir(path), scenario.Template)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Videos < 0 {
		return fmt.Errorf("videos must be non-negative")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if s.Template != "" {
		if _, err := os.Stat(s.Template); err != nil {
			return fmt.Errorf("template file not found: %s", s.Template)
		}
	}

	aliases := map[string]bool{}
	for i, step := range s.Flow {
		if err := validateStep(i, step, aliases); err != nil {
			return err
		}
		if step.Op == OpAllocate && step.As != "" {
			aliases[step.As] = true
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step FlowStep, aliases map[string]bool) error {
	switch step.Op {
	case OpUser, OpAllocate, OpReconcile:
	case OpAnswer, OpSubmit:
		if step.Level == "" && step.Worker == "" {
			return fmt.Errorf("flow[%d]: %s needs a level or a worker", i, step.Op)
		}
	case OpBackdate:
		if step.Level == "" {
			return fmt.Errorf("flow[%d]: level is required for backdate", i)
		}
		if _, err := time.ParseDuration(step.By); err != nil {
			return fmt.Errorf("flow[%d]: by: %w", i, err)
		}
	case "":
		return fmt.Errorf("flow[%d]: op is required", i)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", i, step.Op)
	}

	if step.Level != "" && !aliases[step.Level] {
		return fmt.Errorf("flow[%d]: level %q is not allocated by an earlier step", i, step.Level)
	}
	if step.As != "" && step.Op != OpAllocate {
		return fmt.Errorf("flow[%d]: as is only valid on allocate", i)
	}
	if step.Expect != nil && step.Expect.Case == "" {
		return fmt.Errorf("flow[%d].expect: case is required", i)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: a non-negative count is required for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if a.Count == nil && len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: count or expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
