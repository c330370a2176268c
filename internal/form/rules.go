package form

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"charge-console/internal/schema"
)

// RuleSet is a compiled set of declarative validation rules for one
// screen. Each rule expression receives the draft as "record" and must
// evaluate to true for the draft to pass.
type RuleSet struct {
	rules    []schema.Rule
	programs []*vm.Program
}

// CompileRules compiles a screen's rule expressions. Returns nil when
// the screen declares none, so the draft falls back to the default
// required-field validation.
func CompileRules(rules []schema.Rule) (*RuleSet, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	rs := &RuleSet{rules: rules}
	for _, r := range rules {
		prog, err := expr.Compile(r.Expr, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Expr, err)
		}
		rs.programs = append(rs.programs, prog)
	}
	return rs, nil
}

// Validate runs every rule against the draft. A rule that fails to
// evaluate counts as a violation; a malformed draft must not pass.
func (rs *RuleSet) Validate(draft schema.Record) []FieldError {
	env := map[string]any{"record": map[string]any(draft)}
	var errs []FieldError
	for i, prog := range rs.programs {
		out, err := expr.Run(prog, env)
		ok, _ := out.(bool)
		if err != nil || !ok {
			errs = append(errs, FieldError{
				Field:   rs.rules[i].Field,
				Message: rs.rules[i].Message,
			})
		}
	}
	return errs
}

// WithRequired wraps a rule set so that the default required-field
// check still runs before the rules. Screens that declare rules keep
// required semantics unless they opt out.
type WithRequired struct {
	Fields []schema.FieldSchema
	Rules  *RuleSet
}

func (w WithRequired) Validate(draft schema.Record) []FieldError {
	var errs []FieldError
	for _, f := range w.Fields {
		if !f.Required {
			continue
		}
		if isEmpty(draft[f.Name]) {
			errs = append(errs, FieldError{Field: f.Name, Message: f.Label + " is required"})
		}
	}
	if w.Rules != nil {
		errs = append(errs, w.Rules.Validate(draft)...)
	}
	return errs
}
