package reorder

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// DefaultApprovalRule approves every generated order when auto-approve is requested.
const DefaultApprovalRule = "true"

// ApprovalFacts are the variables visible to an approval rule.
type ApprovalFacts struct {
	Total        float64
	ItemCount    int
	SupplierCode string
	PaymentTerms int
}

// ApprovalRule is a compiled CEL expression deciding whether an auto-generated order
// may be approved on creation, e.g. `total <= 5000.0 && item_count < 20`.
type ApprovalRule struct {
	source  string
	program cel.Program
}

// CompileApprovalRule parses and type-checks expr. The expression must yield a bool.
func CompileApprovalRule(expr string) (*ApprovalRule, error) {
	if expr == "" {
		expr = DefaultApprovalRule
	}

	env, err := cel.NewEnv(
		cel.Variable("total", cel.DoubleType),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("supplier_code", cel.StringType),
		cel.Variable("payment_terms", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("compile approval rule %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("approval rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build approval rule program: %w", err)
	}
	return &ApprovalRule{source: expr, program: prg}, nil
}

// String returns the rule source.
func (r *ApprovalRule) String() string {
	return r.source
}

// Allows evaluates the rule against facts.
func (r *ApprovalRule) Allows(f ApprovalFacts) (bool, error) {
	out, _, err := r.program.Eval(map[string]any{
		"total":         f.Total,
		"item_count":    int64(f.ItemCount),
		"supplier_code": f.SupplierCode,
		"payment_terms": int64(f.PaymentTerms),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate approval rule: %w", err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("approval rule returned %T", out.Value())
	}
	return allowed, nil
}
