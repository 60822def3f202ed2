package engine

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"
)

// DerivedField is a computed column appended to row views, written as an
// expression over the qualified display map:
//
//	{name: fee, expr: 'row["charge.amount"] * 0.029'}
//
// The result lands in the display map under "derived.<name>", where filters
// and metric blocks can reference it like any other qualified field.
type DerivedField struct {
	Name string `yaml:"name" json:"name"`
	Expr string `yaml:"expr" json:"expr"`
}

// CompiledDerived is a derived field compiled once for repeated evaluation.
type CompiledDerived struct {
	name    string
	program *vm.Program
}

// Qualified returns the display-map key the field's values are stored under.
func (c CompiledDerived) Qualified() string {
	return "derived." + c.name
}

// CompileDerived compiles the fields' expressions. A malformed expression is
// a configuration defect and fails hard, like a malformed schema.
func CompileDerived(fields []DerivedField) ([]CompiledDerived, error) {
	compiled := make([]CompiledDerived, 0, len(fields))

	for _, f := range fields {
		program, err := expr.Compile(f.Expr, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("compiling derived field %q: %w", f.Name, err)
		}

		compiled = append(compiled, CompiledDerived{name: f.Name, program: program})
	}

	return compiled, nil
}

// ApplyDerived evaluates each compiled field against each row and writes the
// result into the row's display map. Evaluation errors (nil operands,
// type mismatches on a particular row) produce a nil value for that row,
// logged once per field.
func (e *Engine) ApplyDerived(rows []RowView, fields []CompiledDerived) {
	warned := make(map[string]bool, len(fields))

	for i := range rows {
		env := map[string]any{"row": rows[i].Display}

		for _, f := range fields {
			out, err := expr.Run(f.program, env)
			if err != nil {
				if !warned[f.name] {
					warned[f.name] = true
					e.logger.Warn("derived field evaluation failed; value is null",
						zap.String("field", f.name),
						zap.Error(err))
				}

				rows[i].Display[f.Qualified()] = nil

				continue
			}

			rows[i].Display[f.Qualified()] = out
		}
	}
}
