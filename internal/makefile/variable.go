package makefile

import "fmt"

// condValue is a single conditional branch: if condExpr holds, ifValue;
// otherwise elseValue.
type condValue struct {
	condExpr  string
	ifValue   string
	elseValue string
}

// Variable is a named Make variable with zero or more conditional (ifeq-style)
// assignments (spec §4.3). Variables are namespaced by target: callers
// build Name as "<base>.<target.make_path>" so that distinct nodes never
// collide.
type Variable struct {
	Name       string
	conditions []condValue
}

// NewVariable constructs an empty, unconditional Variable with the given name.
func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

// AddCondition appends a conditional branch in declaration order.
func (v *Variable) AddCondition(condExpr, ifValue, elseValue string) {
	v.conditions = append(v.conditions, condValue{condExpr: condExpr, ifValue: ifValue, elseValue: elseValue})
}

// Ref returns the Make syntax to reference this variable, "$(name)".
func (v *Variable) Ref() string {
	return "$(" + v.Name + ")"
}

// WriteTo emits this variable's definition to the Makefile: nothing if it
// has no conditions (a bare reference then resolves to empty), otherwise one
// ifeq/else/endif block per condition in insertion order.
func (v *Variable) WriteTo(mf *Makefile) {
	if len(v.conditions) == 0 {
		return
	}
	for _, c := range v.conditions {
		mf.Append(fmt.Sprintf("ifeq (%s)\n%s := %s\nelse\n%s := %s\nendif\n", c.condExpr, v.Name, c.ifValue, v.Name, c.elseValue))
	}
}
