package descriptor

import (
	"encoding/json"
	"fmt"
)

// Condition is the value side of a where equality: either a literal taken
// from the query or a reference to a variable supplied later.
type Condition struct {
	Value    any
	Variable string
}

func LiteralCondition(v any) Condition { return Condition{Value: v} }

func VariableCondition(name string) Condition { return Condition{Variable: name} }

func (c Condition) IsVariable() bool { return c.Variable != "" }

// Raw is what the condition encodes to: the variable name or the literal.
func (c Condition) Raw() any {
	if c.IsVariable() {
		return c.Variable
	}
	return c.Value
}

func (c Condition) String() string {
	if c.IsVariable() {
		return "${" + c.Variable + "}"
	}
	return fmt.Sprint(c.Value)
}

func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Raw())
}

func (c Condition) MarshalYAML() (interface{}, error) {
	return c.Raw(), nil
}
