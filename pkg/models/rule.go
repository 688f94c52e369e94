package models

// Rule is a boolean rule tree. Exactly one of All, Any, Not or the leaf
// triple (Field, Operator, Value) is expected to be set.
type Rule struct {
	All      []Rule   `json:"all,omitempty"`
	Any      []Rule   `json:"any,omitempty"`
	Not      *Rule    `json:"not,omitempty"`
	Field    string   `json:"field,omitempty"`
	Operator Operator `json:"operator,omitempty"`
	Value    any      `json:"value,omitempty"`
}

// IsLeaf reports whether r is a single field comparison.
func (r Rule) IsLeaf() bool {
	return r.All == nil && r.Any == nil && r.Not == nil
}
