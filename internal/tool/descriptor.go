// Package tool defines the descriptor model shared by builtin and remote
// tools: what a tool is called, what arguments it accepts, and the single
// result shape every execution resolves to.
package tool

import "sort"

// SourceKind identifies where a tool executes.
type SourceKind string

const (
	SourceBuiltin SourceKind = "builtin"
	SourceRemote  SourceKind = "remote"
)

// Source describes the origin of a tool. For remote tools Server carries the
// owning connection's identifier.
type Source struct {
	Kind   SourceKind `json:"kind"`
	Server string     `json:"server,omitempty"`
}

// Builtin is the source shared by all in-process tools.
func Builtin() Source {
	return Source{Kind: SourceBuiltin}
}

// Remote returns a source bound to the given server id.
func Remote(serverID string) Source {
	return Source{Kind: SourceRemote, Server: serverID}
}

// Descriptor describes one callable tool. Descriptors are immutable once
// registered; the registry rejects duplicate names instead of shadowing.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schema      Schema `json:"schema"`
	Source      Source `json:"source"`
}

// ParamKind is the closed set of parameter types a schema may declare.
type ParamKind string

const (
	KindString     ParamKind = "string"
	KindInteger    ParamKind = "integer"
	KindBoolean    ParamKind = "boolean"
	KindEnum       ParamKind = "enum"
	KindStringList ParamKind = "string_list"
)

// Param declares a single named argument.
type Param struct {
	Kind        ParamKind `json:"kind"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required,omitempty"`
	// Enum lists the accepted values when Kind is KindEnum.
	Enum []string `json:"enum,omitempty"`
}

// Schema is the structural description of a tool's accepted arguments.
type Schema struct {
	Params map[string]Param `json:"params"`
}

// ParamNames returns the declared parameter names in sorted order.
func (s Schema) ParamNames() []string {
	names := make([]string, 0, len(s.Params))
	for name := range s.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
