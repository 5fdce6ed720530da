// Package tools defines the operation descriptors and handlers exposed by
// the Redmine MCP service.
//
// Every operation is a Tool: a Descriptor declaring its name and parameters,
// paired with a Handler that turns validated arguments into one or more
// Redmine calls. Catalog returns the full, fixed set.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/localrivet/redminemcp/internal/redmine"
)

// ParamType is the declared type of a parameter.
type ParamType string

// Parameter types
const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
	// TypeRef is a remote entity reference: a numeric id or a string identifier.
	TypeRef ParamType = "ref"
)

// Param describes one named parameter of an operation.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Description string
	// Enum restricts string values.
	Enum []string
	// Properties describes the fields of an object parameter. Unknown
	// fields inside objects are passed through to the remote API.
	Properties []Param
	// Items describes the elements of an array parameter.
	Items *Param
	// Default is informational; handlers apply their own defaults.
	Default interface{}
}

// Descriptor is the immutable declaration of one operation.
type Descriptor struct {
	Name        string
	Description string
	Category    string
	Params      []Param
	// ReadOnly operations never modify remote state.
	ReadOnly bool
	// Destructive operations delete or irreversibly change remote state.
	Destructive bool
}

// Handler implements one operation. args have already been validated
// against the descriptor.
type Handler func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error)

// Tool pairs a descriptor with its handler.
type Tool struct {
	Descriptor
	Handler Handler
}

// Param looks up a top-level parameter by name.
func (d Descriptor) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Required returns the names of the required top-level parameters.
func (d Descriptor) Required() []string {
	var names []string
	for _, p := range d.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Summary renders the description followed by a one-line-per-parameter
// listing, used where the protocol layer cannot carry the schema itself.
func (d Descriptor) Summary() string {
	var b strings.Builder
	b.WriteString(d.Description)
	if len(d.Params) == 0 {
		return b.String()
	}
	b.WriteString("\n\nParameters:")
	for _, p := range d.Params {
		writeParamLine(&b, p, "\n- ")
	}
	return b.String()
}

func writeParamLine(b *strings.Builder, p Param, prefix string) {
	fmt.Fprintf(b, "%s%s (%s", prefix, p.Name, p.Type)
	if p.Type == TypeArray && p.Items != nil {
		fmt.Fprintf(b, " of %s", p.Items.Type)
	}
	if p.Required {
		b.WriteString(", required")
	}
	b.WriteString(")")
	if p.Description != "" {
		b.WriteString(": " + p.Description)
	}
	if len(p.Enum) > 0 {
		fmt.Fprintf(b, " [one of: %s]", strings.Join(p.Enum, ", "))
	} else if p.Items != nil && len(p.Items.Enum) > 0 {
		fmt.Fprintf(b, " [any of: %s]", strings.Join(p.Items.Enum, ", "))
	}
	for _, sub := range p.Properties {
		writeParamLine(b, sub, prefix[:1]+"  "+prefix[1:])
	}
}

// JSONSchema renders the parameters as a JSON Schema object.
func (d Descriptor) JSONSchema() map[string]interface{} {
	return objectSchema(d.Params, false)
}

func objectSchema(params []Param, open bool) map[string]interface{} {
	props := make(map[string]interface{}, len(params))
	var names []string
	for _, p := range params {
		props[p.Name] = paramSchema(p)
		if p.Required {
			names = append(names, p.Name)
		}
	}
	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": open,
	}
	if len(names) > 0 {
		sort.Strings(names)
		schema["required"] = names
	}
	return schema
}

func paramSchema(p Param) map[string]interface{} {
	var s map[string]interface{}
	switch p.Type {
	case TypeRef:
		s = map[string]interface{}{"type": []string{"integer", "string"}}
	case TypeObject:
		s = objectSchema(p.Properties, true)
	case TypeArray:
		s = map[string]interface{}{"type": "array"}
		if p.Items != nil {
			s["items"] = paramSchema(*p.Items)
		}
	default:
		s = map[string]interface{}{"type": string(p.Type)}
	}
	if p.Description != "" {
		s["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		s["enum"] = p.Enum
	}
	if p.Default != nil {
		s["default"] = p.Default
	}
	return s
}

// Parameter constructors keep the catalog declarations short.

func str(name, desc string) Param { return Param{Name: name, Type: TypeString, Description: desc} }
func integer(name, desc string) Param {
	return Param{Name: name, Type: TypeInteger, Description: desc}
}
func number(name, desc string) Param { return Param{Name: name, Type: TypeNumber, Description: desc} }
func boolean(name, desc string) Param {
	return Param{Name: name, Type: TypeBoolean, Description: desc}
}
func ref(name, desc string) Param { return Param{Name: name, Type: TypeRef, Description: desc} }
func object(name, desc string, props ...Param) Param {
	return Param{Name: name, Type: TypeObject, Description: desc, Properties: props}
}
func arrayOf(name, desc string, item ParamType) Param {
	return Param{Name: name, Type: TypeArray, Description: desc, Items: &Param{Type: item}}
}

// includes declares the include[] parameter of get and list operations.
func includes(values ...string) Param {
	return Param{
		Name:        "include",
		Type:        TypeArray,
		Description: "Associations to include",
		Items:       &Param{Type: TypeString, Enum: values},
	}
}

func enum(name, desc string, values ...string) Param {
	return Param{Name: name, Type: TypeString, Description: desc, Enum: values}
}

// required marks p as required.
func required(p Param) Param {
	p.Required = true
	return p
}

// withDefault records an informational default.
func withDefault(p Param, v interface{}) Param {
	p.Default = v
	return p
}

// paging returns the limit and offset parameters shared by list operations.
func paging() []Param {
	return []Param{
		withDefault(integer("limit", fmt.Sprintf("Page size, 1-%d", MaxLimit)), DefaultLimit),
		withDefault(integer("offset", "Number of items to skip"), 0),
	}
}

// params concatenates parameter groups.
func params(groups ...interface{}) []Param {
	var out []Param
	for _, g := range groups {
		switch v := g.(type) {
		case Param:
			out = append(out, v)
		case []Param:
			out = append(out, v...)
		}
	}
	return out
}
