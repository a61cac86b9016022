package crud

import (
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brianwhu/xillium-sub000/internal/cache"
	"github.com/brianwhu/xillium-sub000/internal/schema"
)

// Field is one request attribute bound to a statement placeholder, with the
// validation metadata derived from its column.
type Field struct {
	Name     string      `json:"name" msgpack:"name"`
	Table    string      `json:"table" msgpack:"table"`
	Column   string      `json:"column" msgpack:"column"`
	Type     string      `json:"type" msgpack:"type"`
	Kind     schema.Kind `json:"kind" msgpack:"kind"`
	Required bool        `json:"required" msgpack:"required"`

	// MaxSize bounds the length of character and binary values; 0 means unbounded.
	MaxSize int `json:"max_size,omitempty" msgpack:"max_size,omitempty"`

	// Forbidden is a value the field must not take.
	Forbidden string `json:"forbidden,omitempty" msgpack:"forbidden,omitempty"`
}

// Descriptor describes the request object an action consumes: the ordered,
// de-duplicated union of the fields bound by its statements.
type Descriptor struct {
	Name     string  `json:"name" msgpack:"name"`
	TypeName string  `json:"type_name" msgpack:"type_name"`
	Fields   []Field `json:"fields" msgpack:"fields"`
}

// Field looks up a field by request name.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the request names in descriptor order.
func (d *Descriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

var titleCase = cases.Title(language.Und)

// TypeName derives a Go type name for an action's request object, such as
// "SearchUser3f9a12bc": the operation, the singular model table and a short
// hash of the action name to keep different actions on one table apart.
func TypeName(a *Action) string {
	var sb strings.Builder
	sb.WriteString(titleCase.String(strings.ToLower(a.Op.String())))
	if len(a.Tables) > 0 {
		sb.WriteString(inflect.Camelize(inflect.Singularize(a.Tables[0])))
	}
	sb.WriteString(cache.ShortHash(a.Name()))
	return sb.String()
}

// newDescriptor collects the fields of statements in order, keeping the
// first field for each request name.
func newDescriptor(a *Action, statements []*Statement) *Descriptor {
	d := &Descriptor{Name: a.Name(), TypeName: TypeName(a), Fields: []Field{}}
	seen := make(map[string]bool)
	for _, st := range statements {
		for _, f := range st.Fields {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			d.Fields = append(d.Fields, f)
		}
	}
	return d
}
