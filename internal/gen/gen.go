// Package gen renders compiled request descriptors as Go source and stores
// them in msgpack snapshots, so code can be generated without a database.
package gen

import (
	"fmt"
	"io"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/brianwhu/xillium-sub000/internal/crud"
	"github.com/brianwhu/xillium-sub000/internal/schema"
)

// File builds a Go file declaring one request struct per descriptor.
// Descriptors sharing a type name are emitted once.
func File(pkg string, descriptors []*crud.Descriptor) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by crudc. DO NOT EDIT.")

	seen := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		if seen[d.TypeName] {
			continue
		}
		seen[d.TypeName] = true

		fields := make([]jen.Code, 0, len(d.Fields))
		for _, field := range d.Fields {
			fields = append(fields, structField(field))
		}
		f.Commentf("%s is the request of action %s.", d.TypeName, d.Name)
		f.Type().Id(d.TypeName).Struct(fields...)
		f.Line()
	}
	return f
}

// Generate writes the formatted source of File to w.
func Generate(w io.Writer, pkg string, descriptors []*crud.Descriptor) error {
	if err := File(pkg, descriptors).Render(w); err != nil {
		return fmt.Errorf("failed to render package %s: %w", pkg, err)
	}
	return nil
}

// FieldName converts a request name to an exported Go identifier.
func FieldName(name string) string {
	return inflect.Camelize(name)
}

func structField(field crud.Field) jen.Code {
	tags := map[string]string{
		"db":   field.Column,
		"json": field.Name,
	}
	if !field.Required {
		tags["json"] += ",omitempty"
	}
	if rules := validateRules(field); rules != "" {
		tags["validate"] = rules
	}
	return jen.Id(FieldName(field.Name)).Add(goType(field)).Tag(tags)
}

// validateRules renders go-playground/validator style rules.
func validateRules(field crud.Field) string {
	var rules []string
	if field.Required {
		rules = append(rules, "required")
	} else {
		rules = append(rules, "omitempty")
	}
	if field.MaxSize > 0 {
		rules = append(rules, fmt.Sprintf("max=%d", field.MaxSize))
	}
	if field.Forbidden != "" && !strings.ContainsAny(field.Forbidden, ", ") {
		rules = append(rules, "ne="+field.Forbidden)
	}
	if len(rules) == 1 && rules[0] == "omitempty" {
		return ""
	}
	return strings.Join(rules, ",")
}

// goType maps a column kind to a Go type. Optional scalars become pointers
// so that absent values stay distinguishable from zero values.
func goType(field crud.Field) *jen.Statement {
	var t *jen.Statement
	switch field.Kind {
	case schema.KindString, schema.KindDecimal:
		t = jen.String()
	case schema.KindInteger:
		t = jen.Int64()
	case schema.KindFloat:
		t = jen.Float64()
	case schema.KindBool:
		t = jen.Bool()
	case schema.KindTime:
		t = jen.Qual("time", "Time")
	case schema.KindBytes:
		return jen.Index().Byte()
	default:
		return jen.Interface()
	}
	if field.Required {
		return t
	}
	return jen.Op("*").Add(t)
}
