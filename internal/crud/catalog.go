package crud

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ActionSpec is the serialized form of an Action.
type ActionSpec struct {
	Op          string            `yaml:"op" json:"op"`
	Tables      []string          `yaml:"tables" json:"tables"`
	Columns     []string          `yaml:"columns,omitempty" json:"columns,omitempty"`
	Restriction map[string]string `yaml:"restriction,omitempty" json:"restriction,omitempty"`
	Dominant    []string          `yaml:"dominant,omitempty" json:"dominant,omitempty"`
}

// Action validates the spec and builds the Action.
func (s ActionSpec) Action() (*Action, error) {
	op, err := ParseOperation(s.Op)
	if err != nil {
		return nil, err
	}
	return NewAction(op, s.Tables, s.Columns, s.Restriction, s.Dominant...)
}

// Catalog maps action names to actions.
type Catalog map[string]*Action

// Names returns the catalog's action names in sorted order.
func (c Catalog) Names() []string {
	return sortedKeys(c)
}

type catalogFile struct {
	Actions map[string]ActionSpec `yaml:"actions"`
}

// LoadActions decodes a YAML catalog:
//
//	actions:
//	  find_users:
//	    op: SEARCH
//	    tables: [users]
//	    columns: [name, +email]
//	    restriction: {status: "!DELETED"}
func LoadActions(r io.Reader) (Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode action catalog: %w", err)
	}

	catalog := make(Catalog, len(file.Actions))
	for _, name := range sortedKeys(file.Actions) {
		a, err := file.Actions[name].Action()
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", name, err)
		}
		catalog[name] = a
	}
	return catalog, nil
}

// LoadActionsFile reads a YAML catalog from path.
func LoadActionsFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open action catalog: %w", err)
	}
	defer f.Close()
	return LoadActions(f)
}

// Spec returns the serialized form of an action.
func (a *Action) Spec() ActionSpec {
	s := ActionSpec{
		Op:       a.Op.String(),
		Tables:   append([]string(nil), a.Tables...),
		Dominant: sortedKeys(a.Dominant),
	}
	for i, c := range a.Columns {
		if a.Op == Search && !a.Required[i] && a.IsRestricted(c) {
			continue
		}
		if a.Required[i] {
			c = RequiredMarker + c
		}
		s.Columns = append(s.Columns, c)
	}
	if len(a.Restriction) > 0 {
		s.Restriction = make(map[string]string, len(a.Restriction))
		for k, v := range a.Restriction {
			s.Restriction[k] = v
		}
	}
	return s
}
