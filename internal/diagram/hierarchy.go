// Package diagram builds Mermaid definitions from structured descriptions.
//
// A Hierarchy describes one type together with its base types, the interfaces
// it implements, and the types deriving from or implementing it. Definition
// turns it into a bottom-to-top flowchart in which the described type is
// styled with the "type-node" class and every node that has a link is
// clickable.
package diagram

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefinitionFileName is the conventional file name of a generated hierarchy definition
const DefinitionFileName = "type_diagram.mmd"

// TypeRef is a node in the hierarchy
type TypeRef struct {
	DisplayName string `yaml:"displayName" json:"displayName"`
	Link        string `yaml:"link,omitempty" json:"link,omitempty"`
}

// Hierarchy describes the inheritance neighbourhood of a single type
type Hierarchy struct {
	// Name identifies the hierarchy and names its output files
	Name string `yaml:"name" json:"name"`

	Type TypeRef `yaml:"type" json:"type"`

	// BaseTypes is the inheritance chain, nearest base first
	BaseTypes []TypeRef `yaml:"baseTypes,omitempty" json:"baseTypes,omitempty"`

	Interfaces        []TypeRef `yaml:"interfaces,omitempty" json:"interfaces,omitempty"`
	DerivedTypes      []TypeRef `yaml:"derivedTypes,omitempty" json:"derivedTypes,omitempty"`
	ImplementingTypes []TypeRef `yaml:"implementingTypes,omitempty" json:"implementingTypes,omitempty"`
}

// LoadHierarchies decodes every YAML document in r.
// Empty documents are skipped; a hierarchy without a name takes the type's display name.
func LoadHierarchies(r io.Reader) ([]Hierarchy, error) {
	decoder := yaml.NewDecoder(r)

	var hierarchies []Hierarchy
	for {
		var h Hierarchy
		err := decoder.Decode(&h)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode hierarchy: %w", err)
		}

		if h.Type.DisplayName == "" {
			if h.Name == "" && len(h.BaseTypes) == 0 && len(h.Interfaces) == 0 {
				continue
			}
			return nil, fmt.Errorf("hierarchy %q: type.displayName is required", h.Name)
		}

		if h.Name == "" {
			h.Name = h.Type.DisplayName
		}

		hierarchies = append(hierarchies, h)
	}

	return hierarchies, nil
}

// Definition renders the hierarchy as a Mermaid flowchart
func (h Hierarchy) Definition() string {
	var sb strings.Builder
	sb.WriteString("graph BT\n")

	for b, base := range h.BaseTypes {
		from := "Type"
		if b > 0 {
			from = fmt.Sprintf("Base%d", b-1)
		}
		id := fmt.Sprintf("Base%d", b)
		fmt.Fprintf(&sb, "\t%s-->%s[\"%s\"]\n", from, id, label(base))
		writeClick(&sb, id, base)
	}

	for c, iface := range h.Interfaces {
		id := fmt.Sprintf("Interface%d", c)
		fmt.Fprintf(&sb, "\tType-.->%s[\"%s\"]\n", id, label(iface))
		writeClick(&sb, id, iface)
	}

	fmt.Fprintf(&sb, "\tType[\"%s\"]\n", label(h.Type))
	sb.WriteString("class Type type-node\n")

	for c, derived := range h.DerivedTypes {
		id := fmt.Sprintf("Derived%d", c)
		fmt.Fprintf(&sb, "\t%s[\"%s\"]-->Type\n", id, label(derived))
		writeClick(&sb, id, derived)
	}

	for c, impl := range h.ImplementingTypes {
		id := fmt.Sprintf("Implementing%d", c)
		fmt.Fprintf(&sb, "\t%s[\"%s\"]-.->Type\n", id, label(impl))
		writeClick(&sb, id, impl)
	}

	return sb.String()
}

// SafeName turns a hierarchy name into a file-system friendly directory name.
// Generic brackets and other punctuation become underscores.
func SafeName(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)

	if strings.Trim(safe, "._") == "" {
		return "_"
	}
	return safe
}

// label escapes a display name so generic brackets and quotes survive Mermaid's parser
func label(t TypeRef) string {
	return html.EscapeString(t.DisplayName)
}

func writeClick(sb *strings.Builder, id string, t TypeRef) {
	if t.Link == "" {
		return
	}
	fmt.Fprintf(sb, "\tclick %s \"%s\"\n", id, t.Link)
}
