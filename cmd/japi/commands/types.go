package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/japi/pkg/japi"
)

// NewTypesCommand creates the types command.
func NewTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List declared resource types",
		Long:  "List the resource types declared in the configuration file, with their fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := LoadRegistry()
			if err != nil {
				return err
			}

			return outputTypes(registry.Types())
		},
	}
}

// typeView is the output shape of one declared type for JSON and YAML
// rendering.
type typeView struct {
	Name   string      `json:"name"   yaml:"name"`
	Path   string      `json:"path"   yaml:"path"`
	Fields []fieldView `json:"fields" yaml:"fields"`
}

type fieldView struct {
	Name       string `json:"name"                  yaml:"name"`
	Kind       string `json:"kind"                  yaml:"kind"`
	LinkedType string `json:"linked_type,omitempty" yaml:"linked_type,omitempty"`
	Format     string `json:"format,omitempty"      yaml:"format,omitempty"`
}

func outputTypes(types []*japi.ResourceType) error {
	switch ResolveOutputFormat() {
	case OutputFormatJSON:
		return StandardJSONRenderer(viewsForTypes(types))
	case OutputFormatYAML:
		return StandardYAMLRenderer(viewsForTypes(types))
	default:
		return renderTypesTable(types)
	}
}

func viewsForTypes(types []*japi.ResourceType) []typeView {
	views := make([]typeView, 0, len(types))

	for _, t := range types {
		view := typeView{Name: t.Name, Path: t.PathSegment()}
		for _, field := range t.Fields {
			view.Fields = append(view.Fields, fieldView{
				Name:       field.Name,
				Kind:       fieldKindName(field.Kind),
				LinkedType: field.LinkedType,
				Format:     field.Format,
			})
		}

		views = append(views, view)
	}

	return views
}

func renderTypesTable(types []*japi.ResourceType) error {
	if len(types) == 0 {
		_, _ = os.Stdout.WriteString("No resource types declared\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Type", "Path", "Fields")

	for _, t := range types {
		fields := make([]string, 0, len(t.Fields))
		for _, field := range t.Fields {
			fields = append(fields, fieldSummary(field))
		}

		_ = table.Append(t.Name, t.PathSegment(), strings.Join(fields, ", "))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func fieldSummary(field *japi.Field) string {
	switch field.Kind {
	case japi.FieldToOne:
		return fmt.Sprintf("%s -> %s", field.Name, field.LinkedType)
	case japi.FieldToMany:
		return fmt.Sprintf("%s -> [%s]", field.Name, field.LinkedType)
	default:
		return field.Name
	}
}

func fieldKindName(kind japi.FieldKind) string {
	switch kind {
	case japi.FieldToOne:
		return "to-one"
	case japi.FieldToMany:
		return "to-many"
	default:
		return "attribute"
	}
}
