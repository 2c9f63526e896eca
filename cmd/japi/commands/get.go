package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/japi/internal/constants"
	"github.com/fivetwenty-io/japi/pkg/japi"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var (
		filters  []string
		sorts    []string
		includes []string
		fields   []string
		page     int
		perPage  int
		allPages bool
	)

	cmd := &cobra.Command{
		Use:   "get TYPE [ID]",
		Short: "Fetch resources",
		Long: `Fetch resources of a declared type, optionally narrowed to a single id.

Filters, sparse fieldsets, sort fields, and relationship paths to include
are compiled into the request URL in a stable order.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGetCommand(args, filters, sorts, includes, fields, page, perPage, allPages)
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "filter as field=value (repeatable)")
	cmd.Flags().StringArrayVar(&sorts, "sort", nil, "sort field, prefix with - for descending (repeatable)")
	cmd.Flags().StringArrayVar(&includes, "include", nil, "relationship path to include (repeatable)")
	cmd.Flags().StringArrayVar(&fields, "fields", nil, "sparse fieldset as type=field1,field2 (repeatable)")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", constants.DefaultPageSize, "results per page")
	cmd.Flags().BoolVar(&allPages, "all", false, "follow next links until the last page")

	return cmd
}

//nolint:funlen
func runGetCommand(args, filters, sorts, includes, fields []string, page, perPage int, allPages bool) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	query := japi.NewQuery(args[0])
	if len(args) == 2 {
		query = query.WithIDs(args[1])
	}

	for _, filter := range filters {
		field, value, found := strings.Cut(filter, "=")
		if !found {
			return fmt.Errorf("%w: %q", ErrInvalidFilterFormat, filter)
		}

		query = query.WithFilter(field, strings.Split(value, ",")...)
	}

	for _, sortField := range sorts {
		query = query.WithSort(sortField)
	}

	if len(includes) > 0 {
		query = query.WithInclude(includes...)
	}

	for _, fieldset := range fields {
		typeName, fieldList, found := strings.Cut(fieldset, "=")
		if !found {
			return fmt.Errorf("%w: %q", ErrInvalidFieldsFormat, fieldset)
		}

		query = query.WithFields(typeName, strings.Split(fieldList, ",")...)
	}

	if page > 0 {
		query = query.WithPagination(japi.PageBasedPagination{Number: page, Size: perPage})
	}

	ctx := context.Background()

	collection, err := client.Find(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", args[0], err)
	}

	if allPages {
		for collection.NextURL != "" {
			if _, err := client.LoadNextPage(ctx, collection); err != nil {
				return fmt.Errorf("failed to fetch next page: %w", err)
			}
		}
	}

	return outputResources(collection.Resources)
}

func outputResources(resources []*japi.Resource) error {
	switch ResolveOutputFormat() {
	case OutputFormatJSON:
		return StandardJSONRenderer(viewsForResources(resources))
	case OutputFormatYAML:
		return StandardYAMLRenderer(viewsForResources(resources))
	default:
		return renderResourceTable(resources)
	}
}

func viewsForResources(resources []*japi.Resource) []resourceView {
	views := make([]resourceView, 0, len(resources))
	for _, res := range resources {
		views = append(views, viewForResource(res))
	}

	return views
}

func renderResourceTable(resources []*japi.Resource) error {
	if len(resources) == 0 {
		_, _ = os.Stdout.WriteString("No resources found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Type", "ID", "Attributes")

	for _, res := range resources {
		_ = table.Append(res.Type, res.ID, attributeSummary(res))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
