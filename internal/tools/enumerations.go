package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

const categoryReference = "reference"

// enumerationResources maps list_enumerations resources to their paths.
var enumerationResources = map[string]string{
	"issue_priorities":      "/enumerations/issue_priorities",
	"time_entry_activities": "/enumerations/time_entry_activities",
	"document_categories":   "/enumerations/document_categories",
	"trackers":              "/trackers",
	"issue_statuses":        "/issue_statuses",
}

func enumerationTools() []Tool {
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_enumerations",
				Description: "Lists the values of a Redmine enumeration.",
				Category:    categoryReference,
				ReadOnly:    true,
				Params: params(
					required(enum("resource", "Enumeration to list",
						"issue_priorities", "time_entry_activities", "document_categories", "trackers", "issue_statuses")),
				),
			},
			Handler: listEnumerations,
		},
		{
			Descriptor: Descriptor{
				Name:        "list_trackers",
				Description: "Lists all trackers.",
				Category:    categoryReference,
				ReadOnly:    true,
			},
			Handler: staticList("/trackers", "trackers"),
		},
		{
			Descriptor: Descriptor{
				Name:        "list_issue_statuses",
				Description: "Lists all issue statuses.",
				Category:    categoryReference,
				ReadOnly:    true,
			},
			Handler: staticList("/issue_statuses", "issue_statuses"),
		},
		{
			Descriptor: Descriptor{
				Name:        "list_roles",
				Description: "Lists the id and name of every role.",
				Category:    categoryReference,
				ReadOnly:    true,
			},
			Handler: staticList("/roles", "roles"),
		},
	}
}

func listEnumerations(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	resource := args.String("resource")
	path, ok := enumerationResources[resource]
	if !ok {
		return nil, validationErrorf("unknown enumeration %q", resource)
	}
	// every enumeration is returned under a root key equal to its name
	return listAll(ctx, c, path, resource, nil)
}

// staticList returns a handler for an unpaginated collection.
func staticList(path, key string) Handler {
	return func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
		return listAll(ctx, c, path, key, nil)
	}
}
