package tools

import (
	"context"
	"net/url"

	"github.com/localrivet/redminemcp/internal/redmine"
)

func categoryTools() []Tool {
	categoryID := required(integer("category_id", "Issue category id"))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_issue_categories",
				Description: "Lists the issue categories of a project.",
				Category:    categoryProjects,
				ReadOnly:    true,
				Params:      params(required(ref("project_id", "Project id or identifier"))),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := listAll(ctx, c, redmine.Path("projects", args.Ref("project_id"), "issue_categories"), "issue_categories", nil)
				return res, withID(err, args, "project_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "get_issue_category",
				Description: "Returns a single issue category.",
				Category:    categoryProjects,
				ReadOnly:    true,
				Params:      params(categoryID),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := getEntity(ctx, c, redmine.Path("issue_categories", args.Ref("category_id")), "issue_category", nil)
				return res, withID(err, args, "category_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "create_issue_category",
				Description: "Creates an issue category in a project.",
				Category:    categoryProjects,
				Params: params(
					required(ref("project_id", "Project id or identifier")),
					required(str("name", "Category name")),
					integer("assigned_to_id", "Default assignee for issues in this category"),
				),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				path := redmine.Path("projects", args.Ref("project_id"), "issue_categories")
				res, err := createEntity(ctx, c, path, "issue_category", args.Pick("name", "assigned_to_id"))
				return res, withID(err, args, "project_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "update_issue_category",
				Description: "Updates an issue category. Only the supplied fields are changed.",
				Category:    categoryProjects,
				Params: params(
					categoryID,
					str("name", "Category name"),
					integer("assigned_to_id", "Default assignee"),
				),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				path := redmine.Path("issue_categories", args.Ref("category_id"))
				return updateEntity(ctx, c, path, "issue_category", args.Pick("name", "assigned_to_id"), "category_id", idOf(args, "category_id"), path)
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "delete_issue_category",
				Description: "Deletes an issue category, optionally moving its issues to another category.",
				Category:    categoryProjects,
				Destructive: true,
				Params: params(
					categoryID,
					integer("reassign_to_id", "Category that receives the issues of the deleted one"),
				),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				var query url.Values
				if args.Has("reassign_to_id") {
					query = url.Values{"reassign_to_id": {args.String("reassign_to_id")}}
				}
				return deleteEntity(ctx, c, redmine.Path("issue_categories", args.Ref("category_id")), query, "category_id", idOf(args, "category_id"))
			},
		},
	}
}
