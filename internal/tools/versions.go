package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

const categoryPlanning = "planning"

var versionFields = []string{"name", "status", "sharing", "due_date", "description", "wiki_page_title", "effective_date"}

func versionFieldParams() []Param {
	return []Param{
		enum("status", "Version status", "open", "locked", "closed"),
		enum("sharing", "Sharing level", "none", "descendants", "hierarchy", "tree", "system"),
		str("due_date", "Due date, YYYY-MM-DD"),
		str("description", "Description"),
		str("wiki_page_title", "Wiki page title"),
	}
}

func versionTools() []Tool {
	versionID := required(integer("version_id", "Version id"))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_versions",
				Description: "Lists the versions of a project, including shared ones.",
				Category:    categoryPlanning,
				ReadOnly:    true,
				Params:      params(required(ref("project_id", "Project id or identifier"))),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := listAll(ctx, c, redmine.Path("projects", args.Ref("project_id"), "versions"), "versions", nil)
				return res, withID(err, args, "project_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "get_version",
				Description: "Returns a single version.",
				Category:    categoryPlanning,
				ReadOnly:    true,
				Params:      params(versionID),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := getEntity(ctx, c, redmine.Path("versions", args.Ref("version_id")), "version", nil)
				return res, withID(err, args, "version_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "create_version",
				Description: "Creates a version in a project.",
				Category:    categoryPlanning,
				Params: params(
					required(ref("project_id", "Project id or identifier")),
					required(str("name", "Version name")),
					versionFieldParams(),
				),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := createEntity(ctx, c, redmine.Path("projects", args.Ref("project_id"), "versions"), "version", args.Pick(versionFields...))
				return res, withID(err, args, "project_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "update_version",
				Description: "Updates a version. Only the supplied fields are changed.",
				Category:    categoryPlanning,
				Params: params(
					versionID,
					str("name", "Version name"),
					versionFieldParams(),
				),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				path := redmine.Path("versions", args.Ref("version_id"))
				return updateEntity(ctx, c, path, "version", args.Pick(versionFields...), "version_id", idOf(args, "version_id"), path)
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "delete_version",
				Description: "Deletes a version.",
				Category:    categoryPlanning,
				Destructive: true,
				Params:      params(versionID),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				return deleteEntity(ctx, c, redmine.Path("versions", args.Ref("version_id")), nil, "version_id", idOf(args, "version_id"))
			},
		},
	}
}
