package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

const categoryProjects = "projects"

var projectIncludes = []string{"trackers", "issue_categories", "enabled_modules", "time_entry_activities", "issue_custom_fields"}

var projectFields = []string{
	"name", "identifier", "description", "homepage", "is_public", "parent_id",
	"inherit_members", "default_assigned_to_id", "default_version_id",
	"tracker_ids", "enabled_module_names", "issue_custom_field_ids", "custom_fields",
}

func projectFieldParams() []Param {
	return []Param{
		str("description", "Project description"),
		str("homepage", "Homepage URL"),
		boolean("is_public", "Whether the project is public"),
		ref("parent_id", "Parent project id"),
		boolean("inherit_members", "Inherit members from the parent project"),
		integer("default_assigned_to_id", "Default assignee user id"),
		integer("default_version_id", "Default target version id"),
		arrayOf("tracker_ids", "Enabled tracker ids", TypeInteger),
		arrayOf("enabled_module_names", "Enabled module names, e.g. issue_tracking, wiki", TypeString),
		arrayOf("issue_custom_field_ids", "Enabled issue custom field ids", TypeInteger),
		arrayOf("custom_fields", "Custom field values as {id, value}", TypeObject),
	}
}

func projectTools() []Tool {
	projectID := required(ref("project_id", "Project id or identifier"))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_projects",
				Description: "Lists projects visible to the current user.",
				Category:    categoryProjects,
				ReadOnly:    true,
				Params: params(
					boolean("include_archived", "Also list archived and closed projects"),
					includes(projectIncludes...),
					paging(),
				),
			},
			Handler: listProjects,
		},
		{
			Descriptor: Descriptor{
				Name:        "get_project",
				Description: "Returns a single project.",
				Category:    categoryProjects,
				ReadOnly:    true,
				Params: params(
					projectID,
					includes(projectIncludes...),
				),
			},
			Handler: getProject,
		},
		{
			Descriptor: Descriptor{
				Name:        "create_project",
				Description: "Creates a project.",
				Category:    categoryProjects,
				Params: params(
					required(str("name", "Project name")),
					required(str("identifier", "Unique identifier used in URLs: lowercase letters, digits, dashes and underscores")),
					projectFieldParams(),
				),
			},
			Handler: createProject,
		},
		{
			Descriptor: Descriptor{
				Name:        "update_project",
				Description: "Updates a project. Only the supplied fields are changed.",
				Category:    categoryProjects,
				Params: params(
					projectID,
					str("name", "Project name"),
					projectFieldParams(),
				),
			},
			Handler: updateProject,
		},
		{
			Descriptor: Descriptor{
				Name:        "delete_project",
				Description: "Deletes a project and all of its data.",
				Category:    categoryProjects,
				Destructive: true,
				Params:      params(projectID),
			},
			Handler: deleteProject,
		},
		{
			Descriptor: Descriptor{
				Name:        "archive_project",
				Description: "Archives a project.",
				Category:    categoryProjects,
				Params:      params(projectID),
			},
			Handler: projectStatusChanger("archive", "archived"),
		},
		{
			Descriptor: Descriptor{
				Name:        "unarchive_project",
				Description: "Unarchives a project.",
				Category:    categoryProjects,
				Params:      params(projectID),
			},
			Handler: projectStatusChanger("unarchive", "unarchived"),
		},
	}
}

func listProjects(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	query := includeQuery(args, nil)
	if archived, _ := args.Bool("include_archived"); archived {
		query.Set("status", "*")
	}
	return listPaged(ctx, c, "/projects", "projects", query, args)
}

func getProject(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	res, err := getEntity(ctx, c, redmine.Path("projects", args.Ref("project_id")), "project", includeQuery(args, nil))
	return res, withID(err, args, "project_id")
}

func createProject(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	return createEntity(ctx, c, "/projects", "project", args.Pick(projectFields...))
}

func updateProject(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	path := redmine.Path("projects", args.Ref("project_id"))
	return updateEntity(ctx, c, path, "project", args.Pick(projectFields...), "project_id", idOf(args, "project_id"), path)
}

func deleteProject(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	return deleteEntity(ctx, c, redmine.Path("projects", args.Ref("project_id")), nil, "project_id", idOf(args, "project_id"))
}

// projectStatusChanger builds the archive and unarchive handlers, which
// PUT to a sub-resource with no body.
func projectStatusChanger(action, status string) Handler {
	return func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
		path := redmine.Path("projects", args.Ref("project_id"), action)
		if _, err := c.Call(ctx, redmine.Put(path, nil)); err != nil {
			return nil, withID(err, args, "project_id")
		}
		return StatusResult{"status": status, "project_id": idOf(args, "project_id")}, nil
	}
}
