package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/redmine"
)

const categoryIssues = "issues"

var issueIncludes = []string{"children", "attachments", "relations", "changesets", "journals", "watchers", "allowed_statuses"}

// issueFields are the documented writable issue attributes. The issue
// object is open, so other attributes are forwarded as given.
func issueFields() []Param {
	return []Param{
		ref("project_id", "Project id or identifier"),
		str("subject", "Subject"),
		str("description", "Description"),
		integer("tracker_id", "Tracker id"),
		integer("status_id", "Status id"),
		integer("priority_id", "Priority id"),
		integer("category_id", "Category id"),
		integer("fixed_version_id", "Target version id"),
		integer("assigned_to_id", "Assignee user or group id"),
		integer("parent_issue_id", "Parent issue id"),
		str("start_date", "Start date, YYYY-MM-DD"),
		str("due_date", "Due date, YYYY-MM-DD"),
		number("estimated_hours", "Estimated hours"),
		integer("done_ratio", "Percent done, 0-100"),
		boolean("is_private", "Whether the issue is private"),
		arrayOf("watcher_user_ids", "Watcher user ids", TypeInteger),
		arrayOf("custom_fields", "Custom field values as {id, value}", TypeObject),
		arrayOf("uploads", "Attachments as {token, filename, content_type, description}", TypeObject),
	}
}

func issueTools() []Tool {
	issueID := required(integer("issue_id", "Issue id"))
	userID := required(integer("user_id", "User id"))

	createFields := issueFields()
	for i := range createFields {
		if createFields[i].Name == "project_id" || createFields[i].Name == "subject" {
			createFields[i].Required = true
		}
	}
	updateFields := append(issueFields(),
		str("notes", "Comment added to the issue history"),
		boolean("private_notes", "Whether the comment is private"),
	)

	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_issues",
				Description: "Lists issues matching the given filters.",
				Category:    categoryIssues,
				ReadOnly:    true,
				Params: params(
					ref("project_id", "Project id or identifier"),
					integer("subproject_id", "Subproject id; use with project_id"),
					ref("assigned_to_id", "Assignee id, or \"me\""),
					ref("status_id", "Status id, or open, closed, *"),
					integer("tracker_id", "Tracker id"),
					integer("priority_id", "Priority id"),
					ref("author_id", "Author id, or \"me\""),
					integer("fixed_version_id", "Target version id"),
					integer("query_id", "Saved query id"),
					str("created_on", "Creation date filter, e.g. >=2024-01-01 or ><2024-01-01|2024-01-31"),
					str("updated_on", "Update date filter"),
					str("sort", "Sort expression, e.g. updated_on:desc"),
					includes("attachments", "relations"),
					paging(),
				),
			},
			Handler: listIssues,
		},
		{
			Descriptor: Descriptor{
				Name:        "get_issue",
				Description: "Returns a single issue.",
				Category:    categoryIssues,
				ReadOnly:    true,
				Params:      params(issueID, includes(issueIncludes...)),
			},
			Handler: getIssue,
		},
		{
			Descriptor: Descriptor{
				Name:        "create_issue",
				Description: "Creates an issue. Attach files by passing upload tokens in issue.uploads.",
				Category:    categoryIssues,
				Params: params(
					required(object("issue", "Issue attributes; project_id and subject are required", createFields...)),
				),
			},
			Handler: createIssue,
		},
		{
			Descriptor: Descriptor{
				Name:        "update_issue",
				Description: "Updates an issue. Only the supplied attributes are changed.",
				Category:    categoryIssues,
				Params: params(
					issueID,
					required(object("issue", "Attributes to change", updateFields...)),
				),
			},
			Handler: updateIssue,
		},
		{
			Descriptor: Descriptor{
				Name:        "delete_issue",
				Description: "Deletes an issue.",
				Category:    categoryIssues,
				Destructive: true,
				Params:      params(issueID),
			},
			Handler: deleteIssue,
		},
		{
			Descriptor: Descriptor{
				Name:        "add_watcher",
				Description: "Adds a user as a watcher of an issue.",
				Category:    categoryIssues,
				Params:      params(issueID, userID),
			},
			Handler: addWatcher,
		},
		{
			Descriptor: Descriptor{
				Name:        "remove_watcher",
				Description: "Removes a user from the watchers of an issue.",
				Category:    categoryIssues,
				Params:      params(issueID, userID),
			},
			Handler: removeWatcher,
		},
	}
}

func listIssues(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	query := filterQuery(args,
		"project_id", "subproject_id", "assigned_to_id", "status_id", "tracker_id",
		"priority_id", "author_id", "fixed_version_id", "query_id", "created_on", "updated_on", "sort")
	return listPaged(ctx, c, "/issues", "issues", includeQuery(args, query), args)
}

func getIssue(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	res, err := getEntity(ctx, c, redmine.Path("issues", args.Ref("issue_id")), "issue", includeQuery(args, nil))
	return res, withID(err, args, "issue_id")
}

func createIssue(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	fields, _ := normalize(args.Object("issue")).(map[string]interface{})
	return createEntity(ctx, c, "/issues", "issue", fields)
}

func updateIssue(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	fields, _ := normalize(args.Object("issue")).(map[string]interface{})
	path := redmine.Path("issues", args.Ref("issue_id"))
	return updateEntity(ctx, c, path, "issue", fields, "issue_id", idOf(args, "issue_id"), path)
}

func deleteIssue(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	return deleteEntity(ctx, c, redmine.Path("issues", args.Ref("issue_id")), nil, "issue_id", idOf(args, "issue_id"))
}

func addWatcher(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	if err := requireAll(args, "issue_id", "user_id"); err != nil {
		return nil, err
	}
	body := map[string]interface{}{"user_id": idOf(args, "user_id")}
	if _, err := c.Call(ctx, redmine.Post(redmine.Path("issues", args.Ref("issue_id"), "watchers"), body)); err != nil {
		return nil, withID(err, args, "issue_id")
	}
	return StatusResult{"status": "watcher_added", "issue_id": idOf(args, "issue_id"), "user_id": idOf(args, "user_id")}, nil
}

func removeWatcher(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	if err := requireAll(args, "issue_id", "user_id"); err != nil {
		return nil, err
	}
	path := redmine.Path("issues", args.Ref("issue_id"), "watchers", args.Ref("user_id"))
	if _, err := c.Call(ctx, redmine.Delete(path, nil)); err != nil {
		return nil, withID(err, args, "issue_id")
	}
	return StatusResult{"status": "watcher_removed", "issue_id": idOf(args, "issue_id"), "user_id": idOf(args, "user_id")}, nil
}

// requireAll checks that every named identifier is present and non-empty.
func requireAll(args Args, names ...string) error {
	for _, name := range names {
		if !args.Has(name) || args.String(name) == "" {
			return errortypes.ValidationError(nil, "missing required parameter \""+name+"\"")
		}
	}
	return nil
}
