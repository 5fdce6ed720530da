package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/redmine"
)

const categoryTime = "time_entries"

var timeEntryFields = []string{"issue_id", "project_id", "spent_on", "hours", "activity_id", "comments", "user_id", "custom_fields"}

func timeEntryFieldParams() []Param {
	return []Param{
		integer("issue_id", "Issue id; either issue_id or project_id is required"),
		ref("project_id", "Project id or identifier"),
		str("spent_on", "Date, YYYY-MM-DD; defaults to today"),
		integer("activity_id", "Time entry activity id"),
		str("comments", "Short description"),
		integer("user_id", "Log time for another user"),
		arrayOf("custom_fields", "Custom field values as {id, value}", TypeObject),
	}
}

func timeEntryTools() []Tool {
	entryID := required(integer("time_entry_id", "Time entry id"))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_time_entries",
				Description: "Lists time entries.",
				Category:    categoryTime,
				ReadOnly:    true,
				Params: params(
					ref("user_id", "User id, or \"me\""),
					ref("project_id", "Project id or identifier"),
					integer("issue_id", "Issue id"),
					integer("activity_id", "Activity id"),
					str("spent_on", "Exact date, YYYY-MM-DD"),
					str("from_date", "Start of the date range, YYYY-MM-DD"),
					str("to_date", "End of the date range, YYYY-MM-DD"),
					paging(),
				),
			},
			Handler: listTimeEntries,
		},
		{
			Descriptor: Descriptor{
				Name:        "get_time_entry",
				Description: "Returns a single time entry.",
				Category:    categoryTime,
				ReadOnly:    true,
				Params:      params(entryID),
			},
			Handler: getTimeEntry,
		},
		{
			Descriptor: Descriptor{
				Name:        "create_time_entry",
				Description: "Logs time on an issue or project.",
				Category:    categoryTime,
				Params: params(
					required(number("hours", "Hours spent")),
					timeEntryFieldParams(),
				),
			},
			Handler: createTimeEntry,
		},
		{
			Descriptor: Descriptor{
				Name:        "update_time_entry",
				Description: "Updates a time entry. Only the supplied fields are changed.",
				Category:    categoryTime,
				Params: params(
					entryID,
					number("hours", "Hours spent"),
					timeEntryFieldParams(),
				),
			},
			Handler: updateTimeEntry,
		},
		{
			Descriptor: Descriptor{
				Name:        "delete_time_entry",
				Description: "Deletes a time entry.",
				Category:    categoryTime,
				Destructive: true,
				Params:      params(entryID),
			},
			Handler: deleteTimeEntry,
		},
	}
}

func listTimeEntries(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	query := filterQuery(args, "user_id", "project_id", "issue_id", "activity_id", "spent_on", "from_date=from", "to_date=to")
	return listPaged(ctx, c, "/time_entries", "time_entries", query, args)
}

func getTimeEntry(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	res, err := getEntity(ctx, c, redmine.Path("time_entries", args.Ref("time_entry_id")), "time_entry", nil)
	return res, withID(err, args, "time_entry_id")
}

func createTimeEntry(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	if !args.Has("issue_id") && !args.Has("project_id") {
		return nil, errortypes.ValidationError(nil, "either issue_id or project_id is required")
	}
	if hours, ok := args.Float("hours"); !ok || hours <= 0 {
		return nil, errortypes.ValidationError(nil, "hours must be greater than zero")
	}
	return createEntity(ctx, c, "/time_entries", "time_entry", args.Pick(timeEntryFields...))
}

func updateTimeEntry(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	path := redmine.Path("time_entries", args.Ref("time_entry_id"))
	return updateEntity(ctx, c, path, "time_entry", args.Pick(timeEntryFields...), "time_entry_id", idOf(args, "time_entry_id"), path)
}

func deleteTimeEntry(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	return deleteEntity(ctx, c, redmine.Path("time_entries", args.Ref("time_entry_id")), nil, "time_entry_id", idOf(args, "time_entry_id"))
}
