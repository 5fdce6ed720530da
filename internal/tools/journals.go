package tools

import (
	"context"
	"net/url"

	"github.com/localrivet/redminemcp/internal/redmine"
)

func journalTools() []Tool {
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_issue_journals",
				Description: "Lists the history entries (notes and attribute changes) of an issue.",
				Category:    categoryIssues,
				ReadOnly:    true,
				Params:      params(required(integer("issue_id", "Issue id"))),
			},
			Handler: listIssueJournals,
		},
		{
			Descriptor: Descriptor{
				Name:        "update_journal",
				Description: "Edits the notes of a history entry.",
				Category:    categoryIssues,
				Params: params(
					required(integer("journal_id", "Journal id")),
					required(str("notes", "New notes; an empty string removes the notes")),
					boolean("private_notes", "Whether the notes are private"),
				),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				fields := args.Pick("notes", "private_notes")
				return updateEntity(ctx, c, redmine.Path("journals", args.Ref("journal_id")), "journal", fields, "journal_id", idOf(args, "journal_id"), "")
			},
		},
	}
}

// listIssueJournals reads journals through the issue, the only endpoint
// that exposes them.
func listIssueJournals(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	query := url.Values{"include": {"journals"}}
	resp, err := c.Call(ctx, redmine.Get(redmine.Path("issues", args.Ref("issue_id")), query))
	if err != nil {
		return nil, withID(err, args, "issue_id")
	}
	items := itemsOf(resp, "issue.journals")
	return &ListResult{Items: items, TotalCount: len(items), Limit: len(items)}, nil
}
