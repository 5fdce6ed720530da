package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

// RelationTypes are the relation kinds Redmine accepts.
var RelationTypes = []string{
	"relates", "duplicates", "duplicated", "blocks", "blocked",
	"precedes", "follows", "copied_to", "copied_from",
}

func relationTools() []Tool {
	relationID := required(integer("relation_id", "Relation id"))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_issue_relations",
				Description: "Lists the relations of an issue.",
				Category:    categoryIssues,
				ReadOnly:    true,
				Params:      params(required(integer("issue_id", "Issue id"))),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := listAll(ctx, c, redmine.Path("issues", args.Ref("issue_id"), "relations"), "relations", nil)
				return res, withID(err, args, "issue_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "create_issue_relation",
				Description: "Relates two issues.",
				Category:    categoryIssues,
				Params: params(
					required(integer("issue_id", "Source issue id")),
					required(integer("issue_to_id", "Target issue id")),
					required(enum("relation_type", "Relation type", RelationTypes...)),
					integer("delay", "Delay in days; only for precedes and follows"),
				),
			},
			Handler: createIssueRelation,
		},
		{
			Descriptor: Descriptor{
				Name:        "get_issue_relation",
				Description: "Returns a single relation.",
				Category:    categoryIssues,
				ReadOnly:    true,
				Params:      params(relationID),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := getEntity(ctx, c, redmine.Path("relations", args.Ref("relation_id")), "relation", nil)
				return res, withID(err, args, "relation_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "delete_issue_relation",
				Description: "Deletes a relation.",
				Category:    categoryIssues,
				Destructive: true,
				Params:      params(relationID),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				return deleteEntity(ctx, c, redmine.Path("relations", args.Ref("relation_id")), nil, "relation_id", idOf(args, "relation_id"))
			},
		},
	}
}

func createIssueRelation(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	if err := requireAll(args, "issue_id", "issue_to_id"); err != nil {
		return nil, err
	}
	if args.Has("delay") {
		if t := args.String("relation_type"); t != "precedes" && t != "follows" {
			return nil, validationErrorf("delay is only valid for precedes and follows relations, not %q", t)
		}
	}
	res, err := createEntity(ctx, c, redmine.Path("issues", args.Ref("issue_id"), "relations"), "relation",
		args.Pick("issue_to_id", "relation_type", "delay"))
	return res, withID(err, args, "issue_id")
}
