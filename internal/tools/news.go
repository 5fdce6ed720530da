package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

const categoryContent = "content"

func newsTools() []Tool {
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_news",
				Description: "Lists news, across all projects or for one project.",
				Category:    categoryContent,
				ReadOnly:    true,
				Params:      params(ref("project_id", "Project id or identifier"), paging()),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				path := "/news"
				if args.Has("project_id") {
					path = redmine.Path("projects", args.Ref("project_id"), "news")
				}
				res, err := listPaged(ctx, c, path, "news", nil, args)
				return res, withID(err, args, "project_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "get_news",
				Description: "Returns a single news item.",
				Category:    categoryContent,
				ReadOnly:    true,
				Params:      params(required(integer("news_id", "News id")), includes("attachments", "comments")),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := getEntity(ctx, c, redmine.Path("news", args.Ref("news_id")), "news", includeQuery(args, nil))
				return res, withID(err, args, "news_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name: "list_queries",
				Description: "Lists the saved issue queries visible to the current user. With project_id, " +
					"only global queries and those of that project are kept from the fetched page.",
				Category: categoryContent,
				ReadOnly: true,
				Params:   params(integer("project_id", "Project id"), paging()),
			},
			Handler: listQueries,
		},
	}
}

func listQueries(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	res, err := listPaged(ctx, c, "/queries", "queries", nil, args)
	if err != nil || !args.Has("project_id") {
		return res, err
	}
	want, _ := args.Int("project_id")
	kept := make([]interface{}, 0, len(res.Items))
	for _, item := range res.Items {
		q, _ := item.(map[string]interface{})
		pid, scoped := toInt(q["project_id"])
		if !scoped || pid == want {
			kept = append(kept, item)
		}
	}
	res.Items = kept
	return res, nil
}
