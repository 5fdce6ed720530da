package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

// SearchResources are the result types search can be restricted to.
var SearchResources = []string{"issues", "news", "documents", "changesets", "wiki_pages", "messages", "projects"}

type searchArgs struct {
	Query      string   `json:"query"`
	ProjectID  string   `json:"project_id"`
	Scope      string   `json:"scope"`
	TitlesOnly bool     `json:"titles_only"`
	OpenIssues bool     `json:"open_issues"`
	AllWords   bool     `json:"all_words"`
	Resources  []string `json:"resources"`
}

func searchTools() []Tool {
	return []Tool{
		{
			Descriptor: Descriptor{
				Name: "search",
				Description: "Searches issues, projects, wiki pages, news, changesets, messages and documents. " +
					"Results keep the remote's relevance order and each carries its type.",
				Category: categoryContent,
				ReadOnly: true,
				Params: params(
					required(str("query", "Search text")),
					ref("project_id", "Limit the search to this project"),
					enum("scope", "Project scope", "all", "my_projects", "bookmarks", "subprojects"),
					boolean("titles_only", "Match titles only"),
					boolean("open_issues", "Only open issues"),
					boolean("all_words", "Require all words to match"),
					Param{
						Name:        "resources",
						Type:        TypeArray,
						Description: "Result types to include; all when omitted",
						Items:       &Param{Type: TypeString, Enum: SearchResources},
					},
					paging(),
				),
			},
			Handler: search,
		},
	}
}

func search(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	var in searchArgs
	if err := args.Decode(&in); err != nil {
		return nil, err
	}
	if in.Query == "" {
		return nil, validationErrorf("query must not be empty")
	}

	query := filterQuery(args, "query=q", "scope", "titles_only", "open_issues", "all_words")
	for _, r := range in.Resources {
		query.Set(r, "1")
	}

	path := "/search"
	if in.ProjectID != "" {
		path = redmine.Path("projects", args.Ref("project_id"), "search")
	}
	res, err := listPaged(ctx, c, path, "results", query, args)
	if err != nil {
		return nil, withID(err, args, "project_id")
	}
	for _, item := range res.Items {
		if m, ok := item.(map[string]interface{}); ok {
			if _, tagged := m["type"]; !tagged {
				m["type"] = "unknown"
			}
		}
	}
	return res, nil
}
