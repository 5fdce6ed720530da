package tools

import (
	"context"
	"net/http"

	"github.com/localrivet/redminemcp/internal/redmine"
)

const categoryWiki = "wiki"

func wikiTools() []Tool {
	projectID := required(ref("project_id", "Project id or identifier"))
	pageName := required(str("page_name", "Wiki page title; any Unicode is allowed"))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_wiki_pages",
				Description: "Lists the wiki pages of a project.",
				Category:    categoryWiki,
				ReadOnly:    true,
				Params:      params(projectID),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := listAll(ctx, c, redmine.Path("projects", args.Ref("project_id"), "wiki", "index"), "wiki_pages", nil)
				return res, withID(err, args, "project_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "get_wiki_page",
				Description: "Returns a wiki page, optionally at an older version.",
				Category:    categoryWiki,
				ReadOnly:    true,
				Params: params(
					projectID,
					pageName,
					integer("version", "Page version; latest when omitted"),
					includes("attachments"),
				),
			},
			Handler: getWikiPage,
		},
		{
			Descriptor: Descriptor{
				Name:        "create_or_update_wiki_page",
				Description: "Creates a wiki page or replaces the text of an existing one.",
				Category:    categoryWiki,
				Params: params(
					projectID,
					pageName,
					required(str("text", "Page content")),
					str("comments", "Change comment"),
					str("parent_title", "Title of the parent page"),
					integer("version", "Expected current version; the update is rejected when the page changed since"),
					arrayOf("uploads", "Attachments as {token, filename, content_type}", TypeObject),
				),
			},
			Handler: putWikiPage,
		},
		{
			Descriptor: Descriptor{
				Name:        "delete_wiki_page",
				Description: "Deletes a wiki page and its history.",
				Category:    categoryWiki,
				Destructive: true,
				Params:      params(projectID, pageName),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				path := redmine.Path("projects", args.Ref("project_id"), "wiki", args.String("page_name"))
				return deleteEntity(ctx, c, path, nil, "page_name", args.String("page_name"))
			},
		},
	}
}

func getWikiPage(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	segments := []interface{}{"projects", args.Ref("project_id"), "wiki", args.String("page_name")}
	if args.Has("version") {
		segments = append(segments, args.String("version"))
	}
	res, err := getEntity(ctx, c, redmine.Path(segments...), "wiki_page", includeQuery(args, nil))
	return res, withID(err, args, "page_name")
}

func putWikiPage(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	title := args.String("page_name")
	path := redmine.Path("projects", args.Ref("project_id"), "wiki", title)
	fields := args.Pick("text", "comments", "parent_title", "version", "uploads")

	resp, err := c.Call(ctx, redmine.Put(path, map[string]interface{}{"wiki_page": fields}))
	if err != nil {
		return nil, withID(err, args, "page_name")
	}
	if resp.Status == http.StatusCreated && !resp.Empty() {
		return StatusResult{"status": "created", "page_name": title, "wiki_page": unwrap(resp, "wiki_page")}, nil
	}
	return StatusResult{"status": "updated", "page_name": title}, nil
}
