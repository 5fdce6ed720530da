package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

func fileTools() []Tool {
	projectID := required(ref("project_id", "Project id or identifier"))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_files",
				Description: "Lists the files published in a project's Files section.",
				Category:    categoryAttachments,
				ReadOnly:    true,
				Params:      params(projectID),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := listAll(ctx, c, redmine.Path("projects", args.Ref("project_id"), "files"), "files", nil)
				return res, withID(err, args, "project_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "create_file",
				Description: "Publishes an uploaded file (see upload_file) in a project's Files section.",
				Category:    categoryAttachments,
				Params: params(
					projectID,
					required(str("token", "Upload token returned by upload_file")),
					str("filename", "File name; defaults to the uploaded name"),
					str("description", "Description"),
					integer("version_id", "Version the file belongs to"),
				),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				path := redmine.Path("projects", args.Ref("project_id"), "files")
				res, err := createEntity(ctx, c, path, "file", args.Pick("token", "filename", "description", "version_id"))
				return res, withID(err, args, "project_id")
			},
		},
	}
}
