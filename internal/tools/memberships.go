package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

func membershipTools() []Tool {
	membershipID := required(integer("membership_id", "Membership id"))
	roleIDs := required(arrayOf("role_ids", "Role ids", TypeInteger))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_memberships",
				Description: "Lists the members of a project.",
				Category:    categoryProjects,
				ReadOnly:    true,
				Params:      params(required(ref("project_id", "Project id or identifier")), paging()),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := listPaged(ctx, c, redmine.Path("projects", args.Ref("project_id"), "memberships"), "memberships", nil, args)
				return res, withID(err, args, "project_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "get_membership",
				Description: "Returns a single membership.",
				Category:    categoryProjects,
				ReadOnly:    true,
				Params:      params(membershipID),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := getEntity(ctx, c, redmine.Path("memberships", args.Ref("membership_id")), "membership", nil)
				return res, withID(err, args, "membership_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "create_membership",
				Description: "Adds a user or group to a project with the given roles.",
				Category:    categoryProjects,
				Params: params(
					required(ref("project_id", "Project id or identifier")),
					integer("user_id", "User id; either user_id or group_id is required"),
					integer("group_id", "Group id"),
					roleIDs,
				),
			},
			Handler: createMembership,
		},
		{
			Descriptor: Descriptor{
				Name:        "update_membership",
				Description: "Replaces the roles of a membership.",
				Category:    categoryProjects,
				Params:      params(membershipID, roleIDs),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				path := redmine.Path("memberships", args.Ref("membership_id"))
				return updateEntity(ctx, c, path, "membership", args.Pick("role_ids"), "membership_id", idOf(args, "membership_id"), path)
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "delete_membership",
				Description: "Removes a membership.",
				Category:    categoryProjects,
				Destructive: true,
				Params:      params(membershipID),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				return deleteEntity(ctx, c, redmine.Path("memberships", args.Ref("membership_id")), nil, "membership_id", idOf(args, "membership_id"))
			},
		},
	}
}

func createMembership(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	fields := args.Pick("role_ids")
	switch {
	case args.Has("user_id") && args.Has("group_id"):
		return nil, validationErrorf("only one of user_id and group_id may be given")
	case args.Has("user_id"):
		fields["user_id"] = idOf(args, "user_id")
	case args.Has("group_id"):
		// Redmine takes groups through user_id as well
		fields["user_id"] = idOf(args, "group_id")
	default:
		return nil, validationErrorf("either user_id or group_id is required")
	}
	if len(args.Strings("role_ids")) == 0 {
		return nil, validationErrorf("role_ids must not be empty")
	}
	res, err := createEntity(ctx, c, redmine.Path("projects", args.Ref("project_id"), "memberships"), "membership", fields)
	return res, withID(err, args, "project_id")
}
