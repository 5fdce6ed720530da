package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

func groupTools() []Tool {
	groupID := required(integer("group_id", "Group id"))
	userID := required(integer("user_id", "User id"))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_groups",
				Description: "Lists groups. Requires administrator rights.",
				Category:    categoryUsers,
				ReadOnly:    true,
				Params:      params(boolean("builtin", "Also list the built-in anonymous and non-member groups")),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				return listAll(ctx, c, "/groups", "groups", filterQuery(args, "builtin"))
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "get_group",
				Description: "Returns a single group.",
				Category:    categoryUsers,
				ReadOnly:    true,
				Params:      params(groupID, includes("users", "memberships")),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := getEntity(ctx, c, redmine.Path("groups", args.Ref("group_id")), "group", includeQuery(args, nil))
				return res, withID(err, args, "group_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "create_group",
				Description: "Creates a group.",
				Category:    categoryUsers,
				Params: params(
					required(str("name", "Group name")),
					arrayOf("user_ids", "Initial member user ids", TypeInteger),
					arrayOf("custom_fields", "Custom field values as {id, value}", TypeObject),
				),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				return createEntity(ctx, c, "/groups", "group", args.Pick("name", "user_ids", "custom_fields"))
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "update_group",
				Description: "Updates a group. Passing user_ids replaces the member list.",
				Category:    categoryUsers,
				Params: params(
					groupID,
					str("name", "Group name"),
					arrayOf("user_ids", "Member user ids", TypeInteger),
					arrayOf("custom_fields", "Custom field values as {id, value}", TypeObject),
				),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				path := redmine.Path("groups", args.Ref("group_id"))
				return updateEntity(ctx, c, path, "group", args.Pick("name", "user_ids", "custom_fields"), "group_id", idOf(args, "group_id"), path)
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "delete_group",
				Description: "Deletes a group.",
				Category:    categoryUsers,
				Destructive: true,
				Params:      params(groupID),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				return deleteEntity(ctx, c, redmine.Path("groups", args.Ref("group_id")), nil, "group_id", idOf(args, "group_id"))
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "add_user_to_group",
				Description: "Adds a user to a group.",
				Category:    categoryUsers,
				Params:      params(groupID, userID),
			},
			Handler: addUserToGroup,
		},
		{
			Descriptor: Descriptor{
				Name:        "remove_user_from_group",
				Description: "Removes a user from a group.",
				Category:    categoryUsers,
				Params:      params(groupID, userID),
			},
			Handler: removeUserFromGroup,
		},
	}
}

func addUserToGroup(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	if err := requireAll(args, "group_id", "user_id"); err != nil {
		return nil, err
	}
	body := map[string]interface{}{"user_id": idOf(args, "user_id")}
	if _, err := c.Call(ctx, redmine.Post(redmine.Path("groups", args.Ref("group_id"), "users"), body)); err != nil {
		return nil, withID(err, args, "group_id")
	}
	return StatusResult{"status": "user_added", "group_id": idOf(args, "group_id"), "user_id": idOf(args, "user_id")}, nil
}

func removeUserFromGroup(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	if err := requireAll(args, "group_id", "user_id"); err != nil {
		return nil, err
	}
	path := redmine.Path("groups", args.Ref("group_id"), "users", args.Ref("user_id"))
	if _, err := c.Call(ctx, redmine.Delete(path, nil)); err != nil {
		return nil, withID(err, args, "group_id")
	}
	return StatusResult{"status": "user_removed", "group_id": idOf(args, "group_id"), "user_id": idOf(args, "user_id")}, nil
}
