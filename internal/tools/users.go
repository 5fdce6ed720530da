package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

const categoryUsers = "users"

var userFields = []string{
	"login", "firstname", "lastname", "mail", "password", "generate_password",
	"auth_source_id", "mail_notification", "must_change_passwd", "admin", "status", "custom_fields",
}

func userFieldParams() []Param {
	return []Param{
		str("password", "Password"),
		boolean("generate_password", "Generate a random password"),
		integer("auth_source_id", "Authentication source id"),
		enum("mail_notification", "Mail notification option", "all", "selected", "only_my_events", "only_assigned", "only_owner", "none"),
		boolean("must_change_passwd", "Force a password change at next login"),
		boolean("admin", "Grant administrator rights"),
		integer("status", "1 active, 2 registered, 3 locked"),
		arrayOf("custom_fields", "Custom field values as {id, value}", TypeObject),
	}
}

func userTools() []Tool {
	userID := required(ref("user_id", "User id, or \"current\""))
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_users",
				Description: "Lists users. Requires administrator rights.",
				Category:    categoryUsers,
				ReadOnly:    true,
				Params: params(
					integer("status", "1 active, 2 registered, 3 locked; empty lists active users"),
					str("name", "Filter on login, first name, last name or mail"),
					integer("group_id", "Only members of this group"),
					paging(),
				),
			},
			Handler: listUsers,
		},
		{
			Descriptor: Descriptor{
				Name:        "get_user",
				Description: "Returns a single user.",
				Category:    categoryUsers,
				ReadOnly:    true,
				Params:      params(userID, includes("memberships", "groups")),
			},
			Handler: getUser,
		},
		{
			Descriptor: Descriptor{
				Name:        "get_current_user",
				Description: "Returns the user the credential belongs to.",
				Category:    categoryUsers,
				ReadOnly:    true,
				Params:      params(includes("memberships", "groups")),
			},
			Handler: getCurrentUser,
		},
		{
			Descriptor: Descriptor{
				Name:        "create_user",
				Description: "Creates a user. Requires administrator rights.",
				Category:    categoryUsers,
				Params: params(
					required(str("login", "Login")),
					required(str("firstname", "First name")),
					required(str("lastname", "Last name")),
					required(str("mail", "Email address")),
					userFieldParams(),
				),
			},
			Handler: createUser,
		},
		{
			Descriptor: Descriptor{
				Name:        "update_user",
				Description: "Updates a user. Only the supplied fields are changed.",
				Category:    categoryUsers,
				Params: params(
					userID,
					str("login", "Login"),
					str("firstname", "First name"),
					str("lastname", "Last name"),
					str("mail", "Email address"),
					userFieldParams(),
				),
			},
			Handler: updateUser,
		},
		{
			Descriptor: Descriptor{
				Name:        "delete_user",
				Description: "Deletes a user.",
				Category:    categoryUsers,
				Destructive: true,
				Params:      params(userID),
			},
			Handler: deleteUser,
		},
	}
}

func listUsers(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	return listPaged(ctx, c, "/users", "users", filterQuery(args, "status", "name", "group_id"), args)
}

func getUser(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	res, err := getEntity(ctx, c, redmine.Path("users", args.Ref("user_id")), "user", includeQuery(args, nil))
	return res, withID(err, args, "user_id")
}

func getCurrentUser(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	return getEntity(ctx, c, "/users/current", "user", includeQuery(args, nil))
}

func createUser(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	return createEntity(ctx, c, "/users", "user", args.Pick(userFields...))
}

func updateUser(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	path := redmine.Path("users", args.Ref("user_id"))
	return updateEntity(ctx, c, path, "user", args.Pick(userFields...), "user_id", idOf(args, "user_id"), path)
}

func deleteUser(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	return deleteEntity(ctx, c, redmine.Path("users", args.Ref("user_id")), nil, "user_id", idOf(args, "user_id"))
}
