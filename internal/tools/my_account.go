package tools

import (
	"context"

	"github.com/localrivet/redminemcp/internal/redmine"
)

func myAccountTools() []Tool {
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "get_my_account",
				Description: "Returns the account details of the current user, including the API key.",
				Category:    categoryUsers,
				ReadOnly:    true,
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				return getEntity(ctx, c, "/my/account", "user", nil)
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "update_my_account",
				Description: "Updates the account of the current user. Only the supplied fields are changed.",
				Category:    categoryUsers,
				Params: params(
					str("firstname", "First name"),
					str("lastname", "Last name"),
					str("mail", "Email address"),
					enum("mail_notification", "Mail notification option", "all", "selected", "only_my_events", "only_assigned", "only_owner", "none"),
					arrayOf("custom_fields", "Custom field values as {id, value}", TypeObject),
				),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				fields := args.Pick("firstname", "lastname", "mail", "mail_notification", "custom_fields")
				return updateEntity(ctx, c, "/my/account", "user", fields, "user_id", "current", "/my/account")
			},
		},
	}
}
