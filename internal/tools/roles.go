package tools

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/localrivet/redminemcp/internal/errortypes"
	"github.com/localrivet/redminemcp/internal/redmine"
)

func roleTools() []Tool {
	return []Tool{
		{
			Descriptor: Descriptor{
				Name:        "list_roles_detail",
				Description: "Lists every role with its permissions.",
				Category:    categoryReference,
				ReadOnly:    true,
			},
			Handler: listRolesDetail,
		},
		{
			Descriptor: Descriptor{
				Name:        "get_role",
				Description: "Returns a role with its permissions.",
				Category:    categoryReference,
				ReadOnly:    true,
				Params:      params(required(integer("role_id", "Role id"))),
			},
			Handler: func(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
				res, err := getEntity(ctx, c, redmine.Path("roles", args.Ref("role_id")), "role", nil)
				return res, withID(err, args, "role_id")
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "list_custom_fields",
				Description: "Lists all custom field definitions. Requires administrator rights.",
				Category:    categoryReference,
				ReadOnly:    true,
			},
			Handler: staticList("/custom_fields", "custom_fields"),
		},
	}
}

// roleFetchConcurrency bounds the per-role requests of list_roles_detail.
const roleFetchConcurrency = 4

// listRolesDetail fetches the role index and then each role, since only the
// per-role endpoint carries permissions. A failing role fails the whole call.
func listRolesDetail(ctx context.Context, c redmine.Caller, args Args) (interface{}, error) {
	index, err := listAll(ctx, c, "/roles", "roles", nil)
	if err != nil {
		return nil, err
	}

	detailed := make([]interface{}, len(index.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(roleFetchConcurrency)
	for i, item := range index.Items {
		role, _ := item.(map[string]interface{})
		id, ok := toInt(role["id"])
		if !ok {
			detailed[i] = item
			continue
		}
		g.Go(func() error {
			full, err := getEntity(gctx, c, redmine.Path("roles", id), "role", nil)
			if err != nil {
				return errortypes.WithResource(err, id)
			}
			detailed[i] = full
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	index.Items = detailed
	return index, nil
}
