package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/gmailkit/internal/client"
	"github.com/lu-zhengda/gmailkit/internal/label"
)

func newBulkCmd() *cobra.Command {
	var accountFlag string
	var commitFlag bool
	flags := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "bulk <action> [operand]",
		Short: "Apply an action to every message matching a search",
		Long: `Apply an action to every message matching the filter flags. Without
--commit the matching messages are only counted.

Actions: read, unread, star, unstar, important, unimportant, archive,
delete, add-label <name>, remove-label <name>, category <name>.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.from == "" && flags.to == "" && flags.cc == "" &&
				flags.bcc == "" && flags.subject == "" && flags.filename == "" &&
				flags.after == "" && flags.before == "" &&
				flags.larger == "" && flags.smaller == "" &&
				len(flags.has) == 0 && len(flags.labels) == 0 {
				return fmt.Errorf("refusing to run a bulk action without filters")
			}

			c, accountID, err := newClient(accountFlag)
			if err != nil {
				return err
			}

			s, err := buildSearch(cmd, c, flags)
			if err != nil {
				return err
			}

			action := args[0]
			operand := ""
			if len(args) > 1 {
				operand = args[1]
			}

			bc, err := resolveBulkAction(cmd, c, s.Bulk(), action, operand)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := bc.Open(ctx); err != nil {
				return err
			}
			if commitFlag {
				bc.Commit()
			}
			if err := bc.Close(ctx); err != nil {
				return err
			}

			out := jsonAction{
				OK:        true,
				Action:    action,
				AccountID: accountID,
				Label:     operand,
				Count:     bc.Count(),
				DryRun:    !commitFlag,
			}
			if jsonFlag {
				return printJSON(out)
			}
			if commitFlag {
				fmt.Printf("%s applied to %d message(s)\n", action, bc.Count())
			} else {
				fmt.Printf("%d message(s) match; re-run with --commit to apply %s\n", bc.Count(), action)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "account ID (defaults to config default or first account)")
	cmd.Flags().BoolVar(&commitFlag, "commit", false, "apply the action instead of counting matches")
	flags.register(cmd)
	return cmd
}

func resolveBulkAction(cmd *cobra.Command, c *client.Client, b client.BulkAction, action, operand string) (*client.BulkActionContext, error) {
	switch action {
	case "read":
		return b.MarkRead(true), nil
	case "unread":
		return b.MarkRead(false), nil
	case "star":
		return b.MarkStarred(true), nil
	case "unstar":
		return b.MarkStarred(false), nil
	case "important":
		return b.MarkImportant(true), nil
	case "unimportant":
		return b.MarkImportant(false), nil
	case "archive":
		return b.Archive(), nil
	case "delete":
		return b.Delete(), nil
	case "add-label", "remove-label":
		if operand == "" {
			return nil, fmt.Errorf("%s needs a label name", action)
		}
		tree, err := c.Labels(cmd.Context())
		if err != nil {
			return nil, err
		}
		node, err := tree.User(operand)
		if err != nil {
			return nil, fmt.Errorf("unknown label %q: %w", operand, err)
		}
		entity, err := node.Label(cmd.Context())
		if err != nil {
			return nil, err
		}
		if action == "add-label" {
			return b.AddLabels(entity), nil
		}
		return b.RemoveLabels(entity), nil
	case "category":
		if operand == "" {
			return nil, fmt.Errorf("category needs a category name")
		}
		node, err := categoryNode(c, cmd, operand)
		if err != nil {
			return nil, err
		}
		entity, err := node.Category(cmd.Context())
		if err != nil {
			return nil, err
		}
		return b.ChangeCategory(entity), nil
	default:
		return nil, fmt.Errorf("unknown bulk action %q", action)
	}
}

func categoryNode(c *client.Client, cmd *cobra.Command, name string) (*label.Node, error) {
	tree, err := c.Labels(cmd.Context())
	if err != nil {
		return nil, err
	}
	cats := tree.Categories
	switch strings.ToLower(name) {
	case "primary", "personal":
		return cats.Primary, nil
	case "social":
		return cats.Social, nil
	case "promotions":
		return cats.Promotions, nil
	case "updates":
		return cats.Updates, nil
	case "forums":
		return cats.Forums, nil
	default:
		return nil, fmt.Errorf("unknown category %q", name)
	}
}
