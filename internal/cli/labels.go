package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/gmailkit/internal/domain"
	"github.com/lu-zhengda/gmailkit/internal/label"
	"github.com/lu-zhengda/gmailkit/internal/provider"
)

func newLabelsCmd() *cobra.Command {
	var accountFlag string
	var cachedFlag bool

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Show the label hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cachedFlag {
				return listCachedLabels(cmd, accountFlag)
			}

			c, _, err := newClient(accountFlag)
			if err != nil {
				return err
			}

			tree, err := c.Labels(cmd.Context())
			if err != nil {
				return err
			}

			if jsonFlag {
				var labels []domain.Label
				var walk func(nodes []*label.Node) error
				walk = func(nodes []*label.Node) error {
					for _, n := range nodes {
						entity, err := n.Label(cmd.Context())
						if err != nil {
							return err
						}
						labels = append(labels, entity.Info)
						if err := walk(n.Children()); err != nil {
							return err
						}
					}
					return nil
				}
				if err := walk(tree.Roots()); err != nil {
					return err
				}
				return printJSON(toJSONLabels(labels))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tID")
			var render func(nodes []*label.Node, depth int)
			render = func(nodes []*label.Node, depth int) {
				for _, n := range nodes {
					fmt.Fprintf(w, "%s%s\t%s\n", strings.Repeat("  ", depth), n.Segment(), n.ID())
					render(n.Children(), depth+1)
				}
			}
			render(tree.Roots(), 0)
			return w.Flush()
		},
	}

	cmd.PersistentFlags().StringVar(&accountFlag, "account", "", "account ID (defaults to config default or first account)")
	cmd.Flags().BoolVar(&cachedFlag, "cached", false, "read labels from the local cache instead of the remote")
	cmd.AddCommand(newLabelsCreateCmd(&accountFlag))
	cmd.AddCommand(newLabelsRenameCmd(&accountFlag))
	cmd.AddCommand(newLabelsDeleteCmd(&accountFlag))
	return cmd
}

func listCachedLabels(cmd *cobra.Command, accountFlag string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accountID := accountFlag
	if accountID == "" {
		accountID, err = resolveAccountID(db, cfg)
		if err != nil {
			return err
		}
	}

	labels, err := db.ListLabels(cmd.Context(), accountID)
	if err != nil {
		return err
	}

	if jsonFlag {
		return printJSON(toJSONLabels(labels))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tTOTAL\tUNREAD")
	for _, l := range labels {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", l.Name, l.ID, l.MessagesTotal, l.MessagesUnread)
	}
	return w.Flush()
}

func newLabelsCreateCmd(accountFlag *string) *cobra.Command {
	var background, text string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a label (slashes nest it under its parent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			c, _, err := newClient(*accountFlag)
			if err != nil {
				return err
			}
			tree, err := c.Labels(cmd.Context())
			if err != nil {
				return err
			}

			created, err := tree.CreateLabel(cmd.Context(), provider.LabelPatch{
				Name:            name,
				BackgroundColor: background,
				TextColor:       text,
			})
			if err != nil {
				return fmt.Errorf("failed to create label %s: %w", name, err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "create", Label: created.Name()})
			}
			fmt.Printf("Label created: %s (%s)\n", created.Name(), created.ID())
			return nil
		},
	}

	cmd.Flags().StringVar(&background, "background", "", "background color, e.g. #cc3a21")
	cmd.Flags().StringVar(&text, "text", "", "text color, e.g. #ffffff")
	return cmd
}

func newLabelsRenameCmd(accountFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-path>",
		Short: "Rename a label (moving it in the hierarchy if the path changes)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPath, newPath := args[0], args[1]

			c, _, err := newClient(*accountFlag)
			if err != nil {
				return err
			}
			tree, err := c.Labels(cmd.Context())
			if err != nil {
				return err
			}

			node, err := tree.User(oldPath)
			if err != nil {
				return err
			}
			entity, err := node.Label(cmd.Context())
			if err != nil {
				return err
			}
			if err := entity.Update(cmd.Context(), provider.LabelPatch{Name: newPath}); err != nil {
				return fmt.Errorf("failed to rename label %s: %w", oldPath, err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "rename", Label: newPath})
			}
			fmt.Printf("Label renamed: %s -> %s\n", oldPath, newPath)
			return nil
		},
	}
}

func newLabelsDeleteCmd(accountFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a label and its sublabels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			c, _, err := newClient(*accountFlag)
			if err != nil {
				return err
			}
			tree, err := c.Labels(cmd.Context())
			if err != nil {
				return err
			}

			node, err := tree.User(path)
			if err != nil {
				return err
			}
			entity, err := node.Label(cmd.Context())
			if err != nil {
				return err
			}
			if err := entity.Delete(cmd.Context(), true); err != nil {
				return fmt.Errorf("failed to delete label %s: %w", path, err)
			}

			if jsonFlag {
				return printJSON(jsonAction{OK: true, Action: "delete", Label: path})
			}
			fmt.Printf("Label deleted: %s\n", path)
			return nil
		},
	}
}
