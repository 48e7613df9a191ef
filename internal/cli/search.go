package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lu-zhengda/gmailkit/internal/client"
	"github.com/lu-zhengda/gmailkit/internal/query"
)

// searchFlags collects the filter surface shared by search and bulk.
type searchFlags struct {
	from     string
	to       string
	cc       string
	bcc      string
	subject  string
	filename string
	after    string
	before   string
	larger   string
	smaller  string
	has      []string
	labels   []string
	order    []string

	limit        int64
	unlimited    bool
	includeTrash bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "sender address")
	cmd.Flags().StringVar(&f.to, "to", "", "recipient address")
	cmd.Flags().StringVar(&f.cc, "cc", "", "cc address")
	cmd.Flags().StringVar(&f.bcc, "bcc", "", "bcc address")
	cmd.Flags().StringVar(&f.subject, "subject", "", "subject contains")
	cmd.Flags().StringVar(&f.filename, "filename", "", "attachment filename")
	cmd.Flags().StringVar(&f.after, "after", "", "received after date (2006-01-02)")
	cmd.Flags().StringVar(&f.before, "before", "", "received before date (2006-01-02)")
	cmd.Flags().StringVar(&f.larger, "larger", "", "size larger than, e.g. 2M")
	cmd.Flags().StringVar(&f.smaller, "smaller", "", "size smaller than, e.g. 500K")
	cmd.Flags().StringSliceVar(&f.has, "has", nil, "required attribute: attachment, drive, document, spreadsheet, presentation, youtube")
	cmd.Flags().StringSliceVar(&f.labels, "label", nil, "restrict to label (path for nested labels, repeatable)")
	cmd.Flags().StringSliceVar(&f.order, "order", nil, "sort key: date, size, from, to, subject (prefix with - for descending)")
	cmd.Flags().Int64Var(&f.limit, "limit", 0, "maximum results (defaults to one batch)")
	cmd.Flags().BoolVar(&f.unlimited, "unlimited", false, "fetch every match")
	cmd.Flags().BoolVar(&f.includeTrash, "include-trash", false, "include spam and trash")
}

// buildQuery translates the filter flags into a query expression. Returns
// nil when no filter flags were given.
func buildQuery(f *searchFlags) (query.Term, error) {
	var terms []query.Term

	if f.from != "" {
		terms = append(terms, query.From.Eq(f.from))
	}
	if f.to != "" {
		terms = append(terms, query.To.Eq(f.to))
	}
	if f.cc != "" {
		terms = append(terms, query.Cc.Eq(f.cc))
	}
	if f.bcc != "" {
		terms = append(terms, query.Bcc.Eq(f.bcc))
	}
	if f.subject != "" {
		terms = append(terms, query.Subject.Contains(f.subject))
	}
	if f.filename != "" {
		terms = append(terms, query.Filename.Eq(f.filename))
	}
	if f.after != "" {
		terms = append(terms, query.Date.Gt(f.after))
	}
	if f.before != "" {
		terms = append(terms, query.Date.Lt(f.before))
	}
	if f.larger != "" {
		terms = append(terms, query.Size.Gt(f.larger))
	}
	if f.smaller != "" {
		terms = append(terms, query.Size.Lt(f.smaller))
	}

	for _, h := range f.has {
		flag, err := hasFlag(h)
		if err != nil {
			return nil, err
		}
		terms = append(terms, flag)
	}

	if len(terms) == 0 {
		return nil, nil
	}

	out := terms[0]
	for _, t := range terms[1:] {
		out = out.And(t)
	}
	return out, nil
}

func hasFlag(name string) (query.Term, error) {
	switch name {
	case "attachment":
		return query.Has.Attachment, nil
	case "drive":
		return query.Has.Drive, nil
	case "document":
		return query.Has.Document, nil
	case "spreadsheet":
		return query.Has.Spreadsheet, nil
	case "presentation":
		return query.Has.Presentation, nil
	case "youtube":
		return query.Has.YoutubeVideo, nil
	case "userlabels":
		return query.Has.UserLabels, nil
	default:
		return nil, fmt.Errorf("unknown --has attribute %q", name)
	}
}

// buildOrdering translates --order tokens into ordering keys.
func buildOrdering(tokens []string) ([]query.Ordering, error) {
	var out []query.Ordering
	for _, tok := range tokens {
		descending := false
		name := tok
		if len(tok) > 0 && tok[0] == '-' {
			descending = true
			name = tok[1:]
		}

		var field query.Orderable
		switch name {
		case "date":
			field = query.ByDate
		case "size":
			field = query.BySize
		case "from":
			field = query.ByFrom
		case "to":
			field = query.ByTo
		case "subject":
			field = query.BySubject
		default:
			return nil, fmt.Errorf("unknown --order key %q", tok)
		}

		if descending {
			out = append(out, field.Desc())
		} else {
			out = append(out, field.Asc())
		}
	}
	return out, nil
}

// buildSearch assembles a Search from the flags, resolving label names
// through the hierarchy.
func buildSearch(cmd *cobra.Command, c *client.Client, f *searchFlags) (*client.Search, error) {
	where, err := buildQuery(f)
	if err != nil {
		return nil, err
	}
	ordering, err := buildOrdering(f.order)
	if err != nil {
		return nil, err
	}

	s := c.Messages()
	if where != nil {
		s = s.Where(where)
	}
	if len(ordering) > 0 {
		s = s.OrderBy(ordering...)
	}
	if f.unlimited {
		s = s.Unlimited()
	} else if f.limit > 0 {
		s = s.Limit(f.limit)
	}
	if f.includeTrash {
		s = s.IncludeTrash(true)
	}

	if len(f.labels) > 0 {
		tree, err := c.Labels(cmd.Context())
		if err != nil {
			return nil, err
		}
		var in []client.Labeled
		for _, name := range f.labels {
			node, err := tree.ByName(name)
			if err != nil {
				return nil, fmt.Errorf("unknown label %q: %w", name, err)
			}
			in = append(in, node)
		}
		s = s.In(in...)
	}

	return s, nil
}

func newSearchCmd() *cobra.Command {
	var accountFlag string
	var cachedFlag bool
	flags := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search messages",
		Long: `Search messages with structured filters. A positional argument is passed
through as a raw query alongside the filters. With --cached it is a
full-text query against the local snapshot cache instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cachedFlag {
				if len(args) == 0 {
					return fmt.Errorf("--cached needs a full-text query argument")
				}
				return searchCached(cmd, accountFlag, args[0])
			}

			c, _, err := newClient(accountFlag)
			if err != nil {
				return err
			}

			s, err := buildSearch(cmd, c, flags)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				s = s.WhereRaw(args[0])
			}

			messages, err := s.Execute(cmd.Context())
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONMessages(messages))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tFROM\tSUBJECT\tID")
			for _, m := range messages {
				from := ""
				if m.From != nil {
					from = m.From.Email
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					m.Date.Format(time.DateOnly), from, m.Subject, m.ID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "account ID (defaults to config default or first account)")
	cmd.Flags().BoolVar(&cachedFlag, "cached", false, "search the local snapshot cache")
	flags.register(cmd)
	return cmd
}

func searchCached(cmd *cobra.Command, accountFlag, text string) error {
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

	messages, err := db.SearchMessages(cmd.Context(), text, accountID)
	if err != nil {
		return err
	}

	if jsonFlag {
		return printJSON(toJSONCachedMessages(messages))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tFROM\tSUBJECT\tID")
	for _, m := range messages {
		from := ""
		if m.From != nil {
			from = m.From.Email
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			m.Date.Format(time.DateOnly), from, m.Subject, m.ID)
	}
	return w.Flush()
}

func newReadCmd() *cobra.Command {
	var accountFlag string

	cmd := &cobra.Command{
		Use:   "read <message-id>",
		Short: "Show a single message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newClient(accountFlag)
			if err != nil {
				return err
			}

			msg, err := c.Message(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonFlag {
				return printJSON(toJSONMessageDetail(msg))
			}

			if msg.From != nil {
				fmt.Printf("From:    %s\n", msg.From.String())
			}
			for _, a := range msg.To {
				fmt.Printf("To:      %s\n", a.String())
			}
			fmt.Printf("Date:    %s\n", msg.Date.Format(time.RFC1123))
			fmt.Printf("Subject: %s\n", msg.Subject)
			for _, l := range msg.Labels() {
				fmt.Printf("Label:   %s\n", l.Name())
			}
			if cat := msg.Category(); cat != nil {
				fmt.Printf("Category: %s\n", cat.Name())
			}
			fmt.Println()
			fmt.Println(msg.Body.Text)
			for _, a := range msg.Attachments {
				fmt.Printf("\n[attachment] %s (%s, %d bytes)\n", a.Filename, a.MIMEType, a.Size)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountFlag, "account", "", "account ID (defaults to config default or first account)")
	return cmd
}
