package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"parley/pkg/search"
)

func newSearchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>...",
		Short: "Search messages with the query language",
		Long: `Search every conversation. The query mixes free text with filters:

  from:<sender>  in:<conversation name>  has:reaction|link|file|pin
  before:<date>  after:<date>

Dates are YYYY-MM-DD or RFC 3339.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := o.load()
			if err != nil {
				return err
			}
			defer v.Close()

			q := search.ParseQuery(strings.Join(args, " "))
			results := v.engine.Search(q.FreeText, q.Filter, v.dir.Lookup())
			results = results[:o.capped(len(results))]

			w := cmd.OutOrStdout()
			if o.json(w) {
				return writeJSON(w, results)
			}
			fmt.Fprintf(w, "query: %s\n", q)
			for _, r := range results {
				fmt.Fprintf(w, "\n#%s ", r.ConversationDisplayName)
				printMessage(w, r.Message, "")
				for _, h := range r.Highlights {
					fmt.Fprintf(w, "    %s\n", h)
				}
			}
			fmt.Fprintf(w, "\n%d result(s)\n", len(results))
			return nil
		},
	}
}
