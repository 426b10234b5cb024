package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type rawEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
	Raw   string          `json:"raw,omitempty"`
}

func newDebugCmd(o *options) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Print raw keys and values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := o.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var entries []rawEntry
			err = db.Scan(prefix, func(k, v []byte) error {
				if o.limit > 0 && len(entries) >= o.limit {
					return nil
				}
				e := rawEntry{Key: string(k)}
				if json.Valid(v) {
					e.Value = append(json.RawMessage(nil), v...)
				} else {
					e.Raw = string(v)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			w := cmd.OutOrStdout()
			if o.json(w) {
				return writeJSON(w, entries)
			}
			for i, e := range entries {
				fmt.Fprintf(w, "\nKey %d: %s\n", i+1, e.Key)
				if e.Value != nil {
					var pretty bytes.Buffer
					_ = json.Indent(&pretty, e.Value, "", "  ")
					fmt.Fprintf(w, "Value: %s\n", pretty.String())
				} else {
					fmt.Fprintf(w, "Value (raw): %q\n", e.Raw)
				}
			}
			fmt.Fprintf(w, "\nTotal keys printed: %d\n", len(entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only keys starting with this prefix")
	return cmd
}
