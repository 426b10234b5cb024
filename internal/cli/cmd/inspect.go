package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"parley/pkg/store/keys"
)

type inspectReport struct {
	SchemaVersion string             `json:"schema_version"`
	TotalKeys     int                `json:"total_keys"`
	ValueBytes    uint64             `json:"value_bytes"`
	Conversations []conversationKeys `json:"conversations"`
	OtherKeys     []string           `json:"other_keys,omitempty"`
}

type conversationKeys struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name,omitempty"`
	MessageBytes int    `json:"message_bytes"`
}

func newInspectCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the keys stored in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := o.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			rep := inspectReport{}
			byID := map[string]*conversationKeys{}
			var order []string
			err = db.Scan("", func(k, v []byte) error {
				key := string(k)
				rep.TotalKeys++
				rep.ValueBytes += uint64(len(v))
				if key == keys.SystemVersionKey {
					rep.SchemaVersion = string(v)
					return nil
				}
				parts, perr := keys.ParseConversationKey(key)
				if perr != nil {
					rep.OtherKeys = append(rep.OtherKeys, key)
					return nil
				}
				c, ok := byID[parts.ConversationID]
				if !ok {
					c = &conversationKeys{ID: parts.ConversationID}
					byID[parts.ConversationID] = c
					order = append(order, parts.ConversationID)
				}
				switch parts.Kind {
				case keys.KindMessages:
					c.MessageBytes = len(v)
				case keys.KindName:
					c.DisplayName = string(v)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			rep.Conversations = make([]conversationKeys, 0, len(order))
			for _, id := range order {
				rep.Conversations = append(rep.Conversations, *byID[id])
			}

			w := cmd.OutOrStdout()
			if o.json(w) {
				return writeJSON(w, rep)
			}
			fmt.Fprintln(w, "Database keys")
			fmt.Fprintln(w, "=====================================")
			fmt.Fprintf(w, "  Schema version: %s\n", rep.SchemaVersion)
			fmt.Fprintf(w, "  Total keys: %s\n", humanize.Comma(int64(rep.TotalKeys)))
			fmt.Fprintf(w, "  Value bytes: %s\n", humanize.Bytes(rep.ValueBytes))
			fmt.Fprintf(w, "  Conversations: %d\n", len(rep.Conversations))
			for _, c := range rep.Conversations[:o.capped(len(rep.Conversations))] {
				name := c.DisplayName
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(w, "    %-24s %-24s %s\n", c.ID, name, humanize.Bytes(uint64(c.MessageBytes)))
			}
			if len(rep.OtherKeys) > 0 {
				fmt.Fprintf(w, "  Unrecognised keys: %d\n", len(rep.OtherKeys))
			}
			return nil
		},
	}
}
