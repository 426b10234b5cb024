package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"parley/pkg/models"
	"parley/pkg/reactions"
)

type finding struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Problem        string `json:"problem"`
}

// checkConversation reports stored state that the server would repair on
// load: malformed reaction lists and thread aggregates that disagree with
// the replies present.
func checkConversation(cid string, msgs []models.Message) []finding {
	var out []finding
	replies := map[string]int{}
	for _, m := range msgs {
		if m.ThreadRootID != "" {
			replies[m.ThreadRootID]++
		}
	}
	for _, m := range msgs {
		if !reactions.Check(m.Reactions) {
			out = append(out, finding{cid, m.ID, "reaction counts do not match voters"})
		}
		if m.ThreadRootID == "" && m.ThreadReplyCount != replies[m.ID] {
			out = append(out, finding{cid, m.ID, fmt.Sprintf("thread reply count %d, found %d replies", m.ThreadReplyCount, replies[m.ID])})
		}
	}
	return out
}

func newVerifyCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored conversations for inconsistencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := o.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ids, err := db.Conversations()
			if err != nil {
				return err
			}
			var found []finding
			messages := 0
			for _, cid := range ids {
				// raw decode, without the repair the store applies
				msgs, err := db.Load(cid)
				if err != nil {
					return fmt.Errorf("load %s: %w", cid, err)
				}
				messages += len(msgs)
				found = append(found, checkConversation(cid, msgs)...)
			}

			w := cmd.OutOrStdout()
			if o.json(w) {
				if found == nil {
					found = []finding{}
				}
				if err := writeJSON(w, found); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(w, "Checked %d conversations, %d messages\n", len(ids), messages)
				for _, f := range found {
					fmt.Fprintf(w, "  %s/%s: %s\n", f.ConversationID, f.MessageID, f.Problem)
				}
			}
			if len(found) > 0 {
				return fmt.Errorf("%d problem(s) found", len(found))
			}
			return nil
		},
	}
}
