package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"parley/pkg/grouping"
	"parley/pkg/models"
)

func newMessagesCmd(o *options) *cobra.Command {
	var liveOnly, pinned bool
	cmd := &cobra.Command{
		Use:   "messages <conversation-id>",
		Short: "Dump the messages of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cid := args[0]
			if cid == "" {
				return errEmptyConversation
			}
			v, err := o.load()
			if err != nil {
				return err
			}
			defer v.Close()

			msgs := v.store.GetForConversation(cid)
			if pinned {
				msgs = v.store.GetPinned(cid)
			}
			if liveOnly {
				msgs = withoutTombstones(msgs)
			}
			msgs = msgs[:o.capped(len(msgs))]

			w := cmd.OutOrStdout()
			if o.json(w) {
				return writeJSON(w, msgs)
			}
			for _, m := range msgs {
				printMessage(w, m, "")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&liveOnly, "live", false, "hide deleted messages")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "only pinned messages")
	return cmd
}

func withoutTombstones(msgs []models.Message) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.IsDeleted {
			out = append(out, m)
		}
	}
	return out
}

func printMessage(w io.Writer, m models.Message, indent string) {
	content := m.Content
	if m.IsDeleted {
		content = "(deleted)"
	}
	var tags []string
	if m.IsEdited {
		tags = append(tags, "edited")
	}
	if m.IsPinned {
		tags = append(tags, "pinned")
	}
	if m.ThreadRootID != "" {
		tags = append(tags, "reply to "+m.ThreadRootID)
	}
	if m.ThreadReplyCount > 0 {
		tags = append(tags, fmt.Sprintf("%d replies", m.ThreadReplyCount))
	}
	for _, r := range m.Reactions {
		tags = append(tags, fmt.Sprintf("%s×%d", r.Emoji, r.Count))
	}
	line := fmt.Sprintf("%s%s  %-12s %s", indent, m.SentAt.Format(time.DateTime), m.SenderDisplayName, content)
	if len(tags) > 0 {
		line += "  [" + strings.Join(tags, ", ") + "]"
	}
	fmt.Fprintf(w, "%s  (%s)\n", line, m.ID)
}

func newGroupsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "groups <conversation-id>",
		Short: "Show a conversation as display groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cid := args[0]
			if cid == "" {
				return errEmptyConversation
			}
			v, err := o.load()
			if err != nil {
				return err
			}
			defer v.Close()

			msgs := v.store.GetForConversation(cid)
			groups := grouping.GroupMessages(msgs)
			groups = groups[:o.capped(len(groups))]

			w := cmd.OutOrStdout()
			if o.json(w) {
				return writeJSON(w, groups)
			}
			var lastDay string
			for _, g := range groups {
				if day := grouping.DayKey(g.FirstTimestamp); day != lastDay {
					fmt.Fprintf(w, "--- %s ---\n", day)
					lastDay = day
				}
				fmt.Fprintf(w, "%s (%s, %d messages)\n", g.SenderDisplayName, humanize.Time(g.FirstTimestamp), len(g.Messages))
				for _, m := range g.Messages {
					printMessage(w, m, "    ")
				}
			}
			return nil
		},
	}
}
