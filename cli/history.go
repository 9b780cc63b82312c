package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"imchat/storage"
)

func init() {
	historyCmd.Flags().String("owner", "", "owner user id (defaults to the configured user)")
	historyCmd.Flags().Int("limit", 50, "maximum number of messages to print")
	historyCmd.Flags().Int("offset", 0, "number of messages to skip")
	historyCmd.Flags().Bool("purge", false, "delete every cached row of the owner")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [conversation-id]",
	Short: "Inspect or purge the local history cache",
	Long: `Without arguments history lists the cached conversations of the owner.
With a conversation id it prints the cached messages of that conversation,
oldest first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = env.log.Sync() }()

		owner, _ := cmd.Flags().GetString("owner")
		if owner == "" {
			owner = env.cfg.UserID
		}
		if owner == "" {
			return fmt.Errorf("owner is required (set --owner or user_id in %s)", env.cfgPath)
		}

		store, _, err := storage.Open(env.dataDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				env.log.Sugar().Warnf("database close error: %v", err)
			}
		}()

		out := cmd.OutOrStdout()
		if purge, _ := cmd.Flags().GetBool("purge"); purge {
			return purgeHistory(out, store, owner)
		}
		if len(args) == 0 {
			return printConversations(out, store, owner)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		return printMessages(out, store, owner, args[0], limit, offset)
	},
}

func printConversations(out io.Writer, store *storage.Store, owner string) error {
	conversations, err := store.ListConversations(owner)
	if err != nil {
		return err
	}
	if len(conversations) == 0 {
		fmt.Fprintf(out, "no cached conversations for %s\n", owner)
		return nil
	}

	for _, conv := range conversations {
		count, err := store.CountMessages(owner, conv.ConversationID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-24s %-20s unread=%d cached=%d  %s\n",
			conv.ConversationID, conv.Name, conv.UnreadCount, count, conv.LastMessage)
	}
	return nil
}

func printMessages(out io.Writer, store *storage.Store, owner, conversationID string, limit, offset int) error {
	messages, err := store.GetMessages(owner, conversationID, limit, offset)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		fmt.Fprintf(out, "no cached messages in %s\n", conversationID)
		return nil
	}

	for _, msg := range messages {
		fmt.Fprintf(out, "%s  %-8s %-12s %s\n",
			time.Unix(msg.Timestamp, 0).Format(time.DateTime),
			msg.Direction,
			msg.From,
			strings.ReplaceAll(msg.Content, "\n", " "))
	}
	return nil
}

func purgeHistory(out io.Writer, store *storage.Store, owner string) error {
	deleted, err := store.DeleteOwner(owner)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "purged %d cached messages of %s\n", deleted, owner)
	return nil
}
