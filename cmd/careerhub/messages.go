package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	careerhub "github.com/AlexeyMish7/Scrum-and-Get-it-sub001"
	"github.com/spf13/cobra"
)

// ============================================================================
// Flag variables
// ============================================================================

var (
	// messages send
	messagesSendType string
)

func init() {
	rootCmd.AddCommand(messagesCmd)
	messagesCmd.AddCommand(messagesSendCmd)
	messagesCmd.AddCommand(messagesHistoryCmd)
	messagesCmd.AddCommand(messagesListCmd)
	messagesCmd.AddCommand(messagesWatchCmd)

	messagesSendCmd.Flags().StringVar(&messagesSendType, "type", "message",
		"message type (message, encouragement, celebration, progress_update, goal_reminder, feedback)")
}

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Team messaging commands",
	Long:  "Send and read progress messages within your accountability team.",
}

// ============================================================================
// messages send
// ============================================================================

var messagesSendCmd = &cobra.Command{
	Use:   "send <partner-id> <content>",
	Short: "Send a progress message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, teamID := getProfile()
		requireTeam(teamID)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		res := client.Messaging().Send(ctx, &careerhub.SendMessageOptions{
			TeamID:      teamID,
			SenderID:    userID,
			RecipientID: args[0],
			Content:     args[1],
			Type:        careerhub.MessageType(messagesSendType),
		})
		if !res.OK() {
			return fmt.Errorf("send message: %w", res.Error)
		}
		fmt.Printf("Sent %s\n", res.Data.ID)
		return nil
	},
}

// ============================================================================
// messages history
// ============================================================================

var messagesHistoryCmd = &cobra.Command{
	Use:   "history <partner-id>",
	Short: "Show the conversation with a partner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, teamID := getProfile()
		requireTeam(teamID)

		in := careerhub.NewInbox(client, teamID, userID, nil)
		defer in.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		res := in.Open(ctx, args[0])
		if !res.OK() {
			return fmt.Errorf("open conversation: %w", res.Error)
		}

		msgs := res.Value()
		if len(msgs) == 0 {
			fmt.Println("No messages yet.")
			return nil
		}
		for _, m := range msgs {
			printMessage(userID, m)
		}
		return nil
	},
}

// ============================================================================
// messages list
// ============================================================================

var messagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations with unread counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, teamID := getProfile()
		requireTeam(teamID)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		res := client.Messaging().Conversations(ctx, teamID, userID)
		if !res.OK() {
			return fmt.Errorf("list conversations: %w", res.Error)
		}

		rows := res.Value()
		if len(rows) == 0 {
			fmt.Println("No conversations yet.")
			return nil
		}
		total := 0
		for _, c := range rows {
			total += c.UnreadCount
			name := c.PartnerName
			if name == "" {
				name = c.PartnerID
			}
			fmt.Printf("%-24s  %2d unread  %s  %s\n",
				name, c.UnreadCount, c.LastMessageAt.Format("2006-01-02 15:04"), c.LastMessage)
		}
		fmt.Printf("\n%d unread total\n", total)
		return nil
	},
}

// ============================================================================
// messages watch
// ============================================================================

var messagesWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for incoming messages (realtime with polling fallback)",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, teamID := getProfile()
		requireTeam(teamID)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rt := client.Realtime(&careerhub.RealtimeConfig{AutoReconnect: true})
		rt.OnMessage(func(m careerhub.ProgressMessage) {
			if m.RecipientID == userID {
				printMessage(userID, m)
			}
		})
		rt.OnReconnecting(func(attempt int, delay time.Duration) {
			fmt.Fprintf(os.Stderr, "reconnecting (attempt %d, in %s)...\n", attempt, delay)
		})

		connected := true
		if err := rt.Connect(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "realtime unavailable (%v), polling only\n", err)
			connected = false
		}

		opts := &careerhub.InboxOptions{}
		if connected {
			opts.Realtime = rt
		}
		in := careerhub.NewInbox(client, teamID, userID, opts)
		if err := in.Start(ctx); err != nil {
			return fmt.Errorf("start inbox: %w", err)
		}
		defer in.Close()
		if connected {
			defer rt.Disconnect()
		}

		fmt.Println("Watching for messages. Ctrl-C to stop.")
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func printMessage(selfID string, m careerhub.ProgressMessage) {
	dir := "<-"
	who := m.SenderID
	if m.SenderID == selfID {
		dir = "->"
		who = m.RecipientID
	}
	tag := ""
	if m.Type != careerhub.TypeMessage {
		tag = fmt.Sprintf(" [%s]", m.Type)
	}
	fmt.Printf("%s %s %s%s: %s\n", m.CreatedAt.Format("15:04"), dir, who, tag, m.Content)
}
