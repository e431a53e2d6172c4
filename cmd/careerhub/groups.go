package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	careerhub "github.com/AlexeyMish7/Scrum-and-Get-it-sub001"
	"github.com/spf13/cobra"
)

// ============================================================================
// Flag variables
// ============================================================================

var (
	// groups list
	groupsListCategory  string
	groupsListCreatedBy string
	groupsListSearch    string
	groupsListJSON      bool

	// groups create
	groupsCreateDescription string
	groupsCreateCategory    string

	// groups posts
	groupsPostsJSON bool
)

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsCmd.AddCommand(groupsListCmd)
	groupsCmd.AddCommand(groupsCreateCmd)
	groupsCmd.AddCommand(groupsJoinCmd)
	groupsCmd.AddCommand(groupsLeaveCmd)
	groupsCmd.AddCommand(groupsPostsCmd)
	groupsCmd.AddCommand(groupsPostCmd)
	groupsCmd.AddCommand(groupsChallengesCmd)

	groupsListCmd.Flags().StringVar(&groupsListCategory, "category", "", "filter by category")
	groupsListCmd.Flags().StringVar(&groupsListCreatedBy, "created-by", "", "filter by creator user id")
	groupsListCmd.Flags().StringVar(&groupsListSearch, "search", "", "filter by name substring")
	groupsListCmd.Flags().BoolVar(&groupsListJSON, "json", false, "output raw JSON")

	groupsCreateCmd.Flags().StringVar(&groupsCreateDescription, "description", "", "group description")
	groupsCreateCmd.Flags().StringVar(&groupsCreateCategory, "category", "", "group category")

	groupsPostsCmd.Flags().BoolVar(&groupsPostsJSON, "json", false, "output raw JSON")
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Peer support group commands",
	Long:  "Browse, join, and post in peer support groups.",
}

// ============================================================================
// groups list
// ============================================================================

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List peer support groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, _ := getProfile()
		feed := careerhub.NewGroupFeed(client, userID)
		defer feed.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		filter := &careerhub.GroupFilter{
			Category:  groupsListCategory,
			CreatedBy: groupsListCreatedBy,
			Search:    groupsListSearch,
		}
		res := feed.Groups(ctx, filter)
		if !res.OK() {
			return fmt.Errorf("list groups: %w", res.Error)
		}

		groups := res.Value()
		if groupsListJSON {
			b, _ := json.MarshalIndent(groups, "", "  ")
			fmt.Println(string(b))
			return nil
		}

		if len(groups) == 0 {
			fmt.Println("No groups found.")
			return nil
		}
		for _, g := range groups {
			marker := " "
			if g.IsMember {
				marker = "*"
			}
			fmt.Printf("%s %-36s  %-30s  %3d members  %3d posts\n",
				marker, g.ID, g.Name, g.MemberCount, g.PostCount)
		}
		fmt.Println("\n* = you are a member")
		return nil
	},
}

// ============================================================================
// groups create / join / leave
// ============================================================================

var groupsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a peer support group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, _ := getProfile()
		feed := careerhub.NewGroupFeed(client, userID)
		defer feed.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		res := feed.CreateGroup(ctx, args[0], groupsCreateDescription, groupsCreateCategory)
		if !res.OK() {
			return fmt.Errorf("create group: %w", res.Error)
		}
		fmt.Printf("Created group %s (%s)\n", res.Data.Name, res.Data.ID)
		return nil
	},
}

var groupsJoinCmd = &cobra.Command{
	Use:   "join <group-id>",
	Short: "Join a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, _ := getProfile()
		feed := careerhub.NewGroupFeed(client, userID)
		defer feed.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := feed.Join(ctx, args[0]); err != nil {
			return fmt.Errorf("join group: %w", err)
		}
		fmt.Printf("Joined group %s\n", args[0])
		return nil
	},
}

var groupsLeaveCmd = &cobra.Command{
	Use:   "leave <group-id>",
	Short: "Leave a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, _ := getProfile()
		feed := careerhub.NewGroupFeed(client, userID)
		defer feed.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := feed.Leave(ctx, args[0]); err != nil {
			return fmt.Errorf("leave group: %w", err)
		}
		fmt.Printf("Left group %s\n", args[0])
		return nil
	},
}

// ============================================================================
// groups posts / post / challenges
// ============================================================================

var groupsPostsCmd = &cobra.Command{
	Use:   "posts <group-id>",
	Short: "Show a group's post feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, _ := getProfile()
		feed := careerhub.NewGroupFeed(client, userID)
		defer feed.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		res := feed.Posts(ctx, args[0])
		if !res.OK() {
			return fmt.Errorf("load posts: %w", res.Error)
		}

		posts := res.Value()
		if groupsPostsJSON {
			b, _ := json.MarshalIndent(posts, "", "  ")
			fmt.Println(string(b))
			return nil
		}

		if len(posts) == 0 {
			fmt.Println("No posts yet.")
			return nil
		}
		for _, p := range posts {
			liked := ""
			if p.IsLiked {
				liked = " [liked]"
			}
			author := p.AuthorName
			if author == "" {
				author = p.AuthorID
			}
			fmt.Printf("%s  %s (%d likes)%s\n    %s\n",
				p.CreatedAt.Format("2006-01-02 15:04"), author, p.LikeCount, liked, p.Content)
		}
		return nil
	},
}

var groupsPostCmd = &cobra.Command{
	Use:   "post <group-id> <content>",
	Short: "Post to a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, _ := getProfile()
		feed := careerhub.NewGroupFeed(client, userID)
		defer feed.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		res := feed.CreatePost(ctx, args[0], args[1])
		if !res.OK() {
			return fmt.Errorf("create post: %w", res.Error)
		}
		fmt.Printf("Posted %s\n", res.Data.ID)
		return nil
	},
}

var groupsChallengesCmd = &cobra.Command{
	Use:   "challenges <group-id>",
	Short: "List a group's challenges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := getClient()
		userID, _ := getProfile()
		feed := careerhub.NewGroupFeed(client, userID)
		defer feed.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		res := feed.Challenges(ctx, args[0])
		if !res.OK() {
			return fmt.Errorf("load challenges: %w", res.Error)
		}

		challenges := res.Value()
		if len(challenges) == 0 {
			fmt.Println("No challenges.")
			return nil
		}
		for _, c := range challenges {
			marker := " "
			if c.IsParticipating {
				marker = "*"
			}
			fmt.Printf("%s %-36s  %-30s  %d participants\n",
				marker, c.ID, c.Title, c.ParticipantCount)
		}
		return nil
	},
}
