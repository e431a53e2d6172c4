package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	careerhub "github.com/AlexeyMish7/Scrum-and-Get-it-sub001"
	"github.com/spf13/cobra"
)

// ============================================================================
// Flag variables
// ============================================================================

var (
	// support milestone add
	milestoneAddNotes  string
	milestoneAddTarget string

	// support checkin
	checkinNote string

	// support boundary-add
	boundaryAddCategory string
)

func init() {
	rootCmd.AddCommand(supportCmd)
	supportCmd.AddCommand(supportersCmd)
	supportCmd.AddCommand(milestonesCmd)
	supportCmd.AddCommand(milestoneAddCmd)
	supportCmd.AddCommand(milestoneDoneCmd)
	supportCmd.AddCommand(checkinCmd)
	supportCmd.AddCommand(boundariesCmd)
	supportCmd.AddCommand(boundaryAddCmd)
	supportCmd.AddCommand(storiesCmd)

	milestoneAddCmd.Flags().StringVar(&milestoneAddNotes, "notes", "", "milestone notes")
	milestoneAddCmd.Flags().StringVar(&milestoneAddTarget, "target", "", "target date (YYYY-MM-DD)")

	checkinCmd.Flags().StringVar(&checkinNote, "note", "", "optional note")

	boundaryAddCmd.Flags().StringVar(&boundaryAddCategory, "category", "", "boundary category")
}

var supportCmd = &cobra.Command{
	Use:   "support",
	Short: "Personal support commands",
	Long:  "Track supporters, milestones, boundaries, and daily stress check-ins.",
}

func newTracker() (*careerhub.SupportTracker, context.Context, context.CancelFunc) {
	client := getClient()
	userID, _ := getProfile()
	tracker := careerhub.NewSupportTracker(client, userID)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	return tracker, ctx, cancel
}

// ============================================================================
// support supporters
// ============================================================================

var supportersCmd = &cobra.Command{
	Use:   "supporters",
	Short: "List your support circle",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, ctx, cancel := newTracker()
		defer cancel()
		defer tracker.Close()

		res := tracker.Supporters(ctx)
		if !res.OK() {
			return fmt.Errorf("load supporters: %w", res.Error)
		}
		rows := res.Value()
		if len(rows) == 0 {
			fmt.Println("No supporters yet.")
			return nil
		}
		for _, s := range rows {
			fmt.Printf("%-36s  %-24s  %s\n", s.ID, s.Name, s.Relation)
		}
		return nil
	},
}

// ============================================================================
// support milestones
// ============================================================================

var milestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "List your milestones",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, ctx, cancel := newTracker()
		defer cancel()
		defer tracker.Close()

		res := tracker.Milestones(ctx)
		if !res.OK() {
			return fmt.Errorf("load milestones: %w", res.Error)
		}
		rows := res.Value()
		if len(rows) == 0 {
			fmt.Println("No milestones yet.")
			return nil
		}
		for _, m := range rows {
			status := "[ ]"
			if m.Completed {
				status = "[x]"
			}
			target := ""
			if m.TargetDate != nil {
				target = "  due " + m.TargetDate.Format("2006-01-02")
			}
			fmt.Printf("%s %-36s  %s%s\n", status, m.ID, m.Title, target)
		}
		return nil
	},
}

var milestoneAddCmd = &cobra.Command{
	Use:   "milestone-add <title>",
	Short: "Add a milestone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, ctx, cancel := newTracker()
		defer cancel()
		defer tracker.Close()

		var target *time.Time
		if milestoneAddTarget != "" {
			d, err := time.Parse("2006-01-02", milestoneAddTarget)
			if err != nil {
				return fmt.Errorf("invalid target date %q: %w", milestoneAddTarget, err)
			}
			target = &d
		}

		res := tracker.CreateMilestone(ctx, args[0], milestoneAddNotes, target)
		if !res.OK() {
			return fmt.Errorf("create milestone: %w", res.Error)
		}
		fmt.Printf("Added milestone %s\n", res.Data.ID)
		return nil
	},
}

var milestoneDoneCmd = &cobra.Command{
	Use:   "milestone-done <milestone-id>",
	Short: "Mark a milestone complete",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, ctx, cancel := newTracker()
		defer cancel()
		defer tracker.Close()

		res := tracker.CompleteMilestone(ctx, args[0])
		if !res.OK() {
			return fmt.Errorf("complete milestone: %w", res.Error)
		}
		fmt.Printf("Completed %s\n", args[0])
		return nil
	},
}

// ============================================================================
// support checkin
// ============================================================================

var checkinCmd = &cobra.Command{
	Use:   "checkin [level]",
	Short: "Show or submit today's stress check-in (level 1-10)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, ctx, cancel := newTracker()
		defer cancel()
		defer tracker.Close()

		if len(args) == 0 {
			res := tracker.TodayCheckin(ctx)
			if !res.OK() {
				return fmt.Errorf("load check-in: %w", res.Error)
			}
			c := res.Value()
			if c == nil {
				fmt.Println("No check-in recorded today.")
				return nil
			}
			fmt.Printf("Today's stress level: %d/10", c.Level)
			if c.Note != "" {
				fmt.Printf("  (%s)", c.Note)
			}
			fmt.Println()
			return nil
		}

		level, err := strconv.Atoi(args[0])
		if err != nil || level < 1 || level > 10 {
			return fmt.Errorf("level must be a number between 1 and 10")
		}
		res := tracker.SubmitCheckin(ctx, level, checkinNote)
		if !res.OK() {
			return fmt.Errorf("submit check-in: %w", res.Error)
		}
		fmt.Printf("Recorded stress level %d/10\n", level)
		return nil
	},
}

// ============================================================================
// support boundaries
// ============================================================================

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "List your personal boundaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, ctx, cancel := newTracker()
		defer cancel()
		defer tracker.Close()

		res := tracker.Boundaries(ctx)
		if !res.OK() {
			return fmt.Errorf("load boundaries: %w", res.Error)
		}
		rows := res.Value()
		if len(rows) == 0 {
			fmt.Println("No boundaries yet.")
			return nil
		}
		for _, b := range rows {
			status := "[ ]"
			if b.Active {
				status = "[x]"
			}
			category := ""
			if b.Category != "" {
				category = "  (" + b.Category + ")"
			}
			fmt.Printf("%s %-36s  %s%s\n", status, b.ID, b.Description, category)
		}
		return nil
	},
}

var boundaryAddCmd = &cobra.Command{
	Use:   "boundary-add <description>",
	Short: "Add a personal boundary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, ctx, cancel := newTracker()
		defer cancel()
		defer tracker.Close()

		res := tracker.CreateBoundary(ctx, args[0], boundaryAddCategory)
		if !res.OK() {
			return fmt.Errorf("create boundary: %w", res.Error)
		}
		fmt.Printf("Added boundary %s\n", res.Data.ID)
		return nil
	},
}

// ============================================================================
// support stories
// ============================================================================

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "List shared success stories",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, ctx, cancel := newTracker()
		defer cancel()
		defer tracker.Close()

		res := tracker.Stories(ctx)
		if !res.OK() {
			return fmt.Errorf("load stories: %w", res.Error)
		}
		rows := res.Value()
		if len(rows) == 0 {
			fmt.Println("No stories yet.")
			return nil
		}
		for _, s := range rows {
			author := s.AuthorName
			if author == "" {
				author = s.AuthorID
			}
			fmt.Printf("%s  %s\n    by %s\n", s.CreatedAt.Format("2006-01-02"), s.Title, author)
		}
		return nil
	},
}
