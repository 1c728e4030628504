package cli

import (
	"fmt"
	"strconv"

	"charm.land/bubbles/v2/progress"
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/courseforge/internal/client"
)

var enrollUser string

var enrollCmd = &cobra.Command{
	Use:   "enroll <course-id>",
	Short: "Enroll a user in a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if enrollUser == "" {
			return fmt.Errorf("--user is required")
		}

		e, err := api.Enroll(cmd.Context(), enrollUser, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Enrolled: %s\n", e.ID)
		fmt.Printf("  Course: %s\n", e.CourseID)
		fmt.Printf("  User: %s\n", e.UserID)
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <enrollment-id>",
	Short: "Show progress for an enrollment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := api.GetProgress(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printProgress(p)
		return nil
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance <enrollment-id> <module>",
	Short: "Move an enrollment forward to a module",
	Long: `Advance the current module of an enrollment. Moving backwards is a
no-op; the position only ever increases.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		moduleIndex, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid module index %q", args[1])
		}

		e, err := api.AdvanceModule(cmd.Context(), args[0], moduleIndex)
		if err != nil {
			return err
		}

		fmt.Printf("Current module: %d\n", e.CurrentModuleIndex)
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <enrollment-id> <module> <topic>",
	Short: "Mark a topic as completed",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		moduleIndex, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid module index %q", args[1])
		}
		topicIndex, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid topic index %q", args[2])
		}

		p, err := api.CompleteTopic(cmd.Context(), args[0], moduleIndex, topicIndex)
		if err != nil {
			return err
		}

		printProgress(p)
		if p.ReadyForAssessment {
			fmt.Println()
			fmt.Println(defaultTheme.completedStyle().Render("All topics completed. Ready for assessment."))
		}
		return nil
	},
}

func init() {
	enrollCmd.Flags().StringVarP(&enrollUser, "user", "u", "", "user id to enroll")
	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(completeCmd)
}

func printProgress(p *client.Progress) {
	bar := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	fmt.Printf("%s %d%% (%d/%d topics)\n",
		bar.ViewAs(float64(p.Percent)/100),
		p.Percent, p.CompletedTopics, p.TotalTopics)
	fmt.Printf("Current module: %d\n", p.Enrollment.CurrentModuleIndex)
}
