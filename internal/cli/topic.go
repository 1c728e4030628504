package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/courseforge/internal/client"
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Work with per-topic lesson content",
}

var topicWatch bool

var topicGenerateCmd = &cobra.Command{
	Use:   "generate <course-id> <module> <topic>",
	Short: "Request lesson content for one topic",
	Long: `Enqueue content generation for one topic, addressed by zero-based
module and topic indexes. Repeating the request while a job is active
returns that job; once content exists, the finished job is returned.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, m, t, err := topicArgs(args)
		if err != nil {
			return err
		}

		job, err := api.RequestTopicContent(cmd.Context(), courseID, m, t)
		if err != nil {
			return err
		}

		fmt.Printf("Job %s: %s\n", job.ID, job.Status)
		if topicWatch && !job.Terminal() {
			return watchJob(cmd.Context(), job.ID)
		}
		return nil
	},
}

var topicShowCmd = &cobra.Command{
	Use:   "show <course-id> <module> <topic>",
	Short: "Print the lesson content for one topic",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, m, t, err := topicArgs(args)
		if err != nil {
			return err
		}

		text, err := api.GetTopicContent(cmd.Context(), courseID, m, t)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				// Fall back to the syllabus seed content.
				syl, sylErr := api.GetSyllabus(cmd.Context(), courseID)
				if sylErr == nil && m < len(syl.Modules) && t < len(syl.Modules[m].Topics) {
					fmt.Println(syl.Modules[m].Topics[t].SeedContent)
					fmt.Println("\n(seed content; run 'courseforge topic generate' for the full lesson)")
					return nil
				}
			}
			return err
		}

		fmt.Println(text)
		return nil
	},
}

var topicStatusCmd = &cobra.Command{
	Use:   "status <course-id> <module> <topic>",
	Short: "Show content generation status for one topic",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, m, t, err := topicArgs(args)
		if err != nil {
			return err
		}

		status, err := api.GetTopicStatus(cmd.Context(), courseID, m, t)
		if err != nil {
			return err
		}

		if status.HasContent {
			fmt.Println("Content: available")
		} else {
			fmt.Println("Content: not generated")
		}
		if status.Job != nil {
			fmt.Printf("Job: %s (%s)\n", status.Job.ID, status.Job.Status)
			if status.Job.Error != nil {
				fmt.Printf("  Error: %s\n", *status.Job.Error)
			}
		}
		return nil
	},
}

func init() {
	topicGenerateCmd.Flags().BoolVarP(&topicWatch, "watch", "w", false, "watch the job until it finishes")
	topicCmd.AddCommand(topicGenerateCmd)
	topicCmd.AddCommand(topicShowCmd)
	topicCmd.AddCommand(topicStatusCmd)
	rootCmd.AddCommand(topicCmd)
}

func topicArgs(args []string) (string, int, int, error) {
	m, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid module index %q", args[1])
	}
	t, err := strconv.Atoi(args[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid topic index %q", args[2])
	}
	return args[0], m, t, nil
}
