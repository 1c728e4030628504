package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/courseforge/internal/client"
)

var statusCmd = &cobra.Command{
	Use:   "status <course-id>",
	Short: "Show syllabus generation status for a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := api.GetSyllabusStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Syllabus: %s\n", status.Status)
		if status.Error != nil {
			fmt.Printf("  Error: %s\n", *status.Error)
		}
		if status.Job != nil {
			fmt.Printf("  Job: %s (%s)\n", status.Job.ID, status.Job.Status)
		}
		return nil
	},
}

var syllabusCmd = &cobra.Command{
	Use:   "syllabus <course-id>",
	Short: "Print the course syllabus outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		syl, err := api.GetSyllabus(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if syl.Status != "completed" {
			fmt.Printf("Syllabus is %s", syl.Status)
			if syl.Error != nil {
				fmt.Printf(": %s", *syl.Error)
			}
			fmt.Println()
			return nil
		}

		printSyllabus(syl)
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <course-id>",
	Short: "Request (or retry) syllabus generation",
	Long: `Enqueue syllabus generation for a course. Safe to repeat: an active
job is returned as-is, a completed syllabus returns its finished job,
and a failed one gets a fresh attempt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := api.RequestSyllabusGeneration(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Job %s: %s\n", job.ID, job.Status)
		if generateWatch && !job.Terminal() {
			return watchJob(cmd.Context(), job.ID)
		}
		return nil
	},
}

var generateWatch bool

func init() {
	generateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "watch the job until it finishes")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syllabusCmd)
	rootCmd.AddCommand(generateCmd)
}

func printSyllabus(syl *client.Syllabus) {
	fmt.Printf("Course %s\n", syl.CourseID)
	if len(syl.Keywords) > 0 {
		fmt.Printf("Keywords: %s\n", strings.Join(syl.Keywords, ", "))
	}
	fmt.Println()

	for mi, module := range syl.Modules {
		fmt.Printf("Module %d: %s\n", mi+1, module.Summary)
		for ti, topic := range module.Topics {
			fmt.Printf("  %d.%d %s\n", mi+1, ti+1, topic.Summary)
			if verbose && len(topic.Keywords) > 0 {
				fmt.Printf("      [%s]\n", strings.Join(topic.Keywords, ", "))
			}
		}
	}
}
