package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	createDepth   int
	createContext string
	createOwner   string
	createWatch   bool
)

var createCmd = &cobra.Command{
	Use:   "create <topic>",
	Short: "Create a course and start syllabus generation",
	Long: `Create a course from a topic. The request is checked against content
guidelines, then a syllabus generation job is enqueued.

Depth ranges from 1 (casual overview) to 5 (graduate-level rigor) and
fixes the number of modules and topics.

Examples:
  courseforge create "Linear Algebra" --depth 3
  courseforge create "Espresso" --depth 1 --context "home barista, no machine yet" --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().IntVarP(&createDepth, "depth", "d", 3, "course depth (1-5)")
	createCmd.Flags().StringVarP(&createContext, "context", "c", "", "extra context for the generator")
	createCmd.Flags().StringVar(&createOwner, "owner", "", "owner user id")
	createCmd.Flags().BoolVarP(&createWatch, "watch", "w", false, "watch the syllabus job until it finishes")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	ctx := cmd.Context()

	res, err := api.CreateCourse(ctx, topic, createContext, createDepth, createOwner)
	if err != nil {
		return err
	}

	fmt.Printf("Course created: %s\n", res.Course.ID)
	fmt.Printf("  Topic: %s\n", res.Course.Topic)
	fmt.Printf("  Depth: %d\n", res.Course.Depth)
	fmt.Printf("  Syllabus job: %s (%s)\n", res.Job.ID, res.Job.Status)

	if createWatch {
		return watchJob(ctx, res.Job.ID)
	}

	fmt.Printf("\nUse 'courseforge status %s' to check progress.\n", res.Course.ID)
	return nil
}
