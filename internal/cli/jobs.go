package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var jobsActive bool

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List or inspect generation jobs",
	Long: `List recent generation jobs or inspect a specific job by ID.

Examples:
  courseforge jobs             # List recent jobs
  courseforge jobs --active    # Only pending and processing jobs
  courseforge jobs abc123      # Show details for job abc123`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

func init() {
	jobsCmd.Flags().BoolVar(&jobsActive, "active", false, "only show pending and processing jobs")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(args) == 1 {
		return showJob(ctx, args[0])
	}
	return listJobs(ctx)
}

func listJobs(ctx context.Context) error {
	jobs, err := api.ListJobs(ctx, jobsActive)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-10s %-14s %-12s %-24s %s\n", "ID", "KIND", "STATUS", "TARGET", "CREATED")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, job := range jobs {
		fmt.Printf("%-10s %-14s %-12s %-24s %s\n",
			job.ID, job.Kind, job.Status, job.Target, job.Created.Format("15:04:05"))
	}

	return nil
}

func showJob(ctx context.Context, id string) error {
	job, err := api.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job: %s\n", job.ID)
	fmt.Printf("  Kind: %s\n", job.Kind)
	fmt.Printf("  Status: %s\n", job.Status)
	fmt.Printf("  Target: %s\n", job.Target)
	fmt.Printf("  Created: %s\n", job.Created.Format(time.RFC3339))
	fmt.Printf("  Updated: %s\n", job.Updated.Format(time.RFC3339))
	if job.ResultRef != nil {
		fmt.Printf("  Result: %s\n", *job.ResultRef)
	}
	if job.Error != nil {
		fmt.Printf("  Error: %s\n", *job.Error)
	}
	return nil
}
