package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reelforge/internal/app"
	"reelforge/internal/model/script"
	"reelforge/internal/service"
)

var scriptID int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Align script phrases to subtitle timestamps (stage 4)",
	RunE:  runSync,
}

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Split long phrases into visual segments (stage 5)",
	RunE:  runSegment,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run stages 4 and 5 with checkpoint resume",
	RunE:  runPipeline,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List downstream video generation jobs for a segmented script",
	RunE:  runJobs,
}

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Show or clear the checkpoint of a script",
	RunE:  runCheckpoints,
}

func init() {
	for _, c := range []*cobra.Command{syncCmd, segmentCmd, runCmd, jobsCmd, checkpointsCmd} {
		c.Flags().IntVarP(&scriptID, "script-id", "s", 0, "script id (required)")
		_ = c.MarkFlagRequired("script-id")
		rootCmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{syncCmd, runCmd} {
		c.Flags().String("method", "", "sync method: similarity, order, hybrid (default from config)")
		c.Flags().Float64("threshold", -1, "similarity threshold within [0, 1] (default from config)")
	}
	runCmd.Flags().Bool("force", false, "ignore checkpoint and rerun every stage")
	checkpointsCmd.Flags().Bool("clear", false, "delete the checkpoint")
}

// withApp 初始化依赖后执行 fn，命令结束时关闭连接
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	return fn(ctx, a)
}

func syncOptionsFromFlags(cmd *cobra.Command) service.SyncOptions {
	var opts service.SyncOptions
	opts.Method, _ = cmd.Flags().GetString("method")
	if threshold, _ := cmd.Flags().GetFloat64("threshold"); threshold >= 0 {
		opts.SimilarityThreshold = &threshold
	}
	return opts
}

func runSync(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		res, err := a.Pipeline.Synchronize(ctx, scriptID, syncOptionsFromFlags(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), syncSummary(res))
		return nil
	})
}

func runSegment(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		res, err := a.Pipeline.Segment(ctx, scriptID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), segmentSummary(res))
		return nil
	})
}

func runPipeline(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		res, err := a.Pipeline.Run(ctx, scriptID, service.RunOptions{
			Force: force,
			Sync:  syncOptionsFromFlags(cmd),
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, stagesTable(res))
		if res.Sync != nil {
			fmt.Fprintln(out, syncSummary(res.Sync))
		}
		if res.Segment != nil {
			fmt.Fprintln(out, segmentSummary(res.Segment))
		}
		fmt.Fprintln(out, jobsTable(res.Jobs))
		return nil
	})
}

func runJobs(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		jobs, err := a.Pipeline.PlanVideoJobs(ctx, scriptID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), jobsTable(jobs))
		return nil
	})
}

func runCheckpoints(cmd *cobra.Command, args []string) error {
	reset, _ := cmd.Flags().GetBool("clear")
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		if reset {
			if err := a.Pipeline.ClearCheckpoint(ctx, scriptID); err != nil {
				return err
			}
			fmt.Fprintf(out, "checkpoint cleared for script %d\n", scriptID)
			return nil
		}

		cp, err := a.Pipeline.GetCheckpoint(ctx, scriptID)
		if err != nil {
			return err
		}
		if cp == nil {
			fmt.Fprintf(out, "no checkpoint for script %d\n", scriptID)
			return nil
		}
		fmt.Fprintln(out, checkpointSummary(cp))
		return nil
	})
}

func syncSummary(res *service.SyncResult) string {
	s := res.Summary
	return renderSummary(fmt.Sprintf("Synchronization · script %d", res.ScriptID), []kv{
		{"method", string(s.Method)},
		{"similarity threshold", ftoa(s.SimilarityThreshold)},
		{"total phrases", itoa(s.TotalPhrases)},
		{"matched", itoa(s.MatchedPhrases)},
		{"unmatched", itoa(s.UnmatchedPhrases)},
		{"output", res.Location},
	})
}

func segmentSummary(res *service.SegmentResult) string {
	s := res.Summary
	return renderSummary(fmt.Sprintf("Segmentation · script %d", res.ScriptID), []kv{
		{"total phrases", itoa(s.TotalPhrases)},
		{"segmented", itoa(s.PhrasesSegmented)},
		{"not segmented", itoa(s.PhrasesNotSegmented)},
		{"segments created", itoa(s.TotalSegmentsCreated)},
		{"avg segments/phrase", ftoa(s.AverageSegmentsPerPhrase)},
		{"adaptation errors", itoa(s.AdaptationErrors)},
		{"output", res.Location},
	})
}

func stagesTable(res *service.RunResult) string {
	rows := make([][]string, 0, len(res.Stages))
	for _, st := range res.Stages {
		status := "done"
		switch {
		case st.Skipped:
			status = "skipped (checkpoint)"
		case st.Error != "":
			status = "failed: " + st.Error
		}
		rows = append(rows, []string{string(st.Stage), status})
	}
	title := "Pipeline run"
	if res.RunID != "" {
		title += " " + res.RunID
	}
	return renderTable(title, []string{"Stage", "Status"}, rows)
}

func jobsTable(jobs []script.VideoJob) string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		segment := "-"
		if j.IsSegmented {
			segment = itoa(j.SegmentNumber)
		}
		rows = append(rows, []string{
			itoa(j.PhraseNumber),
			segment,
			ftoa(j.Duration),
			string(j.NarrativeFocus),
			truncate(j.Prompt, 60),
		})
	}
	return renderTable(fmt.Sprintf("Video jobs (%d)", len(jobs)),
		[]string{"Phrase", "Segment", "Duration", "Focus", "Prompt"}, rows, 0, 1, 2)
}

func checkpointSummary(cp *script.Checkpoint) string {
	steps := ""
	for i, s := range cp.CompletedSteps {
		if i > 0 {
			steps += ","
		}
		steps += itoa(s)
	}
	return renderSummary(fmt.Sprintf("Checkpoint · script %d", cp.ScriptID), []kv{
		{"last completed step", itoa(cp.LastCompletedStep)},
		{"step name", cp.StepName},
		{"completed steps", steps},
		{"timestamp", cp.Timestamp.Format("2006-01-02 15:04:05")},
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
