package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/seriesmux/internal/runner"
)

var processCmd = &cobra.Command{
	Use:   "process <dir> [dir...]",
	Short: "Process release directories into the library",
	Long: `Process one or more release directories: scan and classify files,
resolve the series title, bundle episodes, preprocess containers and
codecs, merge each episode into a single MKV and validate the output.

Examples:
  seriesmux process ~/downloads/Show.S01.1080p-GROUP
  seriesmux process --dry-run ~/downloads/Show.S01.1080p-GROUP
  seriesmux process --yes --delete-source --jobs 2 dir1 dir2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcessCmd,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompts")
	processCmd.Flags().Bool("delete-source", false, "Delete source directories after a fully successful run")
	processCmd.Flags().Bool("dry-run", false, "Preview planned actions without modifying anything")
	processCmd.Flags().IntP("jobs", "j", 1, "Directories to process concurrently")
	processCmd.Flags().StringP("library", "l", "", "Library root (overrides config)")
}

func runProcessCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	yes, _ := cmd.Flags().GetBool("yes")
	deleteSource, _ := cmd.Flags().GetBool("delete-source")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	jobs, _ := cmd.Flags().GetInt("jobs")
	library, _ := cmd.Flags().GetString("library")

	dirs := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return fmt.Errorf("not a directory: %s", arg)
		}
		dirs = append(dirs, abs)
	}

	r, err := runner.New(cfg, runner.Options{
		DryRun:       dryRun,
		AssumeYes:    yes,
		DeleteSource: deleteSource,
		Jobs:         jobs,
		Confirm:      askConfirm,
		LibraryRoot:  library,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := r.Run(ctx, dirs)
	printSummary(results)
	if err != nil {
		return err
	}
	if !runner.OK(results) {
		os.Exit(1)
	}
	return nil
}

// askConfirm prompts on the terminal and reads a y/n answer.
func askConfirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// printSummary renders the per-directory outcome table.
func printSummary(results []*runner.DirResult) {
	for _, res := range results {
		if res == nil {
			continue
		}
		fmt.Println()
		fmt.Printf("=== %s\n", res.Dir)

		if res.Err != nil {
			fmt.Printf("  failed: %v\n", res.Err)
			continue
		}

		for _, line := range res.Planned {
			fmt.Printf("  plan: %s\n", line)
		}
		for _, ep := range sortedEpisodes(res.Merged) {
			fmt.Printf("  merged: E%02d -> %s\n", ep, res.Merged[ep])
		}
		for _, ep := range res.Skipped {
			fmt.Printf("  skipped: E%02d (already merged)\n", ep)
		}
		for _, f := range res.Failed {
			fmt.Printf("  failed: E%02d: %v\n", f.Episode, f.Err)
		}
		for _, c := range res.Report.VideoConflicts {
			fmt.Printf("  conflict: E%02d kept %s, dropped %s\n", c.Episode, filepath.Base(c.Kept), filepath.Base(c.Dropped))
		}
		for _, ep := range res.Report.Incomplete {
			fmt.Printf("  incomplete: E%02d has no video file\n", ep)
		}
		for _, path := range res.Report.Unnumbered {
			fmt.Printf("  unnumbered: %s\n", filepath.Base(path))
		}
		for _, path := range res.Unknown {
			fmt.Printf("  ignored: %s\n", filepath.Base(path))
		}

		if res.Validation != nil {
			for _, fr := range res.Validation.Files {
				if fr.OK() {
					fmt.Printf("  valid: E%02d %.0fs, %d video / %d audio / %d subtitle track(s)\n",
						fr.Episode, fr.Duration, fr.VideoTracks, fr.AudioTracks, fr.SubtitleTracks)
				}
				for _, e := range fr.Errors {
					fmt.Printf("  invalid: E%02d: %s\n", fr.Episode, e)
				}
				for _, w := range fr.Warnings {
					fmt.Printf("  warning: E%02d: %s\n", fr.Episode, w)
				}
			}
		}

		if res.OK() {
			fmt.Printf("  ok: %d episode(s)\n", len(res.Merged)+len(res.Skipped))
		}
	}
}

func sortedEpisodes(m map[int]string) []int {
	eps := make([]int, 0, len(m))
	for ep := range m {
		eps = append(eps, ep)
	}
	sort.Ints(eps)
	return eps
}
