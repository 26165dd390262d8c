package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/seriesmux/pkg/scanname"
)

var parseCmd = &cobra.Command{
	Use:   "parse <name>",
	Short: "Parse a release directory or file name (local, no tools needed)",
	Long: `Parse a release directory name or an episode file name and show
what the local parser extracts from it. Useful for checking whether a
directory will need AI assistance.

Examples:
  seriesmux parse "Apothecary.Diaries.S01.1080p-GROUP"
  seriesmux parse "Show.S01E03.1080p.mkv"`,
	Args: cobra.ExactArgs(1),
	RunE: runParseCmd,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().Bool("json", false, "Output as JSON")
}

type parseOutput struct {
	Title      string `json:"title,omitempty"`
	CleanTitle string `json:"clean_title,omitempty"`
	Year       int    `json:"year,omitempty"`
	Season     int    `json:"season,omitempty"`
	Episode    int    `json:"episode,omitempty"`
	Quality    string `json:"quality,omitempty"`
	Group      string `json:"group,omitempty"`
	Label      string `json:"label,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// parseName runs the local parser against a file or directory name.
func parseName(name string) (parseOutput, error) {
	var out parseOutput

	classifier := scanname.NewClassifier(scanname.Extensions{}, nil)
	if kind := classifier.Kind(name); kind != scanname.KindUnknown {
		out.Kind = kind.String()
		if ep, ok := scanname.ParseEpisode(name); ok {
			out.Season = ep.Season
			out.Episode = ep.Episode
		}
		if label, ok := classifier.DetectLabel(name, nil); ok {
			out.Label = label
		}
		return out, nil
	}

	info, err := scanname.ParseDirName(name)
	if err != nil {
		return out, fmt.Errorf("no naming convention matched %q", name)
	}
	out.Title = info.Title
	out.CleanTitle = scanname.CleanTitle(info.Title)
	out.Year = info.Year
	out.Season = info.Season
	out.Quality = info.Quality
	out.Group = info.Group
	return out, nil
}

func runParseCmd(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	out, err := parseName(args[0])
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Kind != "" {
		fmt.Printf("Kind:     %s\n", out.Kind)
	}
	if out.Title != "" {
		fmt.Printf("Title:    %s\n", out.Title)
		fmt.Printf("Clean:    %s\n", out.CleanTitle)
	}
	if out.Year > 0 {
		fmt.Printf("Year:     %d\n", out.Year)
	}
	if out.Season > 0 {
		fmt.Printf("Season:   %d\n", out.Season)
	}
	if out.Episode > 0 {
		fmt.Printf("Episode:  %d\n", out.Episode)
	}
	if out.Quality != "" {
		fmt.Printf("Quality:  %s\n", out.Quality)
	}
	if out.Group != "" {
		fmt.Printf("Group:    %s\n", out.Group)
	}
	if out.Label != "" {
		fmt.Printf("Label:    %s\n", out.Label)
	}
	return nil
}
