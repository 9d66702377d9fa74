package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steviemul/offily/internal/wal"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics about the write-ahead log",
	Long: `Display statistics about the store's write-ahead log including:
- Log size on disk
- Number of PUT and REMOVE records
- Number of keys the log leaves stored`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	path := logPath()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("no write-ahead log at %q", path)
	}
	if err != nil {
		return err
	}

	var puts, removes int
	live := make(map[string]struct{})
	sum, err := wal.Replay(path, func(r wal.Record) error {
		switch r.Op {
		case wal.OpPut:
			puts++
			live[string(r.Key())] = struct{}{}
		case wal.OpRemove:
			removes++
			delete(live, string(r.Key()))
		}
		return nil
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Log:        %s\n", path)
	fmt.Fprintf(out, "Size:       %s\n", formatBytes(info.Size()))
	fmt.Fprintf(out, "Records:    %d\n", sum.Records)
	fmt.Fprintf(out, "  PUT:      %d\n", puts)
	fmt.Fprintf(out, "  REMOVE:   %d\n", removes)
	fmt.Fprintf(out, "Live keys:  %d\n", len(live))
	if sum.TornTail {
		fmt.Fprintln(out, "Torn tail:  yes")
	}
	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
