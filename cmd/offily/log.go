package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steviemul/offily/internal/wal"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the write-ahead log",
	Long: `Print every record of the write-ahead log, oldest first.

The log is read directly, so this works while another process has the
store open.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

var logJSON bool

func init() {
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output one JSON object per record")
	rootCmd.AddCommand(logCmd)
}

type logRecord struct {
	Line  int    `json:"line"`
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

func runLog(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)

	line := 0
	sum, err := wal.Replay(logPath(), func(r wal.Record) error {
		line++
		rec := logRecord{Line: line, Op: string(r.Op), Key: string(r.Key()), Value: string(r.Value())}
		if logJSON {
			return enc.Encode(rec)
		}
		_, err := fmt.Fprintf(out, "%6d  %-6s  %q  %q\n", rec.Line, rec.Op, rec.Key, rec.Value)
		return err
	})
	if err != nil {
		return err
	}
	if sum.TornTail {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: final record is incomplete and was skipped")
	}
	return nil
}
