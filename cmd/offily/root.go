package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steviemul/offily"
	"github.com/steviemul/offily/internal/wal"
)

var (
	// Global flags.
	dataDir     string
	storeName   string
	capacity    int
	shardID     int
	compression string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "offily",
	Short: "Inspect and edit a persistent two-tier cache",
	Long: `Offily is a CLI for a two-tier key/value cache whose backing store
is made durable by a write-ahead log.

Keys and values are strings. Every command opens the store, replays its
log, runs and closes it again; the memory tier is flushed to disk on exit.

Examples:
  # Store and read a value
  offily -d ./data put greeting hello
  offily -d ./data get greeting

  # Dump the write-ahead log
  offily -d ./data log --json

  # Show log statistics
  offily -d ./data stats`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "dir", "d", "./data", "directory holding the store")
	rootCmd.PersistentFlags().StringVarP(&storeName, "name", "n", "offily", "logical store name")
	rootCmd.PersistentFlags().IntVarP(&capacity, "capacity", "c", offily.DefaultCapacity, "entries kept in memory")
	rootCmd.PersistentFlags().IntVar(&shardID, "shard", wal.NoIdentifier, "numeric store identifier (-1 for none)")
	rootCmd.PersistentFlags().StringVar(&compression, "compression", string(offily.CompressionNone), "value compression: none, gzip or zstd")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// openCache opens the store selected by the global flags.
func openCache(ctx context.Context) (*offily.Cache[string, string], error) {
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	cache, err := offily.Open(ctx, dataDir, storeName, offily.StringCodec{}, offily.StringCodec{},
		offily.WithCapacity(capacity),
		offily.WithIdentifier(shardID),
		offily.WithCompression(offily.Compression(compression)),
		offily.WithFlushOnClose(true),
		offily.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", storeName, err)
	}
	return cache, nil
}

// withCache runs fn against the store and closes it, reporting the first
// error.
func withCache(cmd *cobra.Command, fn func(*offily.Cache[string, string]) error) (err error) {
	cache, err := openCache(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cache.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing store: %w", cerr)
		}
	}()
	return fn(cache)
}

// logPath returns the write-ahead log selected by the global flags.
func logPath() string {
	return filepath.Join(dataDir, wal.Filename(storeName, shardID))
}
