package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/tierstore-go/config"
	"github.com/bitfsorg/tierstore-go/storage"
)

func newRootCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tierstore",
		Short:         "Tiered binary storage maintenance tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newPutCmd(cfg),
		newGetCmd(cfg),
		newRmCmd(cfg),
		newQuotaCmd(cfg),
		newScanCmd(cfg),
	)
	return cmd
}

// withStore opens the configured backends, runs fn, and closes them.
func withStore(cfg config.Config, fn func(*storage.TieredStore) error) error {
	bounded, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "bounded"), cfg.QuotaBytes)
	if err != nil {
		return err
	}

	opts := []storage.Option{
		storage.WithLogger(newLogger(cfg.LogLevel)),
		storage.WithChunkSize(cfg.ChunkSize),
		storage.WithLargeFileThreshold(cfg.LargeFileThreshold),
		storage.WithEntryLimit(cfg.EntryLimit),
		storage.WithQuotaFallback(cfg.QuotaBytes),
	}

	var blob *storage.BoltBlobStore
	if !cfg.DisableBlobStore {
		blob, err = storage.OpenBoltBlobStore(filepath.Join(cfg.DataDir, "blobs.db"))
		if err != nil {
			return err
		}
		defer func() { _ = blob.Close() }()
		opts = append(opts, storage.WithBlobStore(blob))
	}

	return fn(storage.New(bounded, opts...))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newPutCmd(cfg config.Config) *cobra.Command {
	var (
		mimeType  string
		forceBlob bool
	)

	cmd := &cobra.Command{
		Use:   "put <key> <file>",
		Short: "Store a file under a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(store *storage.TieredStore) error {
				data, err := storage.FileToBytes(&storage.BinaryFile{Path: args[1]})
				if err != nil {
					return err
				}
				stats, err := store.Set(cmd.Context(), args[0], data, &storage.SetOptions{
					MimeType:       mimeType,
					ForceBlobStore: forceBlob,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"stored %q via %s (%d bytes, stored %d, compressed=%t)\n",
					args[0], stats.StorageMethod, stats.OriginalSize,
					stats.StoredSize, stats.Compressed)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&mimeType, "mime", "", "content type recorded with the payload")
	cmd.Flags().BoolVar(&forceBlob, "force-blob", false, "route to the blob backend regardless of size")
	return cmd
}

func newGetCmd(cfg config.Config) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "get <key> <outfile>",
		Short: "Read a key back into a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(store *storage.TieredStore) error {
				read := store.Get
				if strict {
					read = store.GetStrict
				}
				data, err := read(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if data == nil {
					return fmt.Errorf("key %q not found", args[0])
				}
				dir, name := filepath.Split(args[1])
				if dir == "" {
					dir = "."
				}
				_, err = storage.BytesToFile(data, dir, name, "", time.Time{})
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "surface corruption instead of treating it as absence")
	return cmd
}

func newRmCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <key>",
		Short: "Remove a key from every tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(store *storage.TieredStore) error {
				return store.Remove(cmd.Context(), args[0])
			})
		},
	}
}

func newQuotaCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show bounded backend capacity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(store *storage.TieredStore) error {
				info, err := store.EstimateQuota()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "used %d of %d bytes (%.1f%%), %d available\n",
					info.UsedBytes, info.QuotaBytes, info.UsagePercentage, info.AvailableBytes)
				return nil
			})
		},
	}
}

func newScanCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the namespace and remove corrupt records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(store *storage.TieredStore) error {
				report, err := store.ScanAndRepair(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanned %d keys, cleared %d corrupt records\n",
					report.Scanned, report.Cleared)
				for _, rmErr := range report.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "removal error: %v\n", rmErr)
				}
				return nil
			})
		},
	}
}
