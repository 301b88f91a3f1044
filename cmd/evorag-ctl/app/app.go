// Package app provides the EvoRAG maintenance CLI.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kart-io/evorag/cmd/evorag-ctl/app/options"
	serverapp "github.com/kart-io/evorag/cmd/evorag/app"
	"github.com/kart-io/evorag/internal/evorag"
	"github.com/kart-io/evorag/internal/evorag/biz"
	"github.com/kart-io/evorag/pkg/infra/app"
)

// Name is the name of the CLI.
const Name = "evorag-ctl"

const commandDesc = `EvoRAG maintenance CLI

Ingest, delete and watch documents in the EvoRAG vector collection
without going through the HTTP API.`

// NewApp creates the CLI application.
func NewApp() *app.App {
	opts := options.NewCtlOptions()
	return app.NewApp(
		app.WithName(Name),
		app.WithConfigName(evorag.Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithCommands(
			newIngestCommand(opts),
			newDeleteCommand(opts),
			newDropCommand(opts),
			newCountCommand(opts),
			newWatchCommand(opts),
		),
	)
}

// withComponents builds the ingestion side, runs fn and releases everything.
func withComponents(ctx context.Context, opts *options.CtlOptions, fn func(ctx context.Context, c *evorag.Components) error) error {
	cfg := opts.Config()
	if err := cfg.InitLogger(); err != nil {
		return err
	}

	c, err := cfg.BuildIngestion(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		_ = c.Close(closeCtx)
	}()

	return fn(ctx, c)
}

func newIngestCommand(opts *options.CtlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file|dir>...",
		Short: "Ingest documents; directories are walked for supported files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(serverapp.SetupSignalContext(), opts, func(ctx context.Context, c *evorag.Components) error {
				var files []string
				for _, arg := range args {
					fi, err := os.Stat(arg)
					if err != nil {
						return err
					}
					if !fi.IsDir() {
						files = append(files, arg)
						continue
					}
					found, err := c.Converter.FindFiles(arg)
					if err != nil {
						return fmt.Errorf("walk %s: %w", arg, err)
					}
					files = append(files, found...)
				}

				failed := 0
				for _, f := range files {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					ingestCtx, cancel := context.WithTimeout(ctx, opts.RAGOptions.IngestTimeout)
					res, err := c.Ingestion.ProcessDocument(ingestCtx, f)
					cancel()
					if err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "%s\tfailed\t%v\n", f, err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tchunks=%d\torphaned=%d\n",
						res.Source, res.Status, res.ChunkCount, len(res.OrphanedIDs))
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d documents failed", failed, len(files))
				}
				return nil
			})
		},
	}
}

func newDeleteCommand(opts *options.CtlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <source>...",
		Short: "Delete every chunk of the given sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd.Context(), opts, func(ctx context.Context, c *evorag.Components) error {
				for _, source := range args {
					outcome, err := c.Ingestion.DeleteDocument(ctx, source)
					if err != nil {
						return fmt.Errorf("delete %s: %w", source, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", source, outcome)
				}
				return nil
			})
		},
	}
}

func newDropCommand(opts *options.CtlOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "drop-collection",
		Short: "Drop the whole vector collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to drop collection %q without --yes", opts.RAGOptions.Collection)
			}
			return withComponents(cmd.Context(), opts, func(ctx context.Context, c *evorag.Components) error {
				if err := c.Ingestion.DropCollection(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "collection %s dropped\n", c.Ingestion.Collection())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm dropping the collection")
	return cmd
}

func newCountCommand(opts *options.CtlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of points in the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withComponents(cmd.Context(), opts, func(ctx context.Context, c *evorag.Components) error {
				n, err := c.Ingestion.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", c.Ingestion.Collection(), n)
				return nil
			})
		},
	}
}

func newWatchCommand(opts *options.CtlOptions) *cobra.Command {
	var (
		debounce time.Duration
		initial  bool
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Keep the collection in sync with a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			return withComponents(serverapp.SetupSignalContext(), opts, func(ctx context.Context, c *evorag.Components) error {
				if initial {
					files, err := c.Converter.FindFiles(dir)
					if err != nil {
						return fmt.Errorf("walk %s: %w", dir, err)
					}
					for _, f := range files {
						if _, err := c.Ingestion.ProcessDocument(ctx, f); err != nil {
							fmt.Fprintf(cmd.ErrOrStderr(), "%s\tfailed\t%v\n", f, err)
						}
					}
				}

				w := biz.NewWatcher(c.Ingestion, c.Converter.Supports, debounce)
				fmt.Fprintf(cmd.OutOrStdout(), "watching %s (Ctrl+C to stop)\n", dir)
				return w.Run(ctx, dir)
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", time.Second, "Quiet period before a changed file is processed")
	cmd.Flags().BoolVar(&initial, "initial", false, "Ingest existing files before watching")
	return cmd
}
