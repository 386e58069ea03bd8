package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ytkit/internal/batch"
	"ytkit/internal/config"
	"ytkit/internal/preflight"
	"ytkit/internal/urllist"
	"ytkit/internal/ytdlp"
)

// newDownloadClient builds a yt-dlp client from the [download] section.
// outDir overrides download.output_dir when non-empty.
func newDownloadClient(cfg *config.Config, logger *slog.Logger, outDir string, edit func(*ytdlp.Options)) (*ytdlp.Client, error) {
	opts := ytdlp.OptionsFromConfig(cfg.Download)
	if strings.TrimSpace(outDir) != "" {
		dir, err := config.ExpandPath(outDir)
		if err != nil {
			return nil, fmt.Errorf("--out: %w", err)
		}
		opts.OutputDir = dir
	}
	if edit != nil {
		edit(&opts)
	}
	return ytdlp.New(opts, ytdlp.ExecRunner{}, logger), nil
}

// requireDownloader fails fast when yt-dlp cannot be resolved.
func requireDownloader(cfg *config.Config) error {
	if missing := preflight.Missing(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
		return fmt.Errorf("%w: %s (install yt-dlp or set download.ytdlp_path)", ytdlp.ErrNotInstalled, missing[0].Detail)
	}
	return nil
}

func installHint(err error) error {
	if errors.Is(err, ytdlp.ErrNotInstalled) {
		return fmt.Errorf("%w (install yt-dlp or set download.ytdlp_path)", err)
	}
	return err
}

func newURLsCommand(ctx *commandContext) *cobra.Command {
	urlsCmd := &cobra.Command{
		Use:   "urls",
		Short: "Maintain url_yt.txt lists",
	}
	urlsCmd.AddCommand(newURLsFetchCommand(ctx))
	urlsCmd.AddCommand(newURLsFindCommand())
	return urlsCmd
}

func newURLsFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir  string
		prepend bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "fetch <playlist|channel|video>",
		Short: "Resolve a source into video URLs and write them to url_yt.txt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup(cmd)
			if err != nil {
				return err
			}
			if err := requireDownloader(cfg); err != nil {
				return err
			}
			client, err := newDownloadClient(cfg, logger, "", nil)
			if err != nil {
				return err
			}
			dir := outDir
			if strings.TrimSpace(dir) == "" {
				dir = "."
			}
			if dir, err = config.ExpandPath(dir); err != nil {
				return fmt.Errorf("--out: %w", err)
			}

			entries, err := client.ResolveEntries(cmd.Context(), args[0])
			if err != nil {
				return installHint(err)
			}
			if len(entries) == 0 {
				return fmt.Errorf("no videos found for %s", args[0])
			}
			urls := make([]string, 0, len(entries))
			for _, entry := range entries {
				urls = append(urls, entry.URL())
			}
			result, err := urllist.Write(dir, urls, prepend, time.Now())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d URL(s) to %s (%d new)\n", result.Total, result.Path, result.New)
			if result.Backup != "" {
				fmt.Fprintf(out, "Previous list backed up to %s\n", result.Backup)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for url_yt.txt (default: current directory)")
	cmd.Flags().BoolVar(&prepend, "prepend", false, "Keep the existing list and put new URLs first")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newURLsFindCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "find <glob|dir|file>",
		Short:       "List url_yt.txt files matched by a glob, directory, or path",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := urllist.Find(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No URL lists found")
				return nil
			}
			for _, file := range files {
				fmt.Fprintln(out, file)
			}
			return nil
		},
	}
}

func newAudioCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir      string
		encoding    string
		simulate    bool
		listFormats bool
		jsonOut     bool
	)
	cmd := &cobra.Command{
		Use:   "audio <url|url-file>",
		Short: "Download audio for a URL or every URL in a list file",
		Long: "Download audio for a URL or every URL in a list file.\n\n" +
			"--simulate runs yt-dlp without writing files and reports the planned names.\n" +
			"--list-formats prints the available formats of the first URL and exits.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup(cmd)
			if err != nil {
				return err
			}
			if err := requireDownloader(cfg); err != nil {
				return err
			}
			targets, err := urllist.ReadTargets(args[0], encoding)
			if err != nil {
				return err
			}
			client, err := newDownloadClient(cfg, logger, outDir, func(opts *ytdlp.Options) {
				opts.Simulate = simulate
			})
			if err != nil {
				return err
			}
			if listFormats {
				if len(targets) == 0 {
					return fmt.Errorf("no URLs in %s", args[0])
				}
				table, err := client.ListFormats(cmd.Context(), targets[0])
				if err != nil {
					return installHint(err)
				}
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			}
			dir, err := filepath.Abs(client.Options().OutputDir)
			if err != nil {
				return err
			}

			var (
				outcomes []ytdlp.Outcome
				summary  batch.Summary
			)
			_, err = runJob(cmd, cfg, logger, "audio", dir, true, func(jobCtx context.Context, progress batch.ProgressFunc) error {
				progress.Report(len(targets), 0, "downloading")
				for i, url := range targets {
					if jobCtx.Err() != nil {
						summary.Cancelled = true
						return nil
					}
					outcome, err := client.FetchAudio(jobCtx, url)
					if err != nil {
						if jobCtx.Err() != nil {
							summary.Cancelled = true
							return nil
						}
						return err
					}
					outcomes = append(outcomes, outcome)
					switch outcome.Status {
					case ytdlp.StatusDownloaded, ytdlp.StatusSimulated:
						summary.Succeeded++
					case ytdlp.StatusSkipped:
						summary.Skip("existing")
					default:
						summary.Errored++
					}
					progress.Report(len(targets), i+1, outcome.Title)
				}
				return nil
			})
			if err != nil {
				return installHint(err)
			}

			if jsonOut {
				if err := writeJSON(cmd, outcomes); err != nil {
					return err
				}
			} else {
				printAudioOutcomes(cmd, dir, outcomes, summary)
			}
			if err := cancelledErr(cmd.Context(), summary.Cancelled); err != nil {
				return err
			}
			return failedErr(summary.Errored, len(targets))
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default from download.output_dir)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Fallback encoding for non UTF-8 list files, e.g. windows-1258")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "Run yt-dlp without downloading")
	cmd.Flags().BoolVar(&listFormats, "list-formats", false, "List the formats of the first URL and exit")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("simulate", "list-formats")
	return cmd
}

func printAudioOutcomes(cmd *cobra.Command, dir string, outcomes []ytdlp.Outcome, summary batch.Summary) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		detail := displayPath(dir, outcome.Path)
		switch outcome.Status {
		case ytdlp.StatusSkipped:
			detail = outcome.Existing
		case ytdlp.StatusFailed:
			detail = outcome.Error
		}
		size := ""
		if outcome.Path != "" {
			if info, err := os.Stat(outcome.Path); err == nil {
				size = humanize.Bytes(uint64(info.Size()))
			}
		}
		rows = append(rows, []string{outcome.Title, string(outcome.Status), outcome.Format, strconv.Itoa(outcome.Attempts), size, detail})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Title", "Status", "Format", "Tries", "Size", "File"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}
	fmt.Fprintf(out, "Summary: %s\n", summary)
}

func newSubsCommand(ctx *commandContext) *cobra.Command {
	var (
		scan        string
		outDir      string
		encoding    string
		withVideo   bool
		maxFilesize string
		jsonOut     bool
	)
	cmd := &cobra.Command{
		Use:   "subs [url|url-file]",
		Short: "Download tagged captions for a URL, a list file, or every list found by --scan",
		Long: "Download captions named \"<title> [<id>] - <YYYY-MM-DD>.<lang>.<ext>\" so that\n" +
			"`ytkit tags` can propagate the tag onto sibling files. With --scan, every url_yt.txt\n" +
			"matched by a glob or found under a directory is processed into its own folder.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (scan == "") {
				return errors.New("pass either a url/url-file or --scan")
			}
			if cmd.Flags().Changed("max-filesize") {
				if !withVideo {
					return errors.New("--max-filesize requires --with-video")
				}
				if !config.ValidSize(maxFilesize) {
					return fmt.Errorf("--max-filesize: invalid size %q (want e.g. 500M)", maxFilesize)
				}
			}
			cfg, logger, err := ctx.setup(cmd)
			if err != nil {
				return err
			}
			if err := requireDownloader(cfg); err != nil {
				return err
			}
			client, err := newDownloadClient(cfg, logger, outDir, func(opts *ytdlp.Options) {
				if withVideo {
					opts.IncludeVideo = true
				}
				if cmd.Flags().Changed("max-filesize") {
					opts.MaxFilesize = maxFilesize
				}
			})
			if err != nil {
				return err
			}

			type subsBatch struct {
				dir  string
				urls []string
			}
			var batches []subsBatch
			if scan != "" {
				files, err := urllist.Find(scan)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					return fmt.Errorf("no %s found for %s", urllist.FileName, scan)
				}
				for _, file := range files {
					lines, err := urllist.ReadLines(file, encoding)
					if err != nil {
						return err
					}
					batches = append(batches, subsBatch{dir: filepath.Dir(file), urls: urllist.Normalize(lines)})
				}
			} else {
				urls, err := urllist.ReadTargets(args[0], encoding)
				if err != nil {
					return err
				}
				batches = append(batches, subsBatch{dir: client.Options().OutputDir, urls: urls})
			}

			key, err := filepath.Abs(batches[0].dir)
			if err != nil {
				return err
			}
			var (
				results   []ytdlp.SubtitleResult
				cancelled bool
			)
			_, err = runJob(cmd, cfg, logger, "subs", key, true, func(jobCtx context.Context, progress batch.ProgressFunc) error {
				progress.Report(len(batches), 0, "subtitles")
				for i, item := range batches {
					if jobCtx.Err() != nil {
						cancelled = true
						return nil
					}
					result, err := client.FetchSubtitles(jobCtx, item.urls, item.dir)
					if err != nil {
						if jobCtx.Err() != nil {
							cancelled = true
							return nil
						}
						return err
					}
					results = append(results, result)
					progress.Report(len(batches), i+1, item.dir)
				}
				return nil
			})
			if err != nil {
				return installHint(err)
			}

			if jsonOut {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				printSubtitleResults(cmd, results)
			}
			return cancelledErr(cmd.Context(), cancelled)
		},
	}
	cmd.Flags().StringVar(&scan, "scan", "", "Glob or directory searched for url_yt.txt files")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory for a single url or file (default from download.output_dir)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Fallback encoding for non UTF-8 list files, e.g. windows-1258")
	cmd.Flags().BoolVar(&withVideo, "with-video", false, "Also download the video next to its captions")
	cmd.Flags().StringVar(&maxFilesize, "max-filesize", "", "Skip videos larger than this size, e.g. 500M (default from download.max_filesize)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func printSubtitleResults(cmd *cobra.Command, results []ytdlp.SubtitleResult) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(results))
	written := 0
	for _, result := range results {
		written += len(result.Written)
		rows = append(rows, []string{
			result.Dir,
			strconv.Itoa(result.URLs),
			strconv.Itoa(len(result.Written)),
			strconv.Itoa(len(result.Errors)),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Folder", "URLs", "Captions", "Errors"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
	for _, result := range results {
		for _, msg := range result.Errors {
			fmt.Fprintf(out, "%s: %s\n", result.Dir, msg)
		}
	}
	fmt.Fprintf(out, "Wrote %d caption file(s)\n", written)
}
