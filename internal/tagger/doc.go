// Package tagger propagates "[ID] - YYYY-MM-DD" tags from anchor files to
// untagged siblings that share a normalized core title in the same directory.
//
// Planning is a dry run over a file list: DiscoverAnchors finds tagged files,
// Plan proposes new names and counts skips by reason. WriteLog records the
// plan as a timestamped CSV, Apply executes it while rewriting each row's
// outcome, and Revert walks a log back. All three honour context cancellation
// between files and report progress through a batch.ProgressFunc.
package tagger
