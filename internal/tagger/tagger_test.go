package tagger_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"ytkit/internal/batch"
	"ytkit/internal/logging"
	"ytkit/internal/tagger"
	"ytkit/internal/testsupport"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local)

func newTagger(t *testing.T, mode batch.Collision, recursive bool) *tagger.Tagger {
	t.Helper()
	tg, err := tagger.New(tagger.Options{
		Extensions: tagger.DefaultExtensions,
		Collision:  mode,
		LogDir:     filepath.Join(t.TempDir(), "logs"),
		Recursive:  recursive,
		Now:        func() time.Time { return fixedNow },
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("tagger.New: %v", err)
	}
	return tg
}

func plan(t *testing.T, tg *tagger.Tagger, root string) tagger.PlanResult {
	t.Helper()
	files, err := tg.Collect(context.Background(), root)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return tg.Plan(context.Background(), files, nil)
}

func newNames(entries []tagger.Entry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, filepath.Base(e.Old)+" -> "+filepath.Base(e.New))
	}
	slices.Sort(names)
	return names
}

func TestNewRejectsEmptyExtensions(t *testing.T) {
	_, err := tagger.New(tagger.Options{Extensions: []string{" ", ""}}, nil)
	if !errors.Is(err, tagger.ErrNoExtensions) {
		t.Fatalf("expected ErrNoExtensions, got %v", err)
	}
}

func TestPlanUsesHighestPriorityAnchor(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir,
		"Talk [xyz789] - 2023-05-05.mp3",
		"Talk [abc123] - 2024-01-01.vi.vtt",
		"Talk.pdf",
	)
	result := plan(t, newTagger(t, batch.CollisionSuffix, false), dir)

	want := []string{"Talk.pdf -> Talk [abc123] - 2024-01-01.pdf"}
	if got := newNames(result.Entries); !slices.Equal(got, want) {
		t.Fatalf("entries got %q want %q", got, want)
	}
	entry := result.Entries[0]
	if entry.ID != "abc123" || entry.Date != "2024-01-01" {
		t.Fatalf("entry tag got %s/%s", entry.ID, entry.Date)
	}
	if result.Summary.SkipReasons[tagger.SkipAlreadyTagged] != 2 {
		t.Fatalf("skip reasons got %v", result.Summary.SkipReasons)
	}
	if got := testsupport.ListNames(t, dir); len(got) != 3 || !slices.Contains(got, "Talk.pdf") {
		t.Fatalf("plan must not rename anything, got %q", got)
	}
}

func TestPlanMatchesCoreKeyLoosely(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir,
		"Bài  Giảng 1 [abc123] - 2024-01-01.mp3",
		"bài giảng 1.vi.vtt",
		"Notes.txt",
		"cover.jpg",
		"[abc123] - 2024-01-01.docx",
	)
	result := plan(t, newTagger(t, batch.CollisionSuffix, false), dir)

	want := []string{"bài giảng 1.vi.vtt -> bài giảng 1 [abc123] - 2024-01-01.vi.vtt"}
	if got := newNames(result.Entries); !slices.Equal(got, want) {
		t.Fatalf("entries got %q want %q", got, want)
	}
	reasons := result.Summary.SkipReasons
	if reasons[tagger.SkipNoAnchor] != 1 || reasons[tagger.SkipExtension] != 1 || reasons[tagger.SkipAlreadyTagged] != 2 {
		t.Fatalf("skip reasons got %v", reasons)
	}
}

func TestPlanEmptyCore(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, " _-.txt", "x [abc123] - 2024-01-01.mp3")
	result := plan(t, newTagger(t, batch.CollisionSuffix, false), dir)
	if len(result.Entries) != 0 || result.Summary.SkipReasons[tagger.SkipEmptyCore] != 1 {
		t.Fatalf("got entries %v reasons %v", result.Entries, result.Summary.SkipReasons)
	}
}

func TestPlanAnchorsAreScopedToDirectory(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir,
		"a/Talk [abc123] - 2024-01-01.mp3",
		"a/Talk.pdf",
		"b/Talk.pdf",
	)
	result := plan(t, newTagger(t, batch.CollisionSuffix, true), dir)
	if len(result.Entries) != 1 || filepath.Base(filepath.Dir(result.Entries[0].Old)) != "a" {
		t.Fatalf("entries got %+v", result.Entries)
	}
	if result.Summary.SkipReasons[tagger.SkipNoAnchor] != 1 {
		t.Fatalf("skip reasons got %v", result.Summary.SkipReasons)
	}

	flat := plan(t, newTagger(t, batch.CollisionSuffix, false), dir)
	if len(flat.Entries) != 0 || flat.Summary.Total() != 0 {
		t.Fatalf("non-recursive plan should see no files, got %+v", flat)
	}
}

func TestPlanCollisionModes(t *testing.T) {
	tests := []struct {
		mode batch.Collision
		want []string
	}{
		{batch.CollisionSuffix, []string{"Talk.mp4 -> Talk [abc123] - 2024-01-01 (1).mp4"}},
		{batch.CollisionOverwrite, []string{"Talk.mp4 -> Talk [abc123] - 2024-01-01.mp4"}},
		{batch.CollisionSkip, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			dir := t.TempDir()
			testsupport.WriteFiles(t, dir,
				"Talk [abc123] - 2024-01-01.mp3",
				"Talk.mp4",
				"Talk [abc123] - 2024-01-01.mp4",
			)
			result := plan(t, newTagger(t, tt.mode, false), dir)
			if got := newNames(result.Entries); !slices.Equal(got, tt.want) {
				t.Fatalf("entries got %q want %q", got, tt.want)
			}
			if tt.mode == batch.CollisionSkip && result.Summary.SkipReasons[tagger.SkipCollision] != 1 {
				t.Fatalf("skip reasons got %v", result.Summary.SkipReasons)
			}
		})
	}
}

func TestPlanClaimsTargetsWithinBatch(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir,
		"Talk [abc123] - 2024-01-01.mp3",
		"Talk.pdf",
		"Talk .pdf",
	)
	result := plan(t, newTagger(t, batch.CollisionSuffix, false), dir)
	targets := make([]string, 0, len(result.Entries))
	for _, e := range result.Entries {
		targets = append(targets, filepath.Base(e.New))
	}
	slices.Sort(targets)
	want := []string{"Talk [abc123] - 2024-01-01 (1).pdf", "Talk [abc123] - 2024-01-01.pdf"}
	if !slices.Equal(targets, want) {
		t.Fatalf("targets got %q want %q", targets, want)
	}
}

func TestSuffixedTargetsStayTagged(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir,
		"Talk [abc123] - 2024-01-01.mp3",
		"Talk [abc123] - 2024-01-01.pdf",
		"Talk [abc123] - 2024-01-01.vi.vtt",
		"Talk.pdf",
		"Talk.vi.vtt",
	)
	tg := newTagger(t, batch.CollisionSuffix, false)
	first := plan(t, tg, dir)
	want := []string{
		"Talk.pdf -> Talk [abc123] - 2024-01-01 (1).pdf",
		"Talk.vi.vtt -> Talk [abc123] - 2024-01-01 (1).vi.vtt",
	}
	if got := newNames(first.Entries); !slices.Equal(got, want) {
		t.Fatalf("entries got %q want %q", got, want)
	}
	logPath, err := tg.WriteLog(first.Entries)
	if err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	if _, err := tg.Apply(context.Background(), first.Entries, logPath, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	second := plan(t, tg, dir)
	if len(second.Entries) != 0 {
		t.Fatalf("second plan should be empty, got %q", newNames(second.Entries))
	}
	if got := second.Summary.SkipReasons[tagger.SkipAlreadyTagged]; got != 5 {
		t.Fatalf("already tagged got %d, skip reasons %v", got, second.Summary.SkipReasons)
	}
}

func TestPlanCancelled(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, "Talk [abc123] - 2024-01-01.mp3", "Talk.pdf")
	tg := newTagger(t, batch.CollisionSuffix, false)
	files, err := tg.Collect(context.Background(), dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := tg.Plan(ctx, files, nil)
	if !result.Summary.Cancelled || len(result.Entries) != 0 {
		t.Fatalf("expected cancelled empty plan, got %+v", result)
	}
}

func TestWriteLogNamingAndContent(t *testing.T) {
	tg := newTagger(t, batch.CollisionSuffix, false)
	entries := []tagger.Entry{{Old: "/m/Talk.pdf", New: "/m/Talk [abc123] - 2024-01-01.pdf"}}

	first, err := tg.WriteLog(entries)
	if err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	if got := filepath.Base(first); got != "rename_log_2024-03-09_14-05-06.csv" {
		t.Fatalf("log name got %q", got)
	}
	second, err := tg.WriteLog(entries)
	if err != nil {
		t.Fatalf("WriteLog again: %v", err)
	}
	if got := filepath.Base(second); got != "rename_log_2024-03-09_14-05-06 (1).csv" {
		t.Fatalf("second log name got %q", got)
	}

	content := testsupport.ReadFile(t, first)
	want := "timestamp,old_path,new_path,applied\n" +
		"2024-03-09T14:05:06,/m/Talk.pdf,/m/Talk [abc123] - 2024-01-01.pdf,NO\n"
	if content != want {
		t.Fatalf("log content got %q want %q", content, want)
	}

	latest, err := tagger.LatestLog(filepath.Dir(first))
	if err != nil {
		t.Fatalf("LatestLog: %v", err)
	}
	if latest != first && latest != second {
		t.Fatalf("LatestLog got %q", latest)
	}
}

func TestApplyAndRevert(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir,
		"Talk [abc123] - 2024-01-01.mp3",
		"Talk.pdf",
		"Talk.docx",
	)
	tg := newTagger(t, batch.CollisionSuffix, false)
	result := plan(t, tg, dir)
	logPath, err := tg.WriteLog(result.Entries)
	if err != nil {
		t.Fatalf("WriteLog: %v", err)
	}

	applied, err := tg.Apply(context.Background(), result.Entries, logPath, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied.Summary.Succeeded != 2 || applied.Summary.Errored != 0 {
		t.Fatalf("apply summary got %s", applied.Summary)
	}
	wantApplied := []string{
		"Talk [abc123] - 2024-01-01.docx",
		"Talk [abc123] - 2024-01-01.mp3",
		"Talk [abc123] - 2024-01-01.pdf",
	}
	if got := testsupport.ListNames(t, dir); !slices.Equal(got, wantApplied) {
		t.Fatalf("after apply got %q want %q", got, wantApplied)
	}
	if got := testsupport.ReadFile(t, filepath.Join(dir, "Talk [abc123] - 2024-01-01.pdf")); got != "Talk.pdf" {
		t.Fatalf("renamed content got %q", got)
	}
	rows, err := tagger.ReadLog(logPath)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	for _, row := range rows {
		if row.Applied != tagger.AppliedYes {
			t.Fatalf("row %+v not marked YES", row)
		}
	}

	reverted, err := tg.Revert(context.Background(), logPath, nil)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted.Reverted() != 2 {
		t.Fatalf("reverted got %d", reverted.Reverted())
	}
	wantOriginal := []string{"Talk [abc123] - 2024-01-01.mp3", "Talk.docx", "Talk.pdf"}
	if got := testsupport.ListNames(t, dir); !slices.Equal(got, wantOriginal) {
		t.Fatalf("after revert got %q want %q", got, wantOriginal)
	}

	again, err := tg.Revert(context.Background(), logPath, nil)
	if err != nil {
		t.Fatalf("second Revert: %v", err)
	}
	if again.Reverted() != 0 || again.Summary.SkipReasons[tagger.SkipMissing] != 2 {
		t.Fatalf("second revert summary got %s", again.Summary)
	}
	if got := testsupport.ListNames(t, dir); !slices.Equal(got, wantOriginal) {
		t.Fatalf("second revert changed files: %q", got)
	}
}

func TestApplyRecordsErrors(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, "Talk [abc123] - 2024-01-01.mp3", "Talk.pdf", "Talk.txt")
	tg := newTagger(t, batch.CollisionSuffix, false)
	result := plan(t, tg, dir)
	logPath, err := tg.WriteLog(result.Entries)
	if err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "Talk.pdf")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	applied, err := tg.Apply(context.Background(), result.Entries, logPath, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if applied.Summary.Succeeded != 1 || applied.Summary.Errored != 1 || len(applied.Errors) != 1 {
		t.Fatalf("apply summary got %s errors %v", applied.Summary, applied.Errors)
	}
	rows, err := tagger.ReadLog(logPath)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	var failed int
	for _, row := range rows {
		if row.Failed() {
			failed++
			if filepath.Base(row.Old) != "Talk.pdf" || !strings.HasPrefix(row.Applied, "ERROR: ") {
				t.Fatalf("unexpected failed row %+v", row)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("failed rows got %d", failed)
	}

	reverted, err := tg.Revert(context.Background(), logPath, nil)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted.Reverted() != 1 || reverted.Summary.SkipReasons[tagger.SkipNotApplied] != 1 {
		t.Fatalf("revert summary got %s", reverted.Summary)
	}
}

func TestApplyCancelledKeepsLogConsistent(t *testing.T) {
	dir := t.TempDir()
	const count = 25
	for i := range count {
		testsupport.WriteFiles(t, dir,
			fmt.Sprintf("Talk %02d [abc123] - 2024-01-01.mp3", i),
			fmt.Sprintf("Talk %02d.pdf", i),
		)
	}
	tg := newTagger(t, batch.CollisionSuffix, false)
	result := plan(t, tg, dir)
	if len(result.Entries) != count {
		t.Fatalf("planned %d entries, want %d", len(result.Entries), count)
	}
	logPath, err := tg.WriteLog(result.Entries)
	if err != nil {
		t.Fatalf("WriteLog: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	progress := func(p batch.Progress) {
		if p.Done >= 20 {
			cancel()
		}
	}
	applied, err := tg.Apply(ctx, result.Entries, logPath, progress)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !applied.Summary.Cancelled || applied.Summary.Succeeded != 20 {
		t.Fatalf("apply summary got %s", applied.Summary)
	}

	rows, err := tagger.ReadLog(logPath)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(rows) != count {
		t.Fatalf("log rows got %d want %d", len(rows), count)
	}
	var yes, no int
	for _, row := range rows {
		switch row.Applied {
		case tagger.AppliedYes:
			yes++
		case tagger.AppliedNo:
			no++
		}
	}
	if yes != 20 || no != count-20 {
		t.Fatalf("log rows yes=%d no=%d", yes, no)
	}

	reverted, err := tg.Revert(context.Background(), logPath, nil)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted.Reverted() != 20 {
		t.Fatalf("reverted got %d want 20", reverted.Reverted())
	}
	for _, name := range testsupport.ListNames(t, dir) {
		if strings.HasSuffix(name, ".pdf") && strings.Contains(name, "[abc123]") {
			t.Fatalf("file %q left tagged after revert", name)
		}
	}
}

func TestRevertOccupiedOriginal(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, "Talk [abc123] - 2024-01-01.mp3", "Talk.pdf")
	tg := newTagger(t, batch.CollisionSuffix, false)
	result := plan(t, tg, dir)
	logPath, err := tg.WriteLog(result.Entries)
	if err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	if _, err := tg.Apply(context.Background(), result.Entries, logPath, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(dir, "Talk.pdf"), "newcomer")

	if _, err := tg.Revert(context.Background(), logPath, nil); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if got := testsupport.ReadFile(t, filepath.Join(dir, "Talk.pdf")); got != "newcomer" {
		t.Fatalf("occupied original overwritten, content %q", got)
	}
	if got := testsupport.ReadFile(t, filepath.Join(dir, "Talk (1).pdf")); got != "Talk.pdf" {
		t.Fatalf("reverted file content got %q", got)
	}
}

func TestRevertMissingLog(t *testing.T) {
	tg := newTagger(t, batch.CollisionSuffix, false)
	_, err := tg.Revert(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), nil)
	if !errors.Is(err, tagger.ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound, got %v", err)
	}
	if _, err := tagger.LatestLog(t.TempDir()); !errors.Is(err, tagger.ErrLogNotFound) {
		t.Fatalf("LatestLog on empty dir: %v", err)
	}
}

func TestPlanProgress(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFiles(t, dir, "Talk [abc123] - 2024-01-01.mp3", "Talk.pdf")
	tg := newTagger(t, batch.CollisionSuffix, false)
	files, err := tg.Collect(context.Background(), dir)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var seen []batch.Progress
	tg.Plan(context.Background(), files, func(p batch.Progress) { seen = append(seen, p) })
	if len(seen) < 2 {
		t.Fatalf("progress events got %v", seen)
	}
	if first := seen[0]; first.Done != 0 || first.Total != 2 {
		t.Fatalf("first progress got %+v", first)
	}
	if last := seen[len(seen)-1]; last.Done != last.Total {
		t.Fatalf("last progress got %+v", last)
	}
}
