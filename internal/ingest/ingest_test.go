package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"PlateBot/internal/domain"
)

const workbook = `plate,review_reason_code,customer_meaning,reviewer_comments,status
abc123,7,my initials,no micro,Y
duck,7,,looks fine,N
,7,meaning,comment,Y
oops,7,meaning,comment,Z
mys7ery,7,"says ""hi""",unsure,?
`

func writeWorkbook(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadWorkbooks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeWorkbook(t, dir, "applications-1.csv", workbook)
	writeWorkbook(t, dir, "notes.txt", "not a workbook")

	res, err := LoadWorkbooks(dir, nil)
	if err != nil {
		t.Fatalf("LoadWorkbooks: %v", err)
	}

	if res.SourceRows != 5 {
		t.Errorf("SourceRows = %d, want 5", res.SourceRows)
	}
	if res.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", res.Skipped)
	}
	if len(res.Records) != 3 {
		t.Fatalf("len(Records) = %d, want 3", len(res.Records))
	}

	first := res.Records[0]
	if first.Text != "ABC123" {
		t.Errorf("Text = %q, want ABC123", first.Text)
	}
	if first.CustomerComment != "MY INITIALS" {
		t.Errorf("CustomerComment = %q", first.CustomerComment)
	}
	if first.DMVComment != "(NOT ON RECORD)" {
		t.Errorf("DMVComment = %q, want clerical comment replaced", first.DMVComment)
	}
	if first.Verdict != domain.VerdictApproved {
		t.Errorf("Verdict = %v, want approved", first.Verdict)
	}

	second := res.Records[1]
	if second.CustomerComment != "(NOT ON RECORD)" {
		t.Errorf("empty customer comment = %q, want (NOT ON RECORD)", second.CustomerComment)
	}
	if second.Verdict != domain.VerdictDenied {
		t.Errorf("Verdict = %v, want denied", second.Verdict)
	}

	third := res.Records[2]
	if third.CustomerComment != `SAYS "HI"` {
		t.Errorf("CustomerComment = %q, want doubled quotes collapsed", third.CustomerComment)
	}
	if third.Verdict != domain.VerdictUnknown {
		t.Errorf("Verdict = %v, want unknown", third.Verdict)
	}

	seen := map[string]bool{}
	for _, rec := range res.Records {
		if rec.ID == "" {
			t.Error("record has empty ID")
		}
		if seen[rec.ID] {
			t.Errorf("duplicate record ID %s", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestLoadWorkbooksAggregatesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeWorkbook(t, dir, "a.csv", "plate,review_reason_code,customer_meaning,reviewer_comments,status\naaa111,7,x,y,Y\n")
	writeWorkbook(t, dir, "b.csv", "plate,review_reason_code,customer_meaning,reviewer_comments,status\nbbb222,7,x,y,N\n")

	res, err := LoadWorkbooks(dir, nil)
	if err != nil {
		t.Fatalf("LoadWorkbooks: %v", err)
	}
	if res.SourceRows != 2 || len(res.Records) != 2 {
		t.Errorf("got %d rows, %d records, want 2 and 2", res.SourceRows, len(res.Records))
	}
}

func TestLoadWorkbooksMissingDir(t *testing.T) {
	t.Parallel()

	_, err := LoadWorkbooks(filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil {
		t.Fatal("expected error for missing workbook dir")
	}
}

func TestNormalizeComment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", "(not on record)"},
		{"NO MICRO", "(not on record)"},
		{"not on micro", "(not on record)"},
		{"see Reg 17", "(not on record)"},
		{"QuickWeb entry", "(not on record)"},
		{`"quoted comment"`, "quoted comment"},
		{`says ""hi""`, `says "hi"`},
		{"café", "caf "},
		{"plain comment", "plain comment"},
	}

	for _, tc := range cases {
		if got := normalizeComment(tc.in); got != tc.want {
			t.Errorf("normalizeComment(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestColumnIndexFallsBackForPlate(t *testing.T) {
	t.Parallel()

	cols := columnIndex([]string{"\ufeffmangled", "review_reason_code", "customer_meaning", "reviewer_comments", "status"})
	if cols.plate != 0 {
		t.Errorf("plate column = %d, want fallback 0", cols.plate)
	}
	if cols.status != 4 {
		t.Errorf("status column = %d, want 4", cols.status)
	}
}
