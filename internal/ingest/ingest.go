package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"PlateBot/internal/domain"
)

// Result is the outcome of normalizing the source workbooks. SourceRows
// counts every data row seen, including rows dropped by validation; it is
// the completion denominator.
type Result struct {
	Records    []domain.Record
	SourceRows int
	Skipped    int
}

// clericalMatches are comment fragments that mark a source comment as a
// data-entry artifact rather than real reviewer prose.
var clericalMatches = []string{"no micro", "not on micro", "reg 17", "quickweb", "quick web"}

// LoadWorkbooks reads every *.csv under dir and normalizes the rows into
// records, assigning each a stable generated identifier.
//
// Expected columns: plate, review_reason_code, customer_meaning,
// reviewer_comments, status (Y/N/?).
func LoadWorkbooks(dir string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	names, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("read workbooks dir: %w", err)
	}

	var res Result
	for _, entry := range names {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			return Result{}, fmt.Errorf("open workbook %s: %w", entry.Name(), err)
		}

		before := res.SourceRows
		if err := parseWorkbook(f, &res); err != nil {
			f.Close()
			return Result{}, fmt.Errorf("parse workbook %s: %w", entry.Name(), err)
		}
		f.Close()

		logger.Info("loaded workbook", "file", entry.Name(), "rows", res.SourceRows-before)
	}

	logger.Info("normalized corpus", "records", len(res.Records), "sourceRows", res.SourceRows, "skipped", res.Skipped)
	return res, nil
}

func parseWorkbook(r io.Reader, res *Result) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	cols := columnIndex(header)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}

		res.SourceRows++

		plate := strings.TrimSpace(field(row, cols.plate))
		status := strings.TrimSpace(field(row, cols.status))
		if plate == "" || !validStatus(status) {
			res.Skipped++
			continue
		}

		res.Records = append(res.Records, domain.Record{
			ID:              uuid.NewString(),
			Text:            strings.ToUpper(plate),
			CustomerComment: strings.ToUpper(normalizeComment(field(row, cols.customer))),
			DMVComment:      strings.ToUpper(normalizeComment(field(row, cols.reviewer))),
			Verdict:         verdictFromStatus(status),
		})
	}

	return nil
}

type columns struct {
	plate, customer, reviewer, status int
}

// columnIndex resolves header names to positions. Some workbooks carry a
// mangled first header cell, so the plate column falls back to position 0.
func columnIndex(header []string) columns {
	cols := columns{plate: 0, customer: 2, reviewer: 3, status: 4}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "plate":
			cols.plate = i
		case "customer_meaning":
			cols.customer = i
		case "reviewer_comments":
			cols.reviewer = i
		case "status":
			cols.status = i
		}
	}
	return cols
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func validStatus(status string) bool {
	return status == "Y" || status == "N" || status == "?"
}

func verdictFromStatus(status string) domain.Verdict {
	switch status {
	case "Y":
		return domain.VerdictApproved
	case "N":
		return domain.VerdictDenied
	default:
		return domain.VerdictUnknown
	}
}

// normalizeComment corrects clerical artifacts in a source comment. Comments
// that are pure data-entry noise become "(not on record)" so the plate can
// still be published; enclosing quotes, doubled quotes and non-ASCII bytes
// are cleaned up.
func normalizeComment(comment string) string {
	if len(comment) == 0 {
		return "(not on record)"
	}

	lower := strings.ToLower(comment)
	for _, match := range clericalMatches {
		if strings.Contains(lower, match) || strings.TrimSpace(lower) == match {
			return "(not on record)"
		}
	}

	if len(comment) >= 2 && comment[0] == '"' && comment[len(comment)-1] == '"' {
		comment = comment[1 : len(comment)-1]
	}
	comment = strings.ReplaceAll(comment, `""`, `"`)

	var b strings.Builder
	for _, r := range comment {
		if r > 0x7f {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
