// Package importer reads experiments from a spreadsheet CSV export.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/agentlab/internal/domain"
	"github.com/emiliopalmerini/agentlab/internal/util"
)

var ErrMissingNameColumn = errors.New("csv header has no name column")

// RowError reports a row that could not be imported. Line is the 1-based
// line the row starts on.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Result holds parsed experiments plus the rows that were skipped.
type Result struct {
	Experiments []domain.Experiment
	Skipped     []RowError
}

var columnAliases = map[string]string{
	"name":    "name",
	"title":   "name",
	"goal":    "goal",
	"prompt":  "prompt",
	"input":   "prompt",
	"context": "context",
	"output":  "output",
	"rating":  "rating",
	"score":   "rating",
	"notes":   "notes",
	"board":   "board",
}

// Parse reads a CSV with a header row. Column names are matched case
// insensitively; unknown columns are ignored. IDs and timestamps are left
// for the caller to assign.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return &Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if field, ok := columnAliases[key]; ok {
			if _, seen := columns[field]; !seen {
				columns[field] = i
			}
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil, ErrMissingNameColumn
	}

	result := &Result{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		get := func(field string) string {
			i, ok := columns[field]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		name := get("name")
		if name == "" {
			result.Skipped = append(result.Skipped, RowError{Line: line, Err: errors.New("missing name")})
			continue
		}

		rating, err := parseRating(get("rating"))
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Err: err})
			continue
		}

		result.Experiments = append(result.Experiments, domain.Experiment{
			Name:      name,
			Goal:      util.StringPtr(get("goal")),
			Board:     util.StringPtr(get("board")),
			Prompt:    get("prompt"),
			Context:   get("context"),
			Output:    get("output"),
			Notes:     util.StringPtr(get("notes")),
			Rating:    rating,
			EloRating: domain.DefaultEloRating,
		})
	}
	return result, nil
}

// parseRating accepts blank (unrated) or an integer. Range is not checked.
func parseRating(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid rating %q", s)
	}
	return &n, nil
}
