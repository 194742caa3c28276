// Package input loads the table of campsite searches from a CSV file.
package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"campsite_notification_bot/internal/domain/search"
)

// Column names expected in the header row.
const (
	ColumnPark   = "park"
	ColumnDate   = "date"
	ColumnNights = "no of nights"
)

// arrivalLayout accepts both zero-padded and bare month/day numbers.
const arrivalLayout = "1/2/2006"

// LoadRequests reads the search table at path.
func LoadRequests(path string) ([]search.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	requests, err := ReadRequests(f)
	if err != nil {
		return nil, fmt.Errorf("reading input file %s: %w", path, err)
	}
	return requests, nil
}

// ReadRequests parses a CSV stream with a header row containing at least the
// park, date and "no of nights" columns. Rows keep their file order.
func ReadRequests(r io.Reader) ([]search.Request, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty input: missing header row")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := map[string]int{ColumnPark: -1, ColumnDate: -1, ColumnNights: -1}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := idx[key]; ok && idx[key] < 0 {
			idx[key] = i
		}
	}
	for _, col := range []string{ColumnPark, ColumnDate, ColumnNights} {
		if idx[col] < 0 {
			return nil, fmt.Errorf("missing %q column in header", col)
		}
	}

	var requests []search.Request
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		req, err := parseRecord(record, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		requests = append(requests, req)
	}

	return requests, nil
}

func parseRecord(record []string, idx map[string]int) (search.Request, error) {
	field := func(col string) string {
		i := idx[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	park := field(ColumnPark)
	if park == "" {
		return search.Request{}, fmt.Errorf("park is empty")
	}

	rawDate := field(ColumnDate)
	arrival, err := time.Parse(arrivalLayout, rawDate)
	if err != nil {
		return search.Request{}, fmt.Errorf("invalid date %q (want mm/dd/yyyy): %w", rawDate, err)
	}

	rawNights := field(ColumnNights)
	nights, err := strconv.Atoi(rawNights)
	if err != nil {
		return search.Request{}, fmt.Errorf("invalid no of nights %q: %w", rawNights, err)
	}
	if nights <= 0 {
		return search.Request{}, fmt.Errorf("invalid no of nights %d: must be positive", nights)
	}

	return search.Request{Park: park, ArrivalDate: arrival.Format(search.DateLayout), StayNights: nights}, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
