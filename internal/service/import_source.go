package service

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedSource is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedSource = errors.New("unsupported import source")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

const (
	columnDealerID     = "dealerid"
	columnVIN          = "vin"
	columnModifiedDate = "modifieddate"
)

// sourceRow is one data row keyed by the expected columns.
type sourceRow struct {
	Line         int
	DealerID     string
	VIN          string
	ModifiedDate string
}

func readSource(path string) ([]sourceRow, error) {
	var (
		records [][]string
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", "":
		records, err = readCSV(path)
	case ".xlsx":
		records, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, ext)
	}
	if err != nil {
		return nil, err
	}
	return mapRows(records)
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close() //nolint:errcheck

	reader := bufio.NewReader(file)
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rows, nil
}

// mapRows locates the columns by header name, case-insensitively, and drops
// blank rows. Line numbers are 1-based and count the header.
func mapRows(records [][]string) ([]sourceRow, error) {
	if len(records) == 0 {
		return nil, errors.New("source has no header row")
	}

	index := map[string]int{}
	for i, name := range records[0] {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	for _, required := range []string{columnDealerID, columnVIN, columnModifiedDate} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("source is missing column %q", required)
		}
	}

	cell := func(record []string, column string) string {
		i := index[column]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]sourceRow, 0, len(records)-1)
	for n, record := range records[1:] {
		if blank(record) {
			continue
		}
		rows = append(rows, sourceRow{
			Line:         n + 2,
			DealerID:     cell(record, columnDealerID),
			VIN:          cell(record, columnVIN),
			ModifiedDate: cell(record, columnModifiedDate),
		})
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
