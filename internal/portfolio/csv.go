package portfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var requiredColumns = []string{fieldTechStack, fieldLinks}

// LoadCSV reads portfolio items from a CSV file with Techstack and Links columns.
func LoadCSV(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open portfolio source: %w", err)
	}
	defer f.Close()

	items, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return items, nil
}

// ReadCSV decodes rows into items. Header names are matched case-insensitively,
// unknown columns are ignored and rows with an empty tech stack are skipped.
func ReadCSV(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("portfolio source is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}

	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("portfolio source is missing the %q column", required)
		}
	}

	var items []Item
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		row := make(map[string]string, len(columns))
		for name, idx := range columns {
			if idx < len(record) {
				row[name] = strings.TrimSpace(record[idx])
			}
		}

		var item Item
		if err := mapstructure.Decode(row, &item); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", line, err)
		}

		if item.TechStack == "" {
			continue
		}

		items = append(items, item)
	}

	return items, nil
}
