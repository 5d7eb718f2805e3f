package certedit

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadRecordsCSV reads subject records from a CSV whose first row is the header.
// Columns are matched case-insensitively: id, firstName (first_name) and
// lastName (last_name). Other columns are ignored.
func ReadRecordsCSV(r io.Reader) ([]Record, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	maps, err := parseCSVToMap(rows)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(maps))
	for _, row := range maps {
		records = append(records, Record{
			ID:        row["id"],
			FirstName: row["firstname"],
			LastName:  row["lastname"],
		})
	}
	return records, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(h)
}

// parseCSVToMap turns rows into maps keyed by the normalized header.
// Duplicate headers get a numeric suffix and missing cells are empty.
func parseCSVToMap(records [][]string) ([]map[string]string, error) {
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	headers := make([]string, len(records[0]))
	headerCount := make(map[string]int)

	for i, header := range records[0] {
		header = normalizeHeader(header)
		if count, exists := headerCount[header]; exists {
			headerCount[header]++
			header = fmt.Sprintf("%s_%d", header, count+1)
		} else {
			headerCount[header] = 0
		}
		headers[i] = header
	}

	result := make([]map[string]string, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		row := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(records[i]) {
				row[header] = strings.TrimSpace(records[i][j])
			} else {
				row[header] = ""
			}
		}
		result = append(result, row)
	}

	return result, nil
}
