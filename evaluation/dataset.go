package evaluation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadDataset reads a JSONL dataset where each line holds a record with
// "query" and "response" fields. Blank lines are skipped.
func LoadDataset(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var records []Record

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var record Record
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("dataset %s line %d: %w", path, line, err)
		}
		if record.Query == "" || record.Response == "" {
			return nil, fmt.Errorf("dataset %s line %d: query and response are required", path, line)
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s has no records", path)
	}

	return records, nil
}
