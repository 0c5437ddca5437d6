package repository

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
)

type fileStore interface {
	Read(filename string) ([]byte, error)
	WriteAtomic(filename string, data []byte) error
}

// csvRow gives by-name access to a record, tolerating short rows.
type csvRow struct {
	line   int
	fields []string
	cols   map[string]int
}

func (r csvRow) get(name string) string {
	idx, ok := r.cols[name]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

// readCSV walks every data row of data. When the first record looks like a
// header (its first cell equals the first expected column) columns are mapped
// by name, otherwise the expected order is assumed. Malformed lines are
// logged and skipped.
func readCSV(data []byte, expected []string, logger *zap.Logger, fn func(csvRow)) error {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	cols := make(map[string]int, len(expected))
	for i, name := range expected {
		cols[name] = i
	}

	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.Warn("skipping malformed csv line", zap.Int("line", parseErr.Line), zap.Error(err))
				continue
			}
			return fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), expected[0]) {
				cols = make(map[string]int, len(record))
				for i, name := range record {
					cols[strings.ToLower(strings.TrimSpace(name))] = i
				}
				continue
			}
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		fn(csvRow{line: line, fields: record, cols: cols})
	}
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeList reads a list cell. JSON arrays are the current format; plain
// comma-separated text is still accepted for hand-edited files.
func decodeList(raw string) models.StringList {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			return models.NormalizeList(items)
		}
	}
	return models.SplitList(raw)
}

func encodeList(items models.StringList) string {
	if items == nil {
		items = models.StringList{}
	}
	data, _ := json.Marshal([]string(items))
	return string(data)
}

func decodeSchedule(raw string) ([]models.ScheduleBlock, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []models.ScheduleBlock{}, nil
	}
	var blocks []models.ScheduleBlock
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		return []models.ScheduleBlock{}, err
	}
	return models.NormalizeSchedule(blocks), nil
}

func encodeSchedule(blocks []models.ScheduleBlock) string {
	if blocks == nil {
		blocks = []models.ScheduleBlock{}
	}
	data, _ := json.Marshal(blocks)
	return string(data)
}
