// Package dataset loads the three source CSV files into PostgreSQL,
// embedding the texts on the way in. The load is destructive and
// transactional: existing dataset rows are removed and the whole run
// either commits or rolls back as one unit.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DistortionRecord is one row of the distortion description CSV.
type DistortionRecord struct {
	ID         int
	TrapName   string
	Definition string
	Example    string
	Tips       string
}

// ExampleRecord is one row of the distortion examples CSV. Rows without
// a usable distortion id carry DistortionID 0.
type ExampleRecord struct {
	ID           int
	Thought      string
	Distortion   string
	DistortionID int
}

// ReframeRecord is one row of the reframing CSV.
type ReframeRecord struct {
	Situation    string
	Thought      string
	Reframe      string
	DistortionID int
}

// header maps CSV column names to their index, trimming whitespace and
// a UTF-8 BOM from the first cell.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header row: %w", err)
	}
	h := make(header, len(row))
	for i, name := range row {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		h[strings.TrimSpace(name)] = i
	}
	return h, nil
}

// col returns the index of the first present column name.
func (h header) col(names ...string) (int, error) {
	for _, name := range names {
		if i, ok := h[name]; ok {
			return i, nil
		}
	}
	return 0, fmt.Errorf("missing required column %q", names[0])
}

func (h header) cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func newReader(f io.Reader) *csv.Reader {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r
}

// ReadDistortions parses the distortion description CSV. Rows without a
// numeric Distortion_ID are skipped and returned by name for diagnostics.
func ReadDistortions(path string) ([]DistortionRecord, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening distortions file: %w", err)
	}
	defer f.Close()

	r := newReader(f)
	h, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}

	idCol, err := h.col("Distortion_ID")
	if err != nil {
		return nil, nil, err
	}
	nameCol, err := h.col("Distortion", "Thinking Traps")
	if err != nil {
		return nil, nil, err
	}
	defCol, err := h.col("Definition")
	if err != nil {
		return nil, nil, err
	}
	exCol, err := h.col("Example")
	if err != nil {
		return nil, nil, err
	}
	tipsCol, err := h.col("Tips to Overcome")
	if err != nil {
		return nil, nil, err
	}

	var (
		records []DistortionRecord
		skipped []string
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading distortions row: %w", err)
		}
		id, err := strconv.Atoi(h.cell(row, idCol))
		if err != nil {
			skipped = append(skipped, h.cell(row, nameCol))
			continue
		}
		records = append(records, DistortionRecord{
			ID:         id,
			TrapName:   h.cell(row, nameCol),
			Definition: h.cell(row, defCol),
			Example:    h.cell(row, exCol),
			Tips:       h.cell(row, tipsCol),
		})
	}
	return records, skipped, nil
}

// ReadExamples parses the distortion examples CSV. A missing or
// non-numeric Distortion_ID maps to 0.
func ReadExamples(path string) ([]ExampleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening examples file: %w", err)
	}
	defer f.Close()

	r := newReader(f)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	idCol, err := h.col("ID")
	if err != nil {
		return nil, err
	}
	thoughtCol, err := h.col("Thought")
	if err != nil {
		return nil, err
	}
	labelCol, err := h.col("Distortion")
	if err != nil {
		return nil, err
	}
	didCol, err := h.col("Distortion_ID")
	if err != nil {
		return nil, err
	}

	var records []ExampleRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading examples row: %w", err)
		}
		id, err := strconv.Atoi(h.cell(row, idCol))
		if err != nil {
			return nil, fmt.Errorf("parsing example ID %q: %w", h.cell(row, idCol), err)
		}
		thought := h.cell(row, thoughtCol)
		if thought == "" {
			return nil, fmt.Errorf("example %d has an empty thought", id)
		}
		did, err := strconv.Atoi(h.cell(row, didCol))
		if err != nil {
			did = 0
		}
		records = append(records, ExampleRecord{
			ID:           id,
			Thought:      thought,
			Distortion:   h.cell(row, labelCol),
			DistortionID: did,
		})
	}
	return records, nil
}

// ReadReframes parses the reframing CSV. A missing or non-numeric
// distortion_id maps to 0.
func ReadReframes(path string) ([]ReframeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reframes file: %w", err)
	}
	defer f.Close()

	r := newReader(f)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	situationCol, err := h.col("situation")
	if err != nil {
		return nil, err
	}
	thoughtCol, err := h.col("thought")
	if err != nil {
		return nil, err
	}
	reframeCol, err := h.col("reframe")
	if err != nil {
		return nil, err
	}
	didCol, err := h.col("distortion_id")
	if err != nil {
		return nil, err
	}

	var records []ReframeRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading reframes row: %w", err)
		}
		thought := h.cell(row, thoughtCol)
		if thought == "" {
			continue
		}
		did, err := strconv.Atoi(h.cell(row, didCol))
		if err != nil {
			did = 0
		}
		records = append(records, ReframeRecord{
			Situation:    h.cell(row, situationCol),
			Thought:      thought,
			Reframe:      h.cell(row, reframeCol),
			DistortionID: did,
		})
	}
	return records, nil
}
