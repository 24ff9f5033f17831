package cmd

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/reframelab/reframe/internal/taxonomy"
)

// runNormalize maps the Distortion column of a CSV to canonical ids and
// writes a mirror CSV with a Distortion_ID column appended.
func runNormalize(args []string) error {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	in := fs.String("in", "", "input CSV with a Distortion column")
	out := fs.String("out", "", "output CSV path")
	exact := fs.Bool("exact", false, "require exact display-name matches")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("both --in and --out are required")
	}

	src, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer dst.Close()

	unmatched, err := normalizeCSV(src, dst, *exact)
	if err != nil {
		return err
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	for _, label := range unmatched {
		fmt.Printf("Unmapped label: %s\n", label)
	}
	return nil
}

// normalizeCSV copies src to dst row by row, appending a Distortion_ID
// column. Rows whose label does not map keep an empty id cell; their
// labels are returned sorted and deduplicated.
func normalizeCSV(src io.Reader, dst io.Writer, exact bool) ([]string, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	w := csv.NewWriter(dst)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header row: %w", err)
	}

	labelCol := -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "Distortion" || name == "Thinking Traps" {
			labelCol = i
			break
		}
	}
	if labelCol < 0 {
		return nil, fmt.Errorf("input has no Distortion column")
	}

	if err := w.Write(append(header, "Distortion_ID")); err != nil {
		return nil, fmt.Errorf("writing header row: %w", err)
	}

	mapLabel := taxonomy.Normalize
	if exact {
		mapLabel = taxonomy.NormalizeExact
	}

	seen := make(map[string]bool)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		idCell := ""
		label := ""
		if labelCol < len(row) {
			label = strings.TrimSpace(row[labelCol])
		}
		if id, ok := mapLabel(label); ok {
			idCell = strconv.Itoa(id)
		} else if label != "" && !strings.EqualFold(label, "none") {
			seen[label] = true
		}

		if err := w.Write(append(row, idCell)); err != nil {
			return nil, fmt.Errorf("writing row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing output: %w", err)
	}

	unmatched := make([]string, 0, len(seen))
	for label := range seen {
		unmatched = append(unmatched, label)
	}
	sort.Strings(unmatched)
	return unmatched, nil
}
