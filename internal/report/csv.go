// Package report writes and reads the flat CSV artifacts that carry candidate
// lists between runs. The candidates file is the only state swing mode hands
// to signal mode.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/swinglab/swingscan/internal/contracts"
)

// 엑셀 한글 호환용 BOM (utf-8-sig)
const utf8BOM = "\xEF\xBB\xBF"

var candidateHeader = []string{"code", "name", "price", "volume", "change_rate", "swing_score"}

var signalHeader = []string{
	"code", "name", "price", "volume", "change_rate", "swing_score",
	"signal", "last_price", "dip_pct", "recovery_ratio", "ma5", "ma20", "vol_ratio", "data_missing",
}

// WriteQuotes writes a ranked snapshot. The swing_score column is left blank;
// the header is identical across modes so readers never branch on shape.
func WriteQuotes(path string, quotes []contracts.Quote) error {
	rows := make([][]string, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, quoteRow(q, ""))
	}
	return writeTable(path, candidateHeader, rows)
}

// WriteCandidates writes a scored swing candidate list in its given order.
func WriteCandidates(path string, cands []contracts.Candidate) error {
	rows := make([][]string, 0, len(cands))
	for _, c := range cands {
		rows = append(rows, quoteRow(c.Quote, f2(c.SwingScore)))
	}
	return writeTable(path, candidateHeader, rows)
}

// WriteSignals writes evaluated candidates with their classification and
// supporting metrics.
func WriteSignals(path string, results []contracts.SignalResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := quoteRow(r.Quote, f2(r.SwingScore))
		row = append(row,
			string(r.Signal),
			f(r.LastPrice),
			f2(r.DipPct),
			f3(r.RecoveryRatio),
			f2(r.MA5),
			f2(r.MA20),
			f3(r.VolRatio),
			strconv.FormatBool(r.DataMissing),
		)
		rows = append(rows, row)
	}
	return writeTable(path, signalHeader, rows)
}

// ReadCandidates reads a candidates file back. Columns are resolved by header
// name, unknown columns are ignored, and rows without a code are skipped, so
// hand-trimmed files still load.
func ReadCandidates(path string) ([]contracts.Candidate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candidates: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []contracts.Candidate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read candidates header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	cands := make([]contracts.Candidate, 0)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read candidates row: %w", err)
		}

		code := field(row, "code")
		if code == "" {
			continue
		}

		cands = append(cands, contracts.Candidate{
			Quote: contracts.Quote{
				Code:       code,
				Name:       field(row, "name"),
				Price:      parseFloat(field(row, "price")),
				Volume:     parseInt(field(row, "volume")),
				ChangeRate: parseFloat(field(row, "change_rate")),
			},
			SwingScore: parseFloat(field(row, "swing_score")),
		})
	}

	return cands, nil
}

// ReadRows reads any of the output CSVs into header-keyed maps, for callers
// that serve artifacts without caring which mode wrote them. Cells beyond the
// header width are dropped; short rows just omit the missing keys.
func ReadRows(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rows: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
	}

	rows := make([]map[string]string, 0)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		cells := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				cells[name] = row[i]
			}
		}
		rows = append(rows, cells)
	}

	return rows, nil
}

func quoteRow(q contracts.Quote, score string) []string {
	return []string{
		q.Code,
		q.Name,
		f(q.Price),
		strconv.FormatInt(q.Volume, 10),
		f(q.ChangeRate),
		score,
	}
}

// writeTable creates the file (parents included), writes the BOM, the header
// and the rows. Zero rows still produce a header-only file.
func writeTable(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := file.WriteString(utf8BOM); err != nil {
		file.Close()
		return err
	}

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		file.Close()
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			file.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func f2(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func f3(x float64) string {
	return strconv.FormatFloat(x, 'f', 3, 64)
}

func parseFloat(s string) float64 {
	clean := strings.ReplaceAll(s, ",", "")
	if clean == "" {
		return 0
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	return int64(parseFloat(s))
}
