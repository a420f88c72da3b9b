package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swinglab/swingscan/internal/contracts"
)

func TestWriteCandidatesRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "candidates.csv")

	in := []contracts.Candidate{
		{
			Quote:      contracts.Quote{Code: "005930", Name: "삼성전자", Price: 72300, Volume: 15230000, ChangeRate: 1.2},
			SwingScore: 1.96,
		},
		{
			Quote:      contracts.Quote{Code: "035720", Name: "카카오", Price: 41550, Volume: 9870000, ChangeRate: -2.1},
			SwingScore: 1.5,
		},
	}

	require.NoError(t, WriteCandidates(path, in))

	out, err := ReadCandidates(path)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "005930", out[0].Code)
	assert.Equal(t, "삼성전자", out[0].Name)
	assert.Equal(t, 72300.0, out[0].Price)
	assert.Equal(t, int64(15230000), out[0].Volume)
	assert.InDelta(t, 1.2, out[0].ChangeRate, 1e-9)
	assert.InDelta(t, 1.96, out[0].SwingScore, 1e-9)

	assert.Equal(t, "035720", out[1].Code)
	assert.InDelta(t, 1.5, out[1].SwingScore, 1e-9)
}

func TestWriteQuotesLeavesScoreBlank(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "volume.csv")

	quotes := []contracts.Quote{
		{Code: "000660", Name: "SK하이닉스", Price: 178500, Volume: 4120000, ChangeRate: 3.8},
	}
	require.NoError(t, WriteQuotes(path, quotes))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), utf8BOM)))
	header, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, candidateHeader, header)

	row, err := r.Read()
	require.NoError(t, err)
	require.Len(t, row, 6)
	assert.Equal(t, "000660", row[0])
	assert.Equal(t, "178500", row[2])
	assert.Equal(t, "", row[5], "non-swing modes leave swing_score blank")
}

func TestWriteEmptyProducesHeaderOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteCandidates(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(data), utf8BOM)), "\n")
	require.Len(t, lines, 1, "empty result still writes the header")
	assert.Equal(t, strings.Join(candidateHeader, ","), strings.TrimSpace(lines[0]))

	out, err := ReadCandidates(path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestWriteCreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "output", "weekly", "candidates.csv")
	require.NoError(t, WriteCandidates(path, nil))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteStartsWithBOM(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bom.csv")
	require.NoError(t, WriteQuotes(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), utf8BOM), "file starts with utf-8-sig BOM")
}

func TestReadCandidatesToleratesForeignShape(t *testing.T) {
	t.Parallel()

	// Extra column, reordered columns, a codeless row and a short row
	raw := strings.Join([]string{
		"name,code,memo,price,volume,change_rate,swing_score",
		"삼성전자,005930,보유중,72300,15230000,1.2,1.96",
		"이름없는행,,x,100,1,0.1,0.5",
		"카카오,035720",
	}, "\n")

	path := filepath.Join(t.TempDir(), "foreign.csv")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	out, err := ReadCandidates(path)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "005930", out[0].Code)
	assert.Equal(t, "삼성전자", out[0].Name)
	assert.Equal(t, 72300.0, out[0].Price)
	assert.InDelta(t, 1.96, out[0].SwingScore, 1e-9)

	assert.Equal(t, "035720", out[1].Code)
	assert.Equal(t, "카카오", out[1].Name)
	assert.Zero(t, out[1].Price, "short rows read missing fields as zero")
}

func TestReadCandidatesCommaGroupedNumbers(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		`code,name,price,volume,change_rate,swing_score`,
		`005930,삼성전자,"72,300","15,230,000",1.2,1.5`,
	}, "\n")

	path := filepath.Join(t.TempDir(), "grouped.csv")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	out, err := ReadCandidates(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 72300.0, out[0].Price)
	assert.Equal(t, int64(15230000), out[0].Volume)
}

func TestReadCandidatesEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "zero.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	out, err := ReadCandidates(path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadCandidatesMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadCandidates(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestWriteSignals(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "signals.csv")

	results := []contracts.SignalResult{
		{
			Candidate: contracts.Candidate{
				Quote:      contracts.Quote{Code: "005930", Name: "삼성전자", Price: 72300, Volume: 15230000, ChangeRate: 1.2},
				SwingScore: 1.96,
			},
			Signal:        contracts.SignalRebound,
			LastPrice:     9990,
			DipPct:        2,
			RecoveryRatio: 0.95,
			MA5:           9930.2,
			MA20:          9850.55,
			VolRatio:      1.52,
			Bars:          120,
		},
		{
			Candidate: contracts.Candidate{
				Quote: contracts.Quote{Code: "035720", Name: "카카오"},
			},
			Signal:      contracts.SignalNone,
			DataMissing: true,
		},
	}

	require.NoError(t, WriteSignals(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), utf8BOM)))
	header, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, signalHeader, header)

	first, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "005930", first[0])
	assert.Equal(t, "1.96", first[5])
	assert.Equal(t, "REBOUND", first[6])
	assert.Equal(t, "9990", first[7])
	assert.Equal(t, "2.00", first[8])
	assert.Equal(t, "0.950", first[9])
	assert.Equal(t, "false", first[13])

	second, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "NONE", second[6])
	assert.Equal(t, "true", second[13])
}

func TestReadRows(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "signals.csv")

	results := []contracts.SignalResult{
		{
			Candidate: contracts.Candidate{
				Quote:      contracts.Quote{Code: "005930", Name: "삼성전자", Price: 70000},
				SwingScore: 1.96,
			},
			Signal:    contracts.SignalRebound,
			LastPrice: 9990,
		},
	}
	require.NoError(t, WriteSignals(path, results))

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "005930", rows[0]["code"])
	assert.Equal(t, "삼성전자", rows[0]["name"])
	assert.Equal(t, "REBOUND", rows[0]["signal"])
	assert.Equal(t, "9990", rows[0]["last_price"])
}

func TestReadRowsHeaderOnly(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteQuotes(path, nil))

	rows, err := ReadRows(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRowsShortRowOmitsKeys(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "short.csv")
	require.NoError(t, os.WriteFile(path, []byte("code,name,price\n005930,삼성전자\n"), 0o644))

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "삼성전자", rows[0]["name"])
	_, hasPrice := rows[0]["price"]
	assert.False(t, hasPrice)
}
