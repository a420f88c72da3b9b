package screen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/pkg/logger"
)

func sampleQuotes() []contracts.Quote {
	return []contracts.Quote{
		{Code: "005930", Name: "삼성전자", Price: 72300, Volume: 15_230_000, ChangeRate: 1.2},
		{Code: "000660", Name: "SK하이닉스", Price: 178500, Volume: 4_120_000, ChangeRate: 3.8},
		{Code: "035720", Name: "카카오", Price: 41550, Volume: 9_870_000, ChangeRate: -2.1},
		{Code: "035420", Name: "NAVER", Price: 192000, Volume: 1_050_000, ChangeRate: 0.4},
		{Code: "042700", Name: "한미반도체", Price: 87100, Volume: 2_310_000, ChangeRate: 7.9},
	}
}

func TestRanker_Rank_VolumeMode(t *testing.T) {
	ranker := NewRanker(DefaultRankerConfig(), logger.NewNop())

	ranked, err := ranker.Rank(contracts.ModeVolume, sampleQuotes())
	require.NoError(t, err)
	require.Len(t, ranked, 5)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Volume, ranked[i].Volume,
			"volume must be non-increasing")
	}

	assert.Equal(t, "005930", ranked[0].Code)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "035420", ranked[4].Code)
	assert.Equal(t, 5, ranked[4].Rank)
}

func TestRanker_Rank_ChangeMode(t *testing.T) {
	ranker := NewRanker(DefaultRankerConfig(), logger.NewNop())

	ranked, err := ranker.Rank(contracts.ModeChange, sampleQuotes())
	require.NoError(t, err)
	require.Len(t, ranked, 5)

	assert.Equal(t, "042700", ranked[0].Code, "highest change rate first")
	assert.Equal(t, "035720", ranked[4].Code, "lowest change rate last")

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].ChangeRate, ranked[i].ChangeRate)
	}
}

func TestRanker_Rank_ConditionModeKeepsSourceOrder(t *testing.T) {
	ranker := NewRanker(DefaultRankerConfig(), logger.NewNop())

	quotes := sampleQuotes()
	ranked, err := ranker.Rank(contracts.ModeCondition, quotes)
	require.NoError(t, err)
	require.Len(t, ranked, len(quotes))

	for i, q := range quotes {
		assert.Equal(t, q.Code, ranked[i].Code)
		assert.Equal(t, i+1, ranked[i].Rank)
	}
}

func TestRanker_Rank_TieBreakByCode(t *testing.T) {
	ranker := NewRanker(DefaultRankerConfig(), logger.NewNop())

	quotes := []contracts.Quote{
		{Code: "222222", Name: "B사", Price: 10000, Volume: 500_000, ChangeRate: 2.0},
		{Code: "111111", Name: "A사", Price: 20000, Volume: 500_000, ChangeRate: 2.0},
		{Code: "333333", Name: "C사", Price: 30000, Volume: 900_000, ChangeRate: 1.0},
	}

	byVolume, err := ranker.Rank(contracts.ModeVolume, quotes)
	require.NoError(t, err)
	assert.Equal(t, []string{"333333", "111111", "222222"},
		[]string{byVolume[0].Code, byVolume[1].Code, byVolume[2].Code})

	byChange, err := ranker.Rank(contracts.ModeChange, quotes)
	require.NoError(t, err)
	assert.Equal(t, []string{"111111", "222222", "333333"},
		[]string{byChange[0].Code, byChange[1].Code, byChange[2].Code})
}

func TestRanker_Rank_Thresholds(t *testing.T) {
	tests := []struct {
		name      string
		config    RankerConfig
		wantCodes []string
	}{
		{
			name:      "min price",
			config:    RankerConfig{MinPrice: 80000, Limit: 50},
			wantCodes: []string{"000660", "035420", "042700"},
		},
		{
			name:      "max price",
			config:    RankerConfig{MaxPrice: 50000, Limit: 50},
			wantCodes: []string{"035720"},
		},
		{
			name:      "min volume",
			config:    RankerConfig{MinVolume: 5_000_000, Limit: 50},
			wantCodes: []string{"005930", "035720"},
		},
		{
			name:      "keyword against name",
			config:    RankerConfig{Keyword: "반도체", Limit: 50},
			wantCodes: []string{"042700"},
		},
		{
			name:      "keyword against code",
			config:    RankerConfig{Keyword: "035", Limit: 50},
			wantCodes: []string{"035720", "035420"},
		},
		{
			name:      "keyword ignores case",
			config:    RankerConfig{Keyword: "naver", Limit: 50},
			wantCodes: []string{"035420"},
		},
		{
			name:      "combined",
			config:    RankerConfig{MinPrice: 50000, MinVolume: 2_000_000, Limit: 50},
			wantCodes: []string{"005930", "000660", "042700"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranker := NewRanker(tt.config, logger.NewNop())
			ranked, err := ranker.Rank(contracts.ModeVolume, sampleQuotes())
			require.NoError(t, err)

			got := make([]string, 0, len(ranked))
			for _, rq := range ranked {
				got = append(got, rq.Code)
				assert.GreaterOrEqual(t, rq.Price, tt.config.MinPrice)
				assert.GreaterOrEqual(t, rq.Volume, tt.config.MinVolume)
			}
			assert.ElementsMatch(t, tt.wantCodes, got)
		})
	}
}

func TestRanker_Rank_Limit(t *testing.T) {
	config := DefaultRankerConfig()
	config.Limit = 2
	ranker := NewRanker(config, logger.NewNop())

	ranked, err := ranker.Rank(contracts.ModeVolume, sampleQuotes())
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "005930", ranked[0].Code)
	assert.Equal(t, "035720", ranked[1].Code)
}

func TestRanker_Rank_InvalidLimit(t *testing.T) {
	tests := []int{0, -1, -50}

	for _, limit := range tests {
		ranker := NewRanker(RankerConfig{Limit: limit}, logger.NewNop())
		_, err := ranker.Rank(contracts.ModeVolume, sampleQuotes())
		require.Error(t, err)
		assert.True(t, errors.Is(err, contracts.ErrInvalidParameter),
			"limit %d must yield ErrInvalidParameter", limit)
	}
}

func TestRanker_Rank_InvalidMode(t *testing.T) {
	ranker := NewRanker(DefaultRankerConfig(), logger.NewNop())

	for _, mode := range []contracts.Mode{contracts.ModeSwing, contracts.Mode("picks")} {
		_, err := ranker.Rank(mode, sampleQuotes())
		require.Error(t, err)
		assert.True(t, errors.Is(err, contracts.ErrInvalidParameter))
	}
}

func TestRanker_Rank_EmptyInput(t *testing.T) {
	ranker := NewRanker(DefaultRankerConfig(), logger.NewNop())

	ranked, err := ranker.Rank(contracts.ModeVolume, nil)
	require.NoError(t, err)
	assert.Empty(t, ranked, "empty input is an empty result, not an error")
}

func TestRanker_checkThresholds(t *testing.T) {
	ranker := NewRanker(RankerConfig{
		MinPrice:  1000,
		MaxPrice:  100000,
		MinVolume: 10000,
		Keyword:   "전자",
		Limit:     50,
	}, logger.NewNop())

	tests := []struct {
		name  string
		quote contracts.Quote
		want  string
	}{
		{
			name:  "passes all",
			quote: contracts.Quote{Code: "005930", Name: "삼성전자", Price: 72300, Volume: 15_230_000},
			want:  "",
		},
		{
			name:  "below min price",
			quote: contracts.Quote{Code: "900000", Name: "저가전자", Price: 900, Volume: 50_000},
			want:  "min_price",
		},
		{
			name:  "above max price",
			quote: contracts.Quote{Code: "900001", Name: "고가전자", Price: 150000, Volume: 50_000},
			want:  "max_price",
		},
		{
			name:  "below min volume",
			quote: contracts.Quote{Code: "900002", Name: "한산전자", Price: 5000, Volume: 9000},
			want:  "min_volume",
		},
		{
			name:  "keyword mismatch",
			quote: contracts.Quote{Code: "900003", Name: "바이오랩", Price: 5000, Volume: 50_000},
			want:  "keyword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ranker.checkThresholds(tt.quote))
		})
	}
}
