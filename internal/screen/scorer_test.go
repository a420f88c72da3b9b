package screen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swinglab/swingscan/internal/contracts"
	"github.com/swinglab/swingscan/pkg/logger"
)

func rq(code, name string, rank int, price float64, volume int64, change float64) contracts.RankedQuote {
	return contracts.RankedQuote{
		Quote: contracts.Quote{Code: code, Name: name, Price: price, Volume: volume, ChangeRate: change},
		Rank:  rank,
	}
}

func TestScorer_Score_IntersectionOnly(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig(), logger.NewNop())

	volume := []contracts.RankedQuote{
		rq("111111", "A사", 1, 10000, 1000, 1.0),
		rq("222222", "B사", 2, 20000, 800, 2.0),
	}
	change := []contracts.RankedQuote{
		rq("222222", "B사", 1, 20000, 810, 5.0),
		rq("333333", "C사", 2, 30000, 400, 3.0),
	}

	candidates, err := scorer.Score(volume, change)
	require.NoError(t, err)
	require.Len(t, candidates, 1, "only codes present in both lists survive")

	b := candidates[0]
	assert.Equal(t, "222222", b.Code)
	// rank 2 of 2 in volume -> 0.5, rank 1 of 2 in change -> 1.0
	assert.InDelta(t, 1.5, b.SwingScore, 1e-9)
	assert.Equal(t, 20000.0, b.Price, "price comes from the volume snapshot")
	assert.Equal(t, int64(800), b.Volume, "volume comes from the volume snapshot")
	assert.Equal(t, 5.0, b.ChangeRate, "change rate comes from the change snapshot")
}

func TestScorer_Score_RankOneInBothLists(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig(), logger.NewNop())

	volume := []contracts.RankedQuote{
		rq("005930", "삼성전자", 1, 72300, 15_230_000, 1.2),
		rq("000660", "SK하이닉스", 2, 178500, 4_120_000, 3.8),
		rq("035720", "카카오", 3, 41550, 3_870_000, -2.1),
	}
	change := []contracts.RankedQuote{
		rq("005930", "삼성전자", 1, 72300, 15_230_000, 1.2),
		rq("042700", "한미반도체", 2, 87100, 2_310_000, 7.9),
	}

	candidates, err := scorer.Score(volume, change)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "005930", candidates[0].Code)
	assert.InDelta(t, 2.0, candidates[0].SwingScore, 1e-9, "rank 1 in both lists is the maximum score")
}

func TestScorer_Score_OrderedByScore(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig(), logger.NewNop())

	volume := []contracts.RankedQuote{
		rq("111111", "A사", 1, 10000, 9000, 1.0),
		rq("222222", "B사", 2, 20000, 8000, 2.0),
		rq("333333", "C사", 3, 30000, 7000, 3.0),
		rq("444444", "D사", 4, 40000, 6000, 4.0),
	}
	change := []contracts.RankedQuote{
		rq("444444", "D사", 1, 40000, 6000, 9.0),
		rq("333333", "C사", 2, 30000, 7000, 8.0),
		rq("111111", "A사", 3, 10000, 9000, 7.0),
		rq("222222", "B사", 4, 20000, 8000, 6.0),
	}

	candidates, err := scorer.Score(volume, change)
	require.NoError(t, err)
	require.Len(t, candidates, 4)

	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].SwingScore, candidates[i].SwingScore,
			"swing score must be non-increasing")
	}

	// A=1.0+0.5=1.5, B=0.75+0.25=1.0, C=0.5+0.75=1.25, D=0.25+1.0=1.25.
	// C and D tie at 1.25; combined volume 14000 > 12000 puts C first.
	assert.Equal(t, "111111", candidates[0].Code)
	assert.Equal(t, "333333", candidates[1].Code)
	assert.Equal(t, "444444", candidates[2].Code)
	assert.Equal(t, "222222", candidates[3].Code)
}

func TestScorer_Score_TieBreakByCodeWhenVolumeEqual(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig(), logger.NewNop())

	// Symmetric ranks and identical volumes: only the code decides.
	volume := []contracts.RankedQuote{
		rq("222222", "B사", 1, 10000, 5000, 1.0),
		rq("111111", "A사", 2, 10000, 5000, 1.0),
	}
	change := []contracts.RankedQuote{
		rq("111111", "A사", 1, 10000, 5000, 2.0),
		rq("222222", "B사", 2, 10000, 5000, 2.0),
	}

	candidates, err := scorer.Score(volume, change)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.InDelta(t, candidates[0].SwingScore, candidates[1].SwingScore, 1e-9)
	assert.Equal(t, "111111", candidates[0].Code)
	assert.Equal(t, "222222", candidates[1].Code)
}

func TestScorer_Score_FallbackToChangeFields(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig(), logger.NewNop())

	// 거래량 스냅샷의 빈 필드는 등락률 스냅샷으로 보충된다
	volume := []contracts.RankedQuote{
		rq("035720", "", 1, 0, 0, 0),
	}
	change := []contracts.RankedQuote{
		rq("035720", "카카오", 1, 48500, 3_200_000, 4.1),
	}

	candidates, err := scorer.Score(volume, change)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	assert.Equal(t, "카카오", candidates[0].Name)
	assert.Equal(t, 48500.0, candidates[0].Price)
	assert.Equal(t, int64(3_200_000), candidates[0].Volume)
	assert.Equal(t, 4.1, candidates[0].ChangeRate)
}

func TestScorer_Score_EmptyInputs(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig(), logger.NewNop())

	both := []contracts.RankedQuote{rq("005930", "삼성전자", 1, 72300, 100, 1.0)}

	tests := []struct {
		name   string
		volume []contracts.RankedQuote
		change []contracts.RankedQuote
	}{
		{"empty volume list", nil, both},
		{"empty change list", both, nil},
		{"both empty", nil, nil},
		{"disjoint lists", both, []contracts.RankedQuote{rq("000660", "SK하이닉스", 1, 178500, 100, 2.0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates, err := scorer.Score(tt.volume, tt.change)
			require.NoError(t, err, "empty result is not an error")
			assert.Empty(t, candidates)
		})
	}
}

func TestScorer_Score_Limit(t *testing.T) {
	scorer := NewScorer(ScorerConfig{Limit: 1}, logger.NewNop())

	volume := []contracts.RankedQuote{
		rq("111111", "A사", 1, 10000, 9000, 1.0),
		rq("222222", "B사", 2, 20000, 8000, 2.0),
	}
	change := []contracts.RankedQuote{
		rq("111111", "A사", 1, 10000, 9000, 3.0),
		rq("222222", "B사", 2, 20000, 8000, 4.0),
	}

	candidates, err := scorer.Score(volume, change)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "111111", candidates[0].Code)
}

func TestScorer_Score_InvalidLimit(t *testing.T) {
	scorer := NewScorer(ScorerConfig{Limit: 0}, logger.NewNop())

	_, err := scorer.Score(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrInvalidParameter))
}

func TestScorer_Score_Deterministic(t *testing.T) {
	scorer := NewScorer(DefaultScorerConfig(), logger.NewNop())

	volume := []contracts.RankedQuote{
		rq("005930", "삼성전자", 1, 72300, 15_230_000, 1.2),
		rq("000660", "SK하이닉스", 2, 178500, 4_120_000, 3.8),
		rq("042700", "한미반도체", 3, 87100, 2_310_000, 7.9),
	}
	change := []contracts.RankedQuote{
		rq("042700", "한미반도체", 1, 87100, 2_310_000, 7.9),
		rq("000660", "SK하이닉스", 2, 178500, 4_120_000, 3.8),
	}

	first, err := scorer.Score(volume, change)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := scorer.Score(volume, change)
		require.NoError(t, err)
		assert.Equal(t, first, again, "same inputs must yield identical output")
	}
}
