package draw_test

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
	"time"

	"raffle-platform/internal/draw"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	drawDate := time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)

	t.Run("matches sha256 prefix", func(t *testing.T) {
		in := draw.SeedInput{CampaignID: 42, Salt: "S", DrawDate: &drawDate}
		sum := sha256.Sum256([]byte("42|S|2025-03-14"))

		assert.Equal(t, "42|S|2025-03-14", in.Material())
		assert.Equal(t, binary.BigEndian.Uint32(sum[:4]), draw.Seed(in))
	})

	t.Run("no draw date", func(t *testing.T) {
		in := draw.SeedInput{CampaignID: 7, Salt: "salt"}
		assert.Equal(t, "7|salt|nodraw", in.Material())
	})

	t.Run("draw date uses UTC day", func(t *testing.T) {
		loc := time.FixedZone("UTC+8", 8*3600)
		local := time.Date(2025, 3, 15, 2, 0, 0, 0, loc)
		in := draw.SeedInput{CampaignID: 1, Salt: "s", DrawDate: &local}
		assert.Equal(t, "1|s|2025-03-14", in.Material())
	})

	t.Run("deterministic", func(t *testing.T) {
		in := draw.SeedInput{CampaignID: 9, Salt: "x", DrawDate: &drawDate}
		assert.Equal(t, draw.Seed(in), draw.Seed(in))
		other := draw.SeedInput{CampaignID: 10, Salt: "x", DrawDate: &drawDate}
		assert.NotEqual(t, draw.Seed(in), draw.Seed(other))
	})
}

func TestWinningRank(t *testing.T) {
	rank, ok := draw.WinningRank(0, 100)
	require.True(t, ok)
	assert.Equal(t, 1, rank)

	rank, ok = draw.WinningRank(199, 100)
	require.True(t, ok)
	assert.Equal(t, 100, rank)

	rank, ok = draw.WinningRank(^uint32(0), 7)
	require.True(t, ok)
	assert.Equal(t, int(uint64(^uint32(0))%7)+1, rank)

	_, ok = draw.WinningRank(123, 0)
	assert.False(t, ok)
}

func TestSelectWinner(t *testing.T) {
	drawDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := draw.Seed(draw.SeedInput{CampaignID: 5, Salt: "S", DrawDate: &drawDate})

	ranked := make([]string, 100)
	for i := range ranked {
		ranked[i] = fmt.Sprintf("%03d", i)
	}

	first, rank, ok := draw.SelectWinner(seed, ranked)
	require.True(t, ok)
	assert.Equal(t, int(seed%100)+1, rank)
	assert.Equal(t, ranked[rank-1], first)

	again, rankAgain, _ := draw.SelectWinner(seed, ranked)
	assert.Equal(t, first, again)
	assert.Equal(t, rank, rankAgain)

	_, _, ok = draw.SelectWinner(seed, []string{})
	assert.False(t, ok)
}

type fixedSource struct {
	values []int64
	bounds []int64
}

func (s *fixedSource) Intn(n int64) (int64, error) {
	s.bounds = append(s.bounds, n)
	if len(s.values) == 0 {
		return 0, errors.New("exhausted")
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v, nil
}

type item struct {
	name   string
	weight int
}

func (i item) SelectionWeight() int { return i.weight }

func TestPickWeighted(t *testing.T) {
	items := []item{{"a", 1}, {"skip", 0}, {"b", 3}, {"neg", -2}, {"c", 6}}

	tests := []struct {
		roll int64
		want string
	}{
		{0, "a"},
		{1, "b"},
		{3, "b"},
		{4, "c"},
		{9, "c"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("roll_%d", tt.roll), func(t *testing.T) {
			src := &fixedSource{values: []int64{tt.roll}}
			got, ok, err := draw.PickWeighted(src, items)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.name)
			assert.Equal(t, []int64{10}, src.bounds)
		})
	}

	t.Run("no positive weight", func(t *testing.T) {
		src := &fixedSource{}
		_, ok, err := draw.PickWeighted(src, []item{{"z", 0}})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, src.bounds)
	})

	t.Run("source error", func(t *testing.T) {
		_, _, err := draw.PickWeighted(&fixedSource{}, items)
		assert.Error(t, err)
	})
}

func TestRollWin(t *testing.T) {
	tests := []struct {
		name string
		rtp  int
		roll int64
		want bool
	}{
		{"zero rtp never wins", 0, 0, false},
		{"below threshold", 25, 2499, true},
		{"at threshold", 25, 2500, false},
		{"full rtp", 100, 9999, true},
		{"clamped above", 150, 9999, true},
		{"clamped below", -5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fixedSource{values: []int64{tt.roll}}
			won, roll, err := draw.RollWin(src, tt.rtp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, won)
			assert.Equal(t, tt.roll, roll)
			assert.Equal(t, []int64{draw.RollScale}, src.bounds)
		})
	}
}

func TestCryptoSource(t *testing.T) {
	src := draw.NewCryptoSource()
	for i := 0; i < 100; i++ {
		v, err := src.Intn(10)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, int64(0))
		assert.Less(t, v, int64(10))
	}

	_, err := src.Intn(0)
	assert.Error(t, err)
}
