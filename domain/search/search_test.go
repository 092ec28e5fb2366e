package search

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"fix", "login"}, tokenize("Fix  Login"))
	assert.Empty(t, tokenize("   "))
}

func TestMatchKeyword(t *testing.T) {
	t.Run("no tokens", func(t *testing.T) {
		m := matchKeyword("title", "desc", nil)
		assert.Zero(t, m.score)
	})

	t.Run("no match", func(t *testing.T) {
		m := matchKeyword("Ship billing", "invoices", tokenize("login"))
		assert.Zero(t, m.score)
		assert.Empty(t, m.spans)
	})

	t.Run("full coverage beats partial", func(t *testing.T) {
		full := matchKeyword("fix login flow", "", tokenize("fix login"))
		partial := matchKeyword("fix the build", "", tokenize("fix login"))
		assert.Greater(t, full.score, partial.score)
	})

	t.Run("denser match ranks higher at equal coverage", func(t *testing.T) {
		short := matchKeyword("login", "", tokenize("login"))
		long := matchKeyword("login plus a very long unrelated tail of words", "", tokenize("login"))
		assert.Greater(t, short.score, long.score)
	})

	t.Run("case insensitive with spans", func(t *testing.T) {
		m := matchKeyword("Fix LOGIN flow", "broken login page", tokenize("login"))
		require.Len(t, m.spans, 2)
		assert.Equal(t, Span{Field: "title", Start: 4, End: 9}, m.spans[0])
		assert.Equal(t, Span{Field: "description", Start: 7, End: 12}, m.spans[1])
	})

	t.Run("repeated token yields multiple spans", func(t *testing.T) {
		m := matchKeyword("test the test suite", "", tokenize("test"))
		assert.Len(t, m.spans, 2)
	})

	t.Run("spans slice the original string", func(t *testing.T) {
		title := "Fix LOGIN flow"
		m := matchKeyword(title, "", tokenize("login"))
		require.Len(t, m.spans, 1)
		assert.Equal(t, "LOGIN", title[m.spans[0].Start:m.spans[0].End])
	})

	t.Run("multibyte case folding keeps span offsets in the original", func(t *testing.T) {
		// Ⱥ (2 bytes) lowercases to ⱥ (3 bytes), so offsets computed
		// against a lowered copy would overrun the original string.
		title := "Ⱥ login"
		m := matchKeyword(title, "", tokenize("login"))
		require.Len(t, m.spans, 1)
		sp := m.spans[0]
		require.LessOrEqual(t, sp.End, len(title))
		assert.Equal(t, "login", title[sp.Start:sp.End])
	})

	t.Run("uppercase match region keeps its original width", func(t *testing.T) {
		desc := "see ȺȺ notes"
		m := matchKeyword("", desc, tokenize("ⱥⱥ"))
		require.Len(t, m.spans, 1)
		sp := m.spans[0]
		assert.Equal(t, "ȺȺ", desc[sp.Start:sp.End])
	})
}

func TestFindSpans(t *testing.T) {
	spans := findSpans("title", "abcabc", "abc")
	require.Len(t, spans, 2)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 3, spans[1].Start)
}

func TestFuseHybrid(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	t.Run("keyword only results keep keyword tag", func(t *testing.T) {
		results := fuseHybrid([]channelHit{
			{ID: a, Title: "a", Score: 0.9},
			{ID: b, Title: "b", Score: 0.4},
		}, nil, 10)

		require.Len(t, results, 2)
		assert.Equal(t, a, results[0].ID)
		assert.Equal(t, MatchKeyword, results[0].MatchType)
		assert.Equal(t, MatchKeyword, results[1].MatchType)
	})

	t.Run("vector only results keep vector tag and raw cosine", func(t *testing.T) {
		results := fuseHybrid(nil, []channelHit{
			{ID: a, Title: "a", Score: 0.8},
		}, 10)

		require.Len(t, results, 1)
		assert.Equal(t, MatchVector, results[0].MatchType)
		assert.InDelta(t, 0.8, float64(results[0].Score), 1e-6)
	})

	t.Run("overlap deduplicates to hybrid with higher component score", func(t *testing.T) {
		results := fuseHybrid(
			[]channelHit{
				{ID: a, Title: "a", Score: 0.9},
				{ID: b, Title: "b", Score: 0.2},
			},
			[]channelHit{
				{ID: a, Title: "a", Score: 0.95},
			},
			10,
		)

		require.Len(t, results, 2)
		assert.Equal(t, a, results[0].ID)
		assert.Equal(t, MatchHybrid, results[0].MatchType)
		// Vector cosine 0.95 exceeds any sigmoid-squashed keyword score
		assert.InDelta(t, 0.95, float64(results[0].Score), 1e-6)

		ids := []uuid.UUID{results[0].ID, results[1].ID}
		assert.NotContains(t, ids[1:], a)
	})

	t.Run("hybrid presence in both channels outranks single channel", func(t *testing.T) {
		results := fuseHybrid(
			[]channelHit{
				{ID: a, Title: "a", Score: 0.5},
				{ID: b, Title: "b", Score: 0.5},
			},
			[]channelHit{
				{ID: a, Title: "a", Score: 0.7},
			},
			10,
		)

		require.Len(t, results, 2)
		assert.Equal(t, a, results[0].ID)
		assert.Equal(t, MatchHybrid, results[0].MatchType)
	})

	t.Run("equal rank ties break by keyword score", func(t *testing.T) {
		// A lone keyword hit normalizes to 0.5 (z=0), giving rank
		// 0.25; the vector hit at cosine 0.5 also ranks 0.25. The
		// keyword side must win the tie.
		results := fuseHybrid(
			[]channelHit{
				{ID: c, Title: "c", Score: 0.6},
			},
			[]channelHit{
				{ID: b, Title: "b", Score: 0.5},
			},
			10,
		)

		require.Len(t, results, 2)
		assert.Equal(t, c, results[0].ID)
		assert.Equal(t, b, results[1].ID)
	})

	t.Run("limit truncates after ranking", func(t *testing.T) {
		results := fuseHybrid(
			[]channelHit{
				{ID: a, Title: "a", Score: 0.9},
				{ID: b, Title: "b", Score: 0.8},
				{ID: c, Title: "c", Score: 0.7},
			},
			nil,
			2,
		)
		assert.Len(t, results, 2)
	})

	t.Run("ordering is deterministic across calls", func(t *testing.T) {
		keyword := []channelHit{
			{ID: a, Title: "a", Score: 0.5},
			{ID: b, Title: "b", Score: 0.5},
		}
		vector := []channelHit{
			{ID: c, Title: "c", Score: 0.5},
		}

		first := fuseHybrid(keyword, vector, 10)
		for i := 0; i < 5; i++ {
			again := fuseHybrid(keyword, vector, 10)
			assert.Equal(t, first, again)
		}
	})

	t.Run("empty channels", func(t *testing.T) {
		assert.Empty(t, fuseHybrid(nil, nil, 10))
	})
}

func TestSingleChannel(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	results := singleChannel([]channelHit{
		{ID: a, Title: "a", Score: 0.9, Spans: []Span{{Field: "title", Start: 0, End: 1}}},
		{ID: b, Title: "b", Score: 0.3},
	}, MatchKeyword, 1)

	require.Len(t, results, 1)
	assert.Equal(t, a, results[0].ID)
	assert.Equal(t, MatchKeyword, results[0].MatchType)
	assert.Len(t, results[0].Highlight, 1)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `back\\slash`, escapeLike(`back\slash`))
}
