package suggestion_test

import (
	"testing"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/models"
	"virtualwardrobe/suggestion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoOutfitsReply = `{
  "suggestedOutfits": [
    {
      "itemIds": ["it1", "it2"],
      "reasoning": "Blue and denim work together",
      "styleAdvice": "Roll the sleeves",
      "confidenceScore": 0.9,
      "matchingPreferences": ["Casual"]
    },
    {
      "itemIds": ["it2"],
      "reasoning": "Jeans alone",
      "styleAdvice": "Add a belt",
      "confidenceScore": 0.4
    }
  ]
}`

func interpreterItems() []models.WardrobeItem {
	return []models.WardrobeItem{
		wardrobeItem("it1", "u1", "Blue shirt", "shirt"),
		wardrobeItem("it2", "u1", "Jeans", "pants"),
	}
}

func TestStripFences(t *testing.T) {
	fenced := "```json\n" + twoOutfitsReply + "\n```"
	assert.Equal(t, suggestion.StripFences(twoOutfitsReply), suggestion.StripFences(fenced))
	assert.Equal(t, suggestion.StripFences(fenced), suggestion.StripFences(suggestion.StripFences(fenced)))
	assert.Equal(t, `{"a":1}`, suggestion.StripFences("  ```json{\"a\":1}```  "))
}

func TestInterpretFencedEqualsBare(t *testing.T) {
	f := suggestion.NewTolerantReferenceFiltering()

	bare, err := f.Interpret(twoOutfitsReply, interpreterItems())
	require.NoError(t, err)
	for _, opener := range []string{"```json\n", "```JSON\n", "```javascript\n", "```\n", "```Json \n"} {
		fenced, err := f.Interpret(opener+twoOutfitsReply+"\n```", interpreterItems())
		require.NoError(t, err, opener)
		assert.Equal(t, bare, fenced, opener)
	}
	require.Len(t, bare, 2)
	assert.Len(t, bare[0].Items, 2)
	assert.Equal(t, []string{"Casual"}, bare[0].MatchingPreferences)
	assert.Equal(t, []string{}, bare[1].MatchingPreferences)
}

func TestInterpretDropsUnknownIDs(t *testing.T) {
	reply := `{"suggestedOutfits":[{"itemIds":["it1","ghost"],"reasoning":"r","styleAdvice":"s","confidenceScore":0.7,"matchingPreferences":[]}]}`

	outfits, err := suggestion.NewTolerantReferenceFiltering().Interpret(reply, interpreterItems())
	require.NoError(t, err)
	require.Len(t, outfits, 1)
	require.Len(t, outfits[0].Items, 1)
	assert.Equal(t, "it1", outfits[0].Items[0].ID)
}

func TestInterpretDropsOutfitWithOnlyUnknownIDs(t *testing.T) {
	reply := `{"suggestedOutfits":[
		{"itemIds":["ghost"],"reasoning":"r","styleAdvice":"s","confidenceScore":0.7},
		{"itemIds":["it2"],"reasoning":"r2","styleAdvice":"s2","confidenceScore":0.5}
	]}`

	outfits, err := suggestion.NewTolerantReferenceFiltering().Interpret(reply, interpreterItems())
	require.NoError(t, err)
	require.Len(t, outfits, 1)
	assert.Equal(t, "r2", outfits[0].Reasoning)
}

func TestInterpretCollapsesDuplicateIDs(t *testing.T) {
	reply := `{"suggestedOutfits":[{"itemIds":["it1","it1","it2"],"reasoning":"r","styleAdvice":"s","confidenceScore":0.7}]}`

	outfits, err := suggestion.NewTolerantReferenceFiltering().Interpret(reply, interpreterItems())
	require.NoError(t, err)
	require.Len(t, outfits, 1)
	assert.Len(t, outfits[0].Items, 2)
}

func TestInterpretClampsScore(t *testing.T) {
	reply := `{"suggestedOutfits":[
		{"itemIds":["it1"],"reasoning":"r","styleAdvice":"s","confidenceScore":1.7},
		{"itemIds":["it2"],"reasoning":"r","styleAdvice":"s","confidenceScore":-0.2}
	]}`

	outfits, err := suggestion.NewTolerantReferenceFiltering().Interpret(reply, interpreterItems())
	require.NoError(t, err)
	require.Len(t, outfits, 2)
	assert.Equal(t, 1.0, outfits[0].Score)
	assert.Equal(t, 0.0, outfits[1].Score)
}

func TestInterpretRejectsNonJSON(t *testing.T) {
	for _, reply := range []string{"Sorry, I cannot help with that.", "", "```json\n{\"suggestedOutfits\": [\n```"} {
		outfits, err := suggestion.NewTolerantReferenceFiltering().Interpret(reply, interpreterItems())
		assert.Empty(t, outfits)
		appErr, ok := apperrors.As(err)
		require.True(t, ok, reply)
		assert.Equal(t, apperrors.KindUpstream, appErr.Kind)
		assert.Equal(t, "failed to parse model response", appErr.Message)
		assert.False(t, appErr.Retryable)
	}
}

func TestInterpretRejectsInvalidStructure(t *testing.T) {
	replies := map[string]string{
		"missing outfits":   `{"outfits":[]}`,
		"missing reasoning": `{"suggestedOutfits":[{"itemIds":["it1"],"styleAdvice":"s","confidenceScore":0.5}]}`,
		"missing score":     `{"suggestedOutfits":[{"itemIds":["it1"],"reasoning":"r","styleAdvice":"s"}]}`,
		"missing item ids":  `{"suggestedOutfits":[{"reasoning":"r","styleAdvice":"s","confidenceScore":0.5}]}`,
		"score as string":   `{"suggestedOutfits":[{"itemIds":["it1"],"reasoning":"r","styleAdvice":"s","confidenceScore":"high"}]}`,
		"ids as string":     `{"suggestedOutfits":[{"itemIds":"it1","reasoning":"r","styleAdvice":"s","confidenceScore":0.5}]}`,
		"top level array":   `[{"itemIds":["it1"]}]`,
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			_, err := suggestion.NewTolerantReferenceFiltering().Interpret(reply, interpreterItems())
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, "model response failed validation", appErr.Message)
			assert.False(t, appErr.Retryable)
		})
	}
}

func TestInterpretAcceptsEmptyOutfitList(t *testing.T) {
	outfits, err := suggestion.NewTolerantReferenceFiltering().Interpret(`{"suggestedOutfits":[]}`, interpreterItems())
	require.NoError(t, err)
	assert.Empty(t, outfits)
}
