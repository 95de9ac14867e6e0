package enrich

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MeKo-Tech/formscan/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sections(fields ...layout.Field) []*layout.Section {
	return []*layout.Section{{Name: "Referral", Fields: fields}}
}

func text(key, value string) layout.Field {
	return layout.Field{Key: key, Kind: layout.FieldText, Value: value}
}

func TestExtractDate(t *testing.T) {
	cases := []struct {
		name   string
		fields []layout.Field
		want   string
	}{
		{"slashed", []layout.Field{text("Seen on", "12/03/2024")}, "12/03/2024"},
		{"long form", []layout.Field{text("When", "on 5 March 2024 at noon")}, "5 March 2024"},
		{"iso", []layout.Field{text("Stamp", "2024-03-05")}, "2024-03-05"},
		{"date key preferred", []layout.Field{
			text("Reference", "01/01/2020"),
			text("D.O.B", "02/02/1990"),
		}, "02/02/1990"},
		{"falls back to any value", []layout.Field{
			text("DOB", "unknown"),
			text("Note", "10-11-22"),
		}, "10-11-22"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ExtractDate(sections(c.fields...))
			require.NotNil(t, got)
			assert.Equal(t, c.want, *got)
		})
	}

	assert.Nil(t, ExtractDate(sections(text("Name:", "Jane"))))
	assert.Nil(t, ExtractDate(nil))
}

func TestEnricher_Enrich(t *testing.T) {
	fixed := time.Date(2024, 3, 5, 10, 30, 0, 0, time.FixedZone("BST", 3600))
	rules := KeywordRules{
		{Label: "CAHMS", Keywords: []string{"mental health"}},
		{Label: "SPA", Keywords: []string{"referral"}},
	}
	e := New(
		WithClock(func() time.Time { return fixed }),
		WithClassifier(KeywordClassifier{Rules: rules}),
		WithNamer(KeywordNamer{Rules: KeywordRules{{Label: "referral", Keywords: []string{"Referral"}}}}),
	)

	tokens := []layout.Token{{Text: "a", Confidence: 0.5}, {Text: "b", Confidence: 1.0}}
	md := e.Enrich(tokens, sections(text("Date:", "12/03/2024")))

	assert.Equal(t, "2024-03-05T09:30:00Z", md.UploadDate)
	require.NotNil(t, md.Date)
	assert.Equal(t, "12/03/2024", *md.Date)
	assert.Equal(t, 2, md.TokenCount)
	assert.InDelta(t, 0.75, md.MeanConfidence, 1e-9)
	assert.Equal(t, "SPA", md.Classification)
	assert.Equal(t, "referral", md.Name)
	assert.Equal(t, []string{"Referral"}, md.Sections)
}

func TestEnricher_OptionalServicesOmitted(t *testing.T) {
	md := New().Enrich(nil, nil)
	raw, err := json.Marshal(md)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotContains(t, out, "name")
	assert.NotContains(t, out, "classification")
	assert.Contains(t, out, "date")
	assert.Nil(t, out["date"])
	assert.Contains(t, out, "upload_date")
}

func TestKeywordRules_NoMatch(t *testing.T) {
	assert.Empty(t, KeywordRules{}.Match(sections(text("x", "y"))))
	assert.Empty(t, KeywordRules{{Label: "A", Keywords: []string{"  "}}}.Match(sections(text("x", "y"))))
}
