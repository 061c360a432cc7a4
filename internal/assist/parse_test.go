package assist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysis(t *testing.T) {
	testCases := []struct {
		name    string
		text    string
		want    Analysis
		wantErr bool
	}{
		{
			name: "plain object",
			text: `{"cause":"c","fix":"f","bestPractices":"b"}`,
			want: Analysis{Cause: "c", Fix: "f", BestPractices: "b"},
		},
		{
			name: "wrapped in prose",
			text: "Sure!\n{\"cause\":\"c\",\"fix\":\"f\",\"bestPractices\":\"b\"}\nHope it helps.",
			want: Analysis{Cause: "c", Fix: "f", BestPractices: "b"},
		},
		{
			name: "list fields",
			text: `{"cause":["a","b"],"fix":"f","bestPractices":["x"]}`,
			want: Analysis{Cause: "a\nb", Fix: "f", BestPractices: "x"},
		},
		{name: "no braces", text: "nothing here", wantErr: true},
		{name: "broken json", text: `{"cause": "c",`, wantErr: true},
		{name: "wrong shape", text: `{"cause": 3}`, wantErr: true},
		{name: "unrelated object", text: `{"answer": "42"}`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseAnalysis(tc.text)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewProvider_None(t *testing.T) {
	p, err := NewProvider(t.Context(), ProviderConfig{})
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewProvider(t.Context(), ProviderConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewProvider(t.Context(), ProviderConfig{Provider: "gemini"})
	assert.Error(t, err, "gemini without a key must fail")
}
