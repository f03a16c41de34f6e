package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizesFormat(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{
			name:     "pairs with counts",
			payload:  `[{"size":"38","count":2},{"size":"39","count":1}]`,
			expected: "38(2), 39(1)",
		},
		{
			name:     "pair without count omits parenthetical",
			payload:  `[{"size":"38","count":0},{"size":"39","count":3}]`,
			expected: "38, 39(3)",
		},
		{
			name:     "scalar labels",
			payload:  `["38","39"]`,
			expected: "38, 39",
		},
		{
			name:     "numeric labels",
			payload:  `[38,39]`,
			expected: "38, 39",
		},
		{
			name:     "availability flags keep truthy labels only",
			payload:  `{"38":true,"39":false}`,
			expected: "38",
		},
		{
			name:     "flags are rendered in sorted order",
			payload:  `{"41":true,"39":true,"40":true}`,
			expected: "39, 40, 41",
		},
		{
			name:     "null",
			payload:  `null`,
			expected: "",
		},
		{
			name:     "empty list",
			payload:  `[]`,
			expected: "",
		},
		{
			name:     "unrecognized shape degrades to empty",
			payload:  `{"38":"yes"}`,
			expected: "",
		},
		{
			name:     "scalar degrades to empty",
			payload:  `42`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Sizes
			err := json.Unmarshal([]byte(tt.payload), &s)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s.Format())
		})
	}
}

func TestSizesUnmarshalDetectsKind(t *testing.T) {
	var s Sizes

	require.NoError(t, json.Unmarshal([]byte(`[{"size":"38","count":2}]`), &s))
	assert.Equal(t, SizePairs, s.Kind)

	require.NoError(t, json.Unmarshal([]byte(`["S","M","L"]`), &s))
	assert.Equal(t, SizeLabels, s.Kind)

	require.NoError(t, json.Unmarshal([]byte(`{"S":true}`), &s))
	assert.Equal(t, SizeFlags, s.Kind)

	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.Equal(t, SizeNone, s.Kind)
}

func TestSizesRoundTrip(t *testing.T) {
	original := Sizes{
		Kind:  SizePairs,
		Pairs: []SizeCount{{Size: "38", Count: 2}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Sizes
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}
