package validate

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTitle(t *testing.T) {
	long := strings.Repeat("a", 130)
	accents := strings.Repeat("é", 125)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims", in: "  Test  ", want: "Test"},
		{name: "tabs and newlines", in: "\t\nBuy milk\r\n", want: "Buy milk"},
		{name: "only whitespace", in: "   ", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "keeps markup", in: "<b>bold</b>", want: "<b>bold</b>"},
		{name: "exactly max", in: strings.Repeat("x", 120), want: strings.Repeat("x", 120)},
		{name: "truncates ascii", in: long, want: strings.Repeat("a", 120)},
		{name: "truncates code points", in: accents, want: strings.Repeat("é", 120)},
		{name: "trims before counting", in: "   " + strings.Repeat("b", 120) + "   ", want: strings.Repeat("b", 120)},
		{name: "cut exposes whitespace", in: strings.Repeat("c", 119) + " tail", want: strings.Repeat("c", 119)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeTitle(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxTitleLength)
		})
	}
}

func TestSanitizeTitle_CutBesideSpaceIsShorter(t *testing.T) {
	in := strings.Repeat("e", 119) + " " + strings.Repeat("f", 10)
	got := SanitizeTitle(in)

	assert.Equal(t, 119, utf8.RuneCountInString(got))
	assert.Equal(t, got, SanitizeTitle(got))
}

func TestSanitizeTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"  spaced  ",
		strings.Repeat("ж", 200),
		strings.Repeat("d", 119) + "  x",
		strings.Repeat("🙂", 121),
		" nbsp ",
		string([]byte{0xff, 0xfe, 'a'}),
	}
	for _, in := range inputs {
		once := SanitizeTitle(in)
		assert.Equal(t, once, SanitizeTitle(once), "input %q", in)
	}
}

func TestCoerceID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr error
	}{
		{raw: ``, want: 0},
		{raw: `null`, want: 0},
		{raw: `true`, want: 0},
		{raw: `false`, want: 0},
		{raw: `7`, want: 7},
		{raw: `-3`, want: -3},
		{raw: `4.9`, want: 4},
		{raw: `1e2`, want: 100},
		{raw: `"12"`, want: 12},
		{raw: `" 12 "`, want: 12},
		{raw: `"2.5"`, want: 2},
		{raw: `"abc"`, want: 0, wantErr: ErrInvalidNumber},
		{raw: `"12abc"`, want: 0, wantErr: ErrInvalidNumber},
		{raw: `1e300`, want: math.MaxInt64},
		{raw: `-1e300`, want: math.MinInt64},
		{raw: `1e999`, want: math.MaxInt64},
		{raw: `"99999999999999999999"`, want: math.MaxInt64},
		{raw: `"inf"`, want: 0, wantErr: ErrInvalidNumber},
		{raw: `"NaN"`, want: 0, wantErr: ErrInvalidNumber},
		{raw: `[1]`, want: 0, wantErr: ErrNonScalar},
		{raw: `{"id":1}`, want: 0, wantErr: ErrNonScalar},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := CoerceID(json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceInt(t *testing.T) {
	assert.Equal(t, 20, CoerceInt(nil, 20))
	assert.Equal(t, 20, CoerceInt(json.RawMessage(`null`), 20))
	assert.Equal(t, 20, CoerceInt(json.RawMessage(`"ten"`), 20))
	assert.Equal(t, 20, CoerceInt(json.RawMessage(`[10]`), 20))
	assert.Equal(t, 20, CoerceInt(json.RawMessage(`true`), 20))
	assert.Equal(t, 10, CoerceInt(json.RawMessage(`10`), 20))
	assert.Equal(t, 10, CoerceInt(json.RawMessage(`"10"`), 20))
	assert.Equal(t, 0, CoerceInt(json.RawMessage(`0`), 20))
	assert.Equal(t, -5, CoerceInt(json.RawMessage(`-5`), 20))
	assert.Equal(t, math.MaxInt32, CoerceInt(json.RawMessage(`1e30`), 20))
	assert.Equal(t, math.MinInt32, CoerceInt(json.RawMessage(`-1e30`), 20))
	assert.Equal(t, math.MaxInt32, CoerceInt(json.RawMessage(`"1e999"`), 20))
	assert.Equal(t, 20, CoerceInt(json.RawMessage(`"infinity"`), 20))
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		raw     string
		want    bool
		wantErr error
	}{
		{raw: ``, want: false},
		{raw: `null`, want: false},
		{raw: `true`, want: true},
		{raw: `false`, want: false},
		{raw: `1`, want: true},
		{raw: `0`, want: false},
		{raw: `0.0`, want: false},
		{raw: `-2`, want: true},
		{raw: `""`, want: false},
		{raw: `"0"`, want: false},
		{raw: `"false"`, want: false},
		{raw: `" OFF "`, want: false},
		{raw: `"no"`, want: false},
		{raw: `"1"`, want: true},
		{raw: `"yes"`, want: true},
		{raw: `"anything"`, want: true},
		{raw: `[]`, wantErr: ErrNonScalar},
		{raw: `{}`, wantErr: ErrNonScalar},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := CoerceBool(json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceTitle(t *testing.T) {
	got, err := CoerceTitle(json.RawMessage(`"  Test  "`))
	require.NoError(t, err)
	assert.Equal(t, "Test", got)

	got, err = CoerceTitle(json.RawMessage(`42`))
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	got, err = CoerceTitle(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = CoerceTitle(json.RawMessage(`false`))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = CoerceTitle(json.RawMessage(`["x"]`))
	require.ErrorIs(t, err, ErrNonScalar)
}
