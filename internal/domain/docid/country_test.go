package docid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/testutil"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

func TestCountryCode_IsCurrent(t *testing.T) {
	assert.True(t, US.IsCurrent())
	assert.True(t, WO.IsCurrent())
	assert.True(t, EP.IsCurrent())
	assert.True(t, CountryCode("BH").IsCurrent())
	assert.False(t, CountryCode("DT").IsCurrent())
	assert.False(t, CountryCode("SU").IsCurrent())
}

func TestResolve_YearBounded(t *testing.T) {
	r := NewCountryResolver(testutil.NewMockLogger())

	got, err := r.Resolve("BH", 1970)
	require.NoError(t, err)
	assert.Equal(t, CountryCode("BT"), got)

	got, err = r.Resolve("BH", 1990)
	require.NoError(t, err)
	assert.Equal(t, CountryCode("BH"), got)

	got, err = r.Resolve("BH", 0)
	require.NoError(t, err)
	assert.Equal(t, CountryCode("BH"), got, "current meaning wins when the year is unknown")
}

func TestResolve_RetiredCodes(t *testing.T) {
	tests := []struct {
		code string
		year int
		want CountryCode
	}{
		{"DT", 1975, DE},
		{"DT", 0, DE},
		{"SU", 1988, "RU"},
		{"DD", 1985, DE},
		{"UK", 2015, GB},
		{"ZR", 0, "CD"},
		{"us", 2001, US},
		{" jp ", 0, JP},
	}
	for _, tt := range tests {
		got, err := ResolveCountry(tt.code, tt.year)
		require.NoError(t, err, tt.code)
		assert.Equal(t, tt.want, got, "%s/%d", tt.code, tt.year)
	}
}

func TestResolve_RetiredOutsideRange(t *testing.T) {
	_, err := ResolveCountry("DT", 1995)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCountryCodeUnknown))
}

func TestResolve_Ambiguous(t *testing.T) {
	log := testutil.NewMockLogger()
	r := NewCountryResolver(log)

	for _, code := range []string{"CS", "YU", "AN"} {
		got, err := r.Resolve(code, 0)
		require.NoError(t, err)
		assert.Equal(t, Unknown, got, code)
	}

	warns := log.MessagesAt("warn")
	require.Len(t, warns, 3)
	assert.Equal(t, "CS", warns[0].Field("code"))
}

func TestResolve_Invalid(t *testing.T) {
	for _, code := range []string{"", "U", "USA", "ZZ"} {
		got, err := ResolveCountry(code, 2000)
		require.Error(t, err, code)
		assert.Equal(t, Unknown, got)
		assert.True(t, errors.IsCode(err, errors.ErrCodeCountryCodeUnknown))
	}
}

//Personal.AI order the ending
