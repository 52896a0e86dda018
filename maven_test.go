package gitver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		lower, higher string
	}{
		{"1", "2"},
		{"1.0", "1.1"},
		{"1.9", "1.10"},
		{"1.0-alpha", "1.0"},
		{"1.0-alpha-1", "1.0-alpha-2"},
		{"1.0-alpha", "1.0-beta"},
		{"1.0-beta", "1.0-milestone"},
		{"1.0-milestone", "1.0-rc"},
		{"1.0-rc", "1.0-snapshot"},
		{"1.0-snapshot", "1.0"},
		{"1.0", "1.0-sp"},
		{"1.0-sp", "1.0-foo"},
		{"1.0-a1", "1.0-b1"},
		{"1.0-1", "1.1"},
		{"v1.0.0", "v2.0.0"},
		{"v1.2.3", "v1.10.0"},
		{"1.0.0-beta.1", "1.0.0-beta.2"},
		{"99999999999999999999", "100000000000000000000"},
	}

	for _, test := range tests {
		t.Run(test.lower+"<"+test.higher, func(t *testing.T) {
			require.Equal(t, -1, CompareVersions(test.lower, test.higher))
			require.Equal(t, 1, CompareVersions(test.higher, test.lower))
		})
	}
}

func TestCompareVersionsEqual(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"1", "1.0"},
		{"1", "1.0.0"},
		{"1.0", "1-0"},
		{"1-ga", "1"},
		{"1-final", "1"},
		{"1-release", "1"},
		{"1-cr", "1-rc"},
		{"1.0.0-ALPHA", "1.0.0-alpha"},
		{"007", "7"},
	}

	for _, test := range tests {
		t.Run(test.a+"="+test.b, func(t *testing.T) {
			require.Equal(t, 0, CompareVersions(test.a, test.b))
		})
	}
}
