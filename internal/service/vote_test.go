package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVoterEvidence(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want []string
	}{
		"empty":            {raw: "", want: []string{}},
		"single":           {raw: "T1", want: []string{"T1"}},
		"spaces and blank": {raw: " T1 , ,T2,", want: []string{"T1", "T2"}},
		"duplicates":       {raw: "T1,T2,T1", want: []string{"T1", "T2"}},
		"quoted":           {raw: `"T1,T2"`, want: []string{"T1", "T2"}},
		"escaped":          {raw: "a%2Cb,c", want: []string{"a,b", "c"}},
		"bad escape kept":  {raw: "T%zz", want: []string{"T%zz"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseVoterEvidence(tc.raw).IDs())
		})
	}
}

func TestVoterEvidenceWithIsImmutable(t *testing.T) {
	base := ParseVoterEvidence("T1")
	next := base.With("T2")

	assert.False(t, base.Has("T2"))
	assert.True(t, next.Has("T1"))
	assert.True(t, next.Has("T2"))
	assert.Equal(t, 2, next.Len())
	assert.Equal(t, next, next.With("T1"))
}

func TestVoterEvidenceEncodeRoundTrip(t *testing.T) {
	ev := VoterEvidence{}.With("T1").With("a,b").With("x y")
	encoded := ev.Encode()

	assert.Equal(t, "T1,a%2Cb,x+y", encoded)
	assert.Equal(t, ev.IDs(), ParseVoterEvidence(encoded).IDs())
}
