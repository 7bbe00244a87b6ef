package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardizeDN(t *testing.T) {
	cases := []struct {
		in, expected string
	}{
		{"CN=Jane Doe A123,O=Example,C=US",
			"CN=Jane Doe A123,O=Example,C=US"},
		{"cn=Jane Doe A123, o=Example, c=US",
			"CN=Jane Doe A123,O=Example,C=US"},
		{" CN = Jane Doe A123 ,  DC = dataone , DC = org ",
			"CN=Jane Doe A123,DC=dataone,DC=org"},
		{"CN=Doe\\, Jane,O=Example",
			"CN=Doe\\, Jane,O=Example"},
	}

	for _, testCase := range cases {
		standardized, err := StandardizeDN(testCase.in)
		assert.NoError(t, err, testCase.in)
		assert.Equal(t, testCase.expected, standardized, testCase.in)
	}
}

func TestStandardizeDNIsStable(t *testing.T) {
	standardized, err := StandardizeDN("cn=A, dc=B")
	assert.NoError(t, err)

	again, err := StandardizeDN(standardized)
	assert.NoError(t, err)
	assert.Equal(t, standardized, again)
}

func TestStandardizeDNMalformed(t *testing.T) {
	for _, malformed := range []string{
		"", "   ", "no-equals-here", "=value", "CN=", "CN=x,junk",
		"CN=x\\",
	} {
		_, err := StandardizeDN(malformed)
		assert.Error(t, err, malformed)
	}
}
