package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactPII(t *testing.T) {
	input := "Email me at sam@example.com or +91-9876543210, pay priya@okaxis and use 4242 4242 4242 4242."
	out, changed := RedactPII(input)
	assert.True(t, changed)
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]", "[REDACTED_UPI]"} {
		assert.Contains(t, out, marker)
	}
	assert.NotContains(t, out, "okaxis")
	assert.NotContains(t, out, "example.com")
}

func TestRedactKeepsShoppingText(t *testing.T) {
	for _, in := range []string{
		"add LV001 to cart",
		"track TXN1848213949561737216",
		"show me formal under 3000",
	} {
		out, changed := RedactPII(in)
		assert.False(t, changed, in)
		assert.Equal(t, in, out)
	}
	assert.Equal(t, "call [REDACTED_PHONE]", Redact("call +91-9876543211"))
}
