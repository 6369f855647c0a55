package httpmiddleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_ExhaustsAndRejects(t *testing.T) {
	l := NewSimpleTokenBucket(3, 60)

	assert.True(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("1.2.3.4"))
	assert.False(t, l.allow("1.2.3.4"))
}

func TestTokenBucket_PerKeyIsolation(t *testing.T) {
	l := NewSimpleTokenBucket(1, 60)

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"))
}
