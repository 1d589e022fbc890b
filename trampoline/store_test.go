package trampoline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
)

func TestAddressedStorage_StoreFetch(t *testing.T) {
	s := NewAddressedStorage()

	a := s.Store("a")
	b := s.Store("b")
	assert.NotEqual(t, a, b)
	assert.NotZero(t, a)

	v, ok := s.Fetch(a)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = s.Fetch(entities.Token(999))
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestAddressedStorage_Concurrent(t *testing.T) {
	s := NewAddressedStorage()
	const n = 64

	var wg sync.WaitGroup
	tokens := make([]entities.Token, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i] = s.Store(i)
			v, ok := s.Fetch(tokens[i])
			assert.True(t, ok)
			assert.Equal(t, i, v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, s.Len())
	seen := make(map[entities.Token]bool, n)
	for _, tok := range tokens {
		assert.False(t, seen[tok], "token %d issued twice", tok)
		seen[tok] = true
	}
}
