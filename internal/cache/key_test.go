package cache

// Test Plan for cache keys:
// - Key joins parts with ':' in order
// - SortedList is order independent and does not mutate its input
// - HashKey produces 64 lowercase hex characters and is deterministic
// - ShortHash is the 8-character prefix of HashKey

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SEARCH:users:a,b", Key("SEARCH", "users", "a,b"))
	assert.Equal(t, "", Key())
	assert.Equal(t, "CREATE::", Key("CREATE", "", ""))
}

func TestSortedList(t *testing.T) {
	t.Parallel()

	in := []string{"name", "+email", "age"}
	assert.Equal(t, "+email,age,name", SortedList(in))
	assert.Equal(t, SortedList([]string{"age", "name", "+email"}), SortedList(in))
	assert.Equal(t, []string{"name", "+email", "age"}, in, "input must not be reordered")
	assert.Equal(t, "", SortedList(nil))
}

func TestHashKey(t *testing.T) {
	t.Parallel()

	h := HashKey("RETRIEVE:users")
	assert.Len(t, h, 64)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), h)
	assert.Equal(t, h, HashKey("RETRIEVE:users"))
	assert.NotEqual(t, h, HashKey("RETRIEVE:user"))
	assert.Equal(t, h[:8], ShortHash("RETRIEVE:users"))
}
