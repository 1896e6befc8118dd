package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *Hasher {
	return New(Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1})
}

func TestHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	encoded, err := h.Hash("pw1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, encoded, "pw1")
	assert.True(t, h.Verify(encoded, "pw1"))
	assert.False(t, h.Verify(encoded, "pw2"))
	assert.False(t, h.Verify(encoded, ""))
}

func TestHasher_SaltedOutputsDiffer(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, b, len(a))
}

func TestHasher_LongSecret(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	secret := strings.Repeat("eyJhbGciOiJIUzI1NiJ9.", 20)

	encoded, err := h.Hash(secret)
	require.NoError(t, err)
	assert.True(t, h.Verify(encoded, secret))
	assert.False(t, h.Verify(encoded, secret[:len(secret)-1]))
}

func TestHasher_VerifyMalformed(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
	} {
		assert.False(t, h.Verify(encoded, "pw"), encoded)
	}
}

func TestHasher_RejectsOversizedParams(t *testing.T) {
	t.Parallel()

	strong := New(Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1})
	encoded, err := strong.Hash("pw")
	require.NoError(t, err)

	weak := newTestHasher()
	assert.False(t, weak.Verify(encoded, "pw"))
	assert.True(t, strong.Verify(encoded, "pw"))
}

func TestHasher_LegacyBcrypt(t *testing.T) {
	t.Parallel()

	legacy, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	h := newTestHasher()
	assert.True(t, h.Verify(string(legacy), "password"))
	assert.False(t, h.Verify(string(legacy), "other"))
	assert.True(t, h.NeedsRehash(string(legacy)))
}

func TestHasher_NeedsRehash(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	current, err := h.Hash("pw")
	require.NoError(t, err)
	assert.False(t, h.NeedsRehash(current))

	other := New(Params{MemoryKiB: 2048, Iterations: 1, Parallelism: 1})
	assert.True(t, other.NeedsRehash(current))
	assert.True(t, h.NeedsRehash("garbage"))
}

func TestNew_FillsDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultParams(), New(Params{}).Params())
}
