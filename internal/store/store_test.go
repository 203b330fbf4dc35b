package store

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

func TestToUUIDRoundTrip(t *testing.T) {
	t.Parallel()

	id := NewUUID()
	parsed, err := ToUUID(UUIDString(id))
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, id.Bytes, parsed.Bytes)
}

func TestToUUIDCanonicalString(t *testing.T) {
	t.Parallel()

	const raw = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	id, err := ToUUID(raw)
	require.NoError(t, err)
	require.True(t, id.Valid)
	require.Equal(t, raw, UUIDString(id))
}

func TestToUUIDRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ToUUID("not-a-uuid")
	require.Error(t, err)

	_, err = ToUUID("")
	require.Error(t, err)
}

func TestUUIDEqual(t *testing.T) {
	t.Parallel()

	a := NewUUID()
	b := NewUUID()
	require.True(t, UUIDEqual(a, a))
	require.False(t, UUIDEqual(a, b))
	require.False(t, UUIDEqual(a, pgtype.UUID{}))
}
