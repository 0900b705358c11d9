package export

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Record_BinaryRoundTrip(t *testing.T) {
	assert := assert.New(t)

	r := Record{
		ID:      uuid.MustParse("6f1b3c1e-4ad4-4c5e-9a0b-2a7c1b8f9d00"),
		Grammar: "cs",
		Text:    "Gödel and the lions prove theorems.",
		Words:   6,
		Seed:    -42,
		Repairs: 3,
		Created: time.Unix(1700000000, 0),
	}

	data, err := r.MarshalBinary()
	require.NoError(t, err)

	var actual Record
	err = actual.UnmarshalBinary(data)
	require.NoError(t, err)

	assert.Equal(r.ID, actual.ID)
	assert.Equal(r.Grammar, actual.Grammar)
	assert.Equal(r.Text, actual.Text)
	assert.Equal(r.Words, actual.Words)
	assert.Equal(r.Seed, actual.Seed)
	assert.Equal(r.Repairs, actual.Repairs)
	assert.True(r.Created.Equal(actual.Created))
}

func Test_Record_UnmarshalBinary_Truncated(t *testing.T) {
	r := Record{ID: uuid.New(), Grammar: "cf", Text: "Euler sings."}
	data, err := r.MarshalBinary()
	require.NoError(t, err)

	var actual Record
	err = actual.UnmarshalBinary(data[:len(data)/2])

	assert.Error(t, err)
}

func Test_Prepare(t *testing.T) {
	assert := assert.New(t)

	prepared, err := Prepare(Record{Text: "x."})
	require.NoError(t, err)
	assert.NotEqual(uuid.Nil, prepared.ID)
	assert.False(prepared.Created.IsZero())

	id := uuid.New()
	created := time.Unix(5, 0)
	kept, err := Prepare(Record{ID: id, Created: created})
	require.NoError(t, err)
	assert.Equal(id, kept.ID)
	assert.Equal(created, kept.Created)
}
