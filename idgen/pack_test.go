package idgen

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/flake/xerrors"
)

func TestPackLayout(t *testing.T) {
	id, err := Pack(1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, ID(1<<22|1<<12|1), id)

	id, err = Pack(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, ID(0), id)

	id, err = Pack(MaxTimestamp, MaxNodeID, MaxSequence)
	require.NoError(t, err)
	assert.Equal(t, ID(math.MaxInt64), id)
	assert.Positive(t, int64(id))

	assert.Equal(t, 22, TimestampShift)
	assert.Equal(t, 12, NodeShift)
	assert.Equal(t, 0, SequenceShift)
}

func TestPackErrors(t *testing.T) {
	_, err := Pack(MaxTimestamp+1, 0, 0)
	assert.ErrorIs(t, err, ErrEpochTooFarInThePast)
	assert.Equal(t, CodeEpochTooFarInThePast, xerrors.GetCode(err))

	_, err = Pack(-1, 0, 0)
	assert.ErrorIs(t, err, ErrClockWentBackInTime)
	assert.Equal(t, CodeClockWentBackInTime, xerrors.GetCode(err))
}

func TestDecompose(t *testing.T) {
	cases := [][3]int64{
		{0, 0, 0},
		{1, 2, 3},
		{123456789, 1023, 4095},
		{MaxTimestamp, 0, MaxSequence},
		{MaxTimestamp, MaxNodeID, 0},
	}
	for _, c := range cases {
		id, err := Pack(c[0], c[1], c[2])
		require.NoError(t, err)

		elapsed, node, seq := Decompose(id)
		assert.Equal(t, c[0], elapsed)
		assert.Equal(t, c[1], node)
		assert.Equal(t, c[2], seq)
	}
}

func TestDecodeWithEpoch(t *testing.T) {
	id, err := Pack(1500, 42, 7)
	require.NoError(t, err)

	parts := DecodeWithEpoch(id, DefaultEpoch)
	assert.Equal(t, int64(1500), parts.Elapsed)
	assert.Equal(t, int64(42), parts.NodeID)
	assert.Equal(t, int64(7), parts.Sequence)
	assert.True(t, parts.Timestamp.Equal(DefaultEpoch.Add(1500*time.Millisecond)))
}

func TestEncodeRoundTrip(t *testing.T) {
	id, err := Pack(987654321, 513, 2049)
	require.NoError(t, err)

	formats := []Format{FormatInt, FormatBase2, FormatBase32, FormatBase36, FormatBase58, FormatBase64}
	for _, f := range formats {
		t.Run(string(f), func(t *testing.T) {
			s, err := id.Encode(f)
			require.NoError(t, err)
			require.NotEmpty(t, s)

			got, err := ParseID(s, f)
			require.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}

func TestEncodeKnownValues(t *testing.T) {
	id := ID(1 << 22)
	assert.Equal(t, "4194304", id.String())
	assert.Equal(t, "10000000000000000000000", id.Base2())
	assert.Equal(t, "2", ID(1).Base58())
	assert.Equal(t, int64(4194304), id.Int64())
}

func TestEncodeUnknownFormat(t *testing.T) {
	_, err := ID(1).Encode("hex")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = ParseID("1", "hex")
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestParseIDInvalid(t *testing.T) {
	tests := []struct {
		input  string
		format Format
	}{
		{"not-a-number", FormatInt},
		{"", FormatInt},
		{"-5", FormatInt},
		{"102", FormatBase2},
		{"0OIl", FormatBase58},
	}
	for _, tt := range tests {
		_, err := ParseID(tt.input, tt.format)
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput, "input %q format %s", tt.input, tt.format)
	}
}

func TestIDJSON(t *testing.T) {
	type payload struct {
		ID ID `json:"id"`
	}
	in := payload{ID: ID(1234567890123456789)}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1234567890123456789"}`, string(b))

	var out payload
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	err = json.Unmarshal([]byte(`{"id":"abc"}`), &out)
	assert.Error(t, err)
}
