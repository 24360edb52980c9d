package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEncodeDecode(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(MsgPlaceBet, PlaceBetPayload{Amount: 9, WithoutTrump: true})
	data, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, MsgPlaceBet, decoded.Type)

	payload, err := ParsePayload[PlaceBetPayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, 9, payload.Amount)
	assert.True(t, payload.WithoutTrump)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	t.Parallel()
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestParsePayloadTypeMismatch(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(MsgPing, "just a string")
	_, err := ParsePayload[PlaceBetPayload](msg)
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessage(ErrCodeNotYourTurn)
	require.Equal(t, MsgError, msg.Type)

	payload, err := ParsePayload[ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeNotYourTurn, payload.Code)
	assert.Equal(t, ErrorMessages[ErrCodeNotYourTurn], payload.Message)

	custom := NewErrorMessageWithText(ErrCodeUnknown, "boom")
	payload, err = ParsePayload[ErrorPayload](custom)
	require.NoError(t, err)
	assert.Equal(t, "boom", payload.Message)
}
