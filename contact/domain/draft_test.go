package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormDraft_WithChangesOnlyOneField(t *testing.T) {
	base := FormDraft{Name: "n", Email: "e", Phone: "p", Message: "m"}
	for _, f := range Fields {
		got, err := base.With(f, "new")
		require.NoError(t, err)
		for _, other := range Fields {
			if other == f {
				assert.Equal(t, "new", got.Get(other))
				continue
			}
			assert.Equal(t, base.Get(other), got.Get(other), "field %s changed", other)
		}
	}
}

func TestFormDraft_WithUnknownField(t *testing.T) {
	_, err := FormDraft{}.With(Field("subject"), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestParseField(t *testing.T) {
	f, err := ParseField(" Email ")
	require.NoError(t, err)
	assert.Equal(t, FieldEmail, f)

	_, err = ParseField("subject")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestFormDraft_Sanitize(t *testing.T) {
	got := FormDraft{Name: "  Jo ", Email: " JO@X.Com ", Phone: " (555) 123-4567 ", Message: " hi there all \n"}.Sanitize()
	assert.Equal(t, FormDraft{Name: "Jo", Email: "jo@x.com", Phone: "(555) 123-4567", Message: "hi there all"}, got)
}

func TestThrottleError_MessageMentionsMinutes(t *testing.T) {
	err := ThrottleError{Wait: 90 * time.Second}
	assert.Equal(t, "Please wait 2 minutes before submitting another message.", err.Error())
}

func TestFormatWait(t *testing.T) {
	assert.Equal(t, "", FormatWait(0))
	assert.Equal(t, "Please wait 1 minute before submitting another message.", FormatWait(30*time.Second))
	assert.Equal(t, "Please wait 30 minutes before submitting another message.", FormatWait(30*time.Minute))
}

func TestTransportError_UsesUnderlyingMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := TransportError{Transport: "smtp", Err: cause}
	assert.Equal(t, "connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
