package errdefs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"transport", Transport("get", base), KindTransport},
		{"parse", Parse("decode", base), KindParse},
		{"timeout", Timeout("wait", base), KindTimeout},
		{"coercion", Coercion("severity", base), KindCoercion},
		{"status", Status("get", &StatusError{StatusCode: 404, Status: "404 Not Found"}), KindStatus},
		{"wrapped", fmt.Errorf("outer: %w", Parse("decode", base)), KindParse},
		{"untagged", base, KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestNilErrorsStayNil(t *testing.T) {
	assert.NoError(t, Transport("op", nil))
	assert.NoError(t, Parse("op", nil))
	assert.NoError(t, Status("op", nil))
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := Coercion("severity", base)

	assert.ErrorIs(t, err, base)
	assert.True(t, IsCoercion(err))
	assert.False(t, IsParse(err))
	assert.Equal(t, "severity: coercion error: boom", err.Error())
}

func TestStatusError(t *testing.T) {
	se := &StatusError{
		StatusCode: http.StatusForbidden,
		Status:     "403 Forbidden",
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(`{"error":"Invalid Credentials"}` + "\n"),
	}
	err := Status("GET /scans", se)

	require.True(t, IsStatus(err))
	got, ok := AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, got.StatusCode)
	assert.Equal(t, `GET /scans: status error: unexpected response 403 Forbidden body={"error":"Invalid Credentials"}`, err.Error())

	_, ok = AsStatus(errors.New("plain"))
	assert.False(t, ok)
}
