package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lendkit/internal/output"
	lenderr "github.com/mrz1836/lendkit/pkg/errors"
)

func TestFormatError_Nil(t *testing.T) {
	t.Parallel()

	for _, f := range []output.Format{output.FormatJSON, output.FormatText} {
		var buf bytes.Buffer
		require.NoError(t, output.FormatError(&buf, nil, f))
		assert.Empty(t, buf.String())
	}
}

func TestFormatError_GenericJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	//nolint:err113 // Test error, intentionally not wrapped
	require.NoError(t, output.FormatError(&buf, errors.New("something went wrong"), output.FormatJSON))

	var result output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "GENERAL_ERROR", result.Error.Code)
	assert.Equal(t, "something went wrong", result.Error.Message)
	assert.Equal(t, lenderr.ExitGeneral, result.Error.ExitCode)
}

func TestFormatError_StructuredJSON(t *testing.T) {
	t.Parallel()

	err := lenderr.WithSuggestion(
		lenderr.WithDetails(lenderr.ErrInsufficientBalance, map[string]string{"balance": "30", "required": "80"}),
		"top up the account",
	)

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, err, output.FormatJSON))

	var result output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "INSUFFICIENT_BALANCE", result.Error.Code)
	assert.Equal(t, "insufficient balance", result.Error.Message)
	assert.Equal(t, map[string]string{"balance": "30", "required": "80"}, result.Error.Details)
	assert.Equal(t, "top up the account", result.Error.Suggestion)
	assert.Equal(t, lenderr.ExitPermission, result.Error.ExitCode)
	assert.Empty(t, result.Error.Cause)
}

func TestFormatError_Cause(t *testing.T) {
	t.Parallel()

	//nolint:err113 // Test error, intentionally not wrapped
	err := lenderr.WithCause(lenderr.ErrTransaction, errors.New("out of gas"))

	detail := output.NewErrorDetail(err)
	assert.Equal(t, "TRANSACTION_FAILED", detail.Code)
	assert.Equal(t, "out of gas", detail.Cause)

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, err, output.FormatText))
	assert.Equal(t, "Error: transaction failed\nCause: out of gas\n", buf.String())
}

func TestFormatError_TextDetailsSorted(t *testing.T) {
	t.Parallel()

	err := lenderr.WithSuggestion(
		lenderr.WithDetails(lenderr.ErrConfigInvalid, map[string]string{"reason": "must be positive", "key": "client.timeout"}),
		"run 'lend config show'",
	)

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, err, output.FormatText))

	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "Error: configuration is invalid\n"))
	assert.Less(t, strings.Index(text, "key: client.timeout"), strings.Index(text, "reason: must be positive"))
	assert.Contains(t, text, "\nSuggestion: run 'lend config show'\n")
}

func TestFormatError_WriteFailure(t *testing.T) {
	t.Parallel()
	require.Error(t, output.FormatError(failingWriter{}, lenderr.ErrGeneral, output.FormatText))
	require.Error(t, output.FormatError(failingWriter{}, lenderr.ErrGeneral, output.FormatJSON))
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()

	var jsonBuf bytes.Buffer
	require.NoError(t, output.FormatSuccess(&jsonBuf, "wallet created", output.FormatJSON))
	assert.JSONEq(t, `{"status":"success","message":"wallet created"}`, jsonBuf.String())

	var textBuf bytes.Buffer
	require.NoError(t, output.FormatSuccess(&textBuf, "wallet created", output.FormatText))
	assert.Equal(t, "wallet created\n", textBuf.String())
}
