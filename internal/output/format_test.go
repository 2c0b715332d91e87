package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lendkit/internal/output"
)

func TestFormatter_JSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)

	require.NoError(t, f.Print(map[string]string{"key": "value"}))

	var result map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "value", result["key"])
	assert.True(t, f.IsJSON())
}

func TestFormatter_Text(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)

	require.NoError(t, f.Print("hello world"))
	require.NoError(t, f.Print(output.NewAmount(big.NewInt(1500000), 6, "USD")))
	require.NoError(t, f.Printf("n=%d\n", 3))
	assert.Equal(t, "hello world\n1.5 USD\nn=3\n", buf.String())
	assert.False(t, f.IsJSON())
	assert.Equal(t, &buf, f.Writer())
}

func TestFormatter_PrintTable(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)

	table := output.NewTable("A", "B")
	table.AddRow("1", "2")
	require.NoError(t, f.Print(table))
	assert.Equal(t, table.String(), buf.String())
}

func TestFormatter_AutoResolvesToJSONOffTerminal(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatAuto, &buf)
	assert.Equal(t, output.FormatJSON, f.Format())
}

func TestFormatter_Result(t *testing.T) {
	t.Parallel()

	data := map[string]int{"n": 1}
	text := func(w io.Writer) error {
		_, err := io.WriteString(w, "one\n")
		return err
	}

	var jsonBuf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatJSON, &jsonBuf).Result(data, text))
	assert.JSONEq(t, `{"n":1}`, jsonBuf.String())

	var textBuf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatText, &textBuf).Result(data, text))
	assert.Equal(t, "one\n", textBuf.String())

	var fallback bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatText, &fallback).Result(data, nil))
	assert.JSONEq(t, `{"n":1}`, fallback.String())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected output.Format
	}{
		{"json", output.FormatJSON},
		{"JSON", output.FormatJSON},
		{" text ", output.FormatText},
		{"auto", output.FormatAuto},
		{"", output.FormatAuto},
		{"yaml", output.FormatAuto},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, output.ParseFormat(tt.input))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatJSON))
	assert.Equal(t, output.FormatText, output.DetectFormat(&buf, output.FormatText))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatAuto))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, ""))
}

func TestDetectFormat_TTY(t *testing.T) {
	if os.Getenv("TEST_TTY") == "" {
		t.Skip("Skipping TTY test - set TEST_TTY=1 to run")
	}
	assert.Equal(t, output.FormatText, output.DetectFormat(os.Stdout, output.FormatAuto))
}

func TestUseColor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	assert.True(t, output.UseColor(&buf, output.ColorAlways, true))
	assert.False(t, output.UseColor(&buf, output.ColorNever, false))
	assert.False(t, output.UseColor(&buf, output.ColorAuto, false), "buffers are not terminals")
	assert.False(t, output.UseColor(&buf, "", true))
}

func TestAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    *big.Int
		decimals int
		symbol   string
		display  string
		text     string
	}{
		{"whole", big.NewInt(5000000), 6, "OM", "5.0", "5.0 OM"},
		{"fraction", big.NewInt(1234567), 6, "USD", "1.234567", "1.234567 USD"},
		{"below one", big.NewInt(42), 6, "USD", "0.000042", "0.000042 USD"},
		{"no decimals", big.NewInt(42), 0, "", "42", "42"},
		{"nil", nil, 6, "USD", "0.0", "0.0 USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := output.NewAmount(tt.value, tt.decimals, tt.symbol)
			assert.Equal(t, tt.display, a.Display)
			assert.Equal(t, tt.text, a.String())
		})
	}
}

func TestAmount_JSONKeepsRaw(t *testing.T) {
	t.Parallel()

	v, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	require.True(t, ok)

	raw, err := json.Marshal(output.NewAmount(v, 6, "USD"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"raw":"340282366920938463463374607431768211455"`)
}

func TestPrinter(t *testing.T) {
	t.Parallel()

	var plain bytes.Buffer
	p := output.NewPrinter(&plain, false)
	p.Infof("connected to %s", "mantra-hongbai-1")
	p.Warnf("low balance")
	p.Successf("staked %d", 80)

	lines := strings.Split(strings.TrimSpace(plain.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "connected to mantra-hongbai-1")
	assert.Contains(t, lines[1], "low balance")
	assert.True(t, strings.HasPrefix(lines[2], "✅ staked 80"))
	assert.NotContains(t, plain.String(), "\x1b[")

	var colored bytes.Buffer
	output.NewPrinter(&colored, true).Successf("done")
	assert.Contains(t, colored.String(), "\x1b[32mdone\x1b[0m")

	var nilPrinter *output.Printer
	assert.NotPanics(t, func() { nilPrinter.Infof("ignored") })
}

// failingWriter always fails.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	//nolint:err113 // Test error, not wrapped
	return 0, errors.New("write failed")
}

func TestFormatter_WriteErrors(t *testing.T) {
	t.Parallel()
	f := output.NewFormatter(output.FormatJSON, failingWriter{})
	require.Error(t, f.Print(map[string]int{"a": 1}))

	f = output.NewFormatter(output.FormatText, failingWriter{})
	require.Error(t, f.Print("x"))
}
