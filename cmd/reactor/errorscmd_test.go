package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/report"
)

func plainColors(t *testing.T) {
	t.Helper()
	rerrors.DisableColors()
	t.Cleanup(rerrors.EnableColors)
}

func TestWriteCodesTable(t *testing.T) {
	var buf bytes.Buffer
	writeCodes(&buf, false)

	out := buf.String()
	for _, code := range rerrors.GetAllCodes() {
		assert.Contains(t, out, code)
	}
	assert.Contains(t, out, "Possible infinite update loop")
}

func TestWriteCodesJSON(t *testing.T) {
	var buf bytes.Buffer
	writeCodes(&buf, true)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(rerrors.GetAllCodes()))
	for i, line := range lines {
		var obj map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &obj), line)
		assert.Equal(t, rerrors.GetAllCodes()[i], obj["code"])
		assert.NotEmpty(t, obj["docUrl"])
	}
}

func TestExplainCode(t *testing.T) {
	plainColors(t)

	var buf bytes.Buffer
	require.NoError(t, explainCode(&buf, "R020", false))
	assert.Contains(t, buf.String(), "ERROR R020: Possible infinite update loop")
	assert.Contains(t, buf.String(), "Learn more: https://reactor.vango.dev/errors/R020")

	buf.Reset()
	require.NoError(t, explainCode(&buf, "R030", true))
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
	assert.Contains(t, buf.String(), `"code":"R030"`)

	err := explainCode(&buf, "R999", false)
	var re *rerrors.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, rerrors.CategoryCLI, re.Category)
}

func TestPrintError(t *testing.T) {
	plainColors(t)

	var buf bytes.Buffer
	coded := fmt.Errorf("loading: %w", rerrors.New("R101").WithInfo("/tmp/app"))
	printError(&buf, coded)
	assert.Contains(t, buf.String(), "ERROR R101: Configuration file not found")
	assert.Contains(t, buf.String(), "/tmp/app")
	assert.NotContains(t, buf.String(), "\033[")

	buf.Reset()
	printError(&buf, errors.New("unknown flag: --nope"))
	assert.Contains(t, buf.String(), "ERROR: unknown flag: --nope")
}

func TestReportLines(t *testing.T) {
	rec := report.NewRecorder()
	rec.Report(report.New(report.KindUpdateLoop, "R020", nil).WithInfo("render <App#1>"))

	assert.Equal(t, []string{"R020: Possible infinite update loop [render <App#1>]"}, reportLines(rec))
}
