package report

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"flip-pooling/internal/processing/pooling"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioPool() *pooling.Pooling {
	p := pooling.New(10)
	p.Update(0, 0, 0.1)
	p.Update(1, 0, 0.1)
	p.Update(2, 0, 0.9)
	return p
}

func testOptions(base string) Options {
	return Options{
		BasePath:      base,
		PPD:           67.0,
		Width:         3,
		Height:        1,
		ReferenceName: "reference.png",
		TestName:      "test.png",
	}
}

func TestStringTable(t *testing.T) {
	out := String(scenarioPool(), false)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "Mean;Weighted median;1st weighted quartile;3rd weighted quartile;Min value;MinPosX;MinPosY;Max value;MaxPosX;MaxPosY", lines[0])

	fields := strings.Split(lines[1], ";")
	require.Len(t, fields, 10)
	assert.Equal(t, "0.36667", fields[0])
	assert.Equal(t, "0.10000", fields[4])
	assert.Equal(t, []string{"0", "0"}, fields[5:7])
	assert.Equal(t, "0.90000", fields[7])
	assert.Equal(t, []string{"2", "0"}, fields[8:10])
}

func TestStringVerboseMatchesTable(t *testing.T) {
	p := scenarioPool()
	table := strings.Split(strings.Split(String(p, false), "\n")[1], ";")
	verbose := String(p, true)

	re := regexp.MustCompile(`Mean = (\S+), Weighted median = (\S+), 1st weighted quartile = (\S+), 3rd weighted quartile = (\S+), Min value = (\S+) @ \((\d+),(\d+)\), Max value = (\S+) @ \((\d+),(\d+)\)`)
	m := re.FindStringSubmatch(verbose)
	require.NotNil(t, m, verbose)

	assert.Equal(t, table, m[1:])
	assert.True(t, strings.HasSuffix(verbose, "\n"))
	assert.Equal(t, 1, strings.Count(verbose, "\n"))
}

func TestSummarizeChecked(t *testing.T) {
	s, err := SummarizeChecked(scenarioPool())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), s.Count)
	assert.InDelta(t, 0.36667, s.Mean, 1e-4)

	_, err = SummarizeChecked(pooling.New(10))
	assert.ErrorIs(t, err, pooling.ErrEmpty)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, scenarioPool(), testOptions("")))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 10)

	assert.Equal(t, "#  FLIP pooling statistics for <reference.png> vs. <test.png>", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Mean;"))
	assert.Equal(t, "#  histogram", lines[3])
	assert.Equal(t, "Min bucket;Max bucket", lines[4])
	assert.Equal(t, "1;9", lines[5])
	assert.Equal(t, "Bucket no;0;1;2;3;4;5;6;7;8;9;", lines[6])
	assert.Equal(t, "Count;0;2;0;0;0;0;0;0;0;1;", lines[7])

	weights := strings.Split(lines[8], ";")
	require.Len(t, weights, 12)
	assert.Equal(t, "Weight", weights[0])
	assert.Equal(t, "0.05", weights[1])
	assert.Empty(t, weights[11])

	perMP := strings.Split(lines[9], ";")
	require.Len(t, perMP, 12)
	assert.Equal(t, "Weighted bucket count per megapixel", perMP[0])
	assert.Equal(t, "0", perMP[1])
	// bucket 1: 2 * 0.15 * 1048576 / 3
	assert.True(t, strings.HasPrefix(perMP[2], "104857.6"), perMP[2])
}

func TestWriteCSVTitleIsNotQuoted(t *testing.T) {
	opts := testOptions("")
	opts.ReferenceName = `ref;"a".png`
	opts.TestName = "test;b.png"

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, scenarioPool(), opts))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, `#  FLIP pooling statistics for <ref;"a".png> vs. <test;b.png>`, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Mean;"))
}

func TestWriteCSVEmptyRange(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, pooling.New(4), testOptions("")))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, ";", lines[5])
}

func TestWriteScript(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteScript(&buf, scenarioPool(), testOptions("")))
	script := buf.String()

	assert.Contains(t, script, "numPixels = 3\n")
	assert.Contains(t, script, "ppd = 67\n")
	assert.Contains(t, script, "dataFLIP = [0, 2, 0, 0, 0, 0, 0, 0, 0, 1]")
	assert.Contains(t, script, "dataX = [0.05, 0.15000000000000002, ")
	assert.Contains(t, script, "plt.bar(dataX, weightedDataFLIP, width = 0.1,")
	assert.Contains(t, script, "axes.axvline(x = weightedMedianValue")
	assert.Contains(t, script, "axes.axvline(x = minValue")
	assert.Contains(t, script, "axes.axvline(x = maxValue")
	assert.Contains(t, script, "plt.savefig(sys.argv[2])")
	assert.NotContains(t, script, "np.log10")
	assert.Contains(t, script, "ylabel = 'Weighted ꟻLIP sum per megapixel'")

	buf.Reset()
	opts := testOptions("")
	opts.LogScale = true
	require.NoError(t, WriteScript(&buf, scenarioPool(), opts))
	assert.Contains(t, buf.String(), "if weightedDataFLIP[i] > 0 :")
	assert.Contains(t, buf.String(), "np.log10(weightedDataFLIP[i])")
	assert.Contains(t, buf.String(), "ylabel = 'log(weighted ꟻLIP sum per megapixel)'")
}

func TestWriteScriptEmptyPool(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteScript(&buf, pooling.New(4), testOptions("")))
	assert.Contains(t, buf.String(), "meanValue = float('nan')")
	assert.NotContains(t, buf.String(), "NaN")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, scenarioPool(), testOptions("")))

	var doc jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "reference.png", doc.Reference)
	assert.Equal(t, uint64(3), doc.Summary.Count)
	require.NotNil(t, doc.Summary.Mean)
	assert.InDelta(t, 0.36667, *doc.Summary.Mean, 1e-4)
	assert.Equal(t, jsonCoord{X: 2, Y: 0}, doc.Summary.MaxCoord)
	assert.Equal(t, []int{1, 9}, doc.Histogram.UsedRange)
	assert.Equal(t, []uint64{0, 2, 0, 0, 0, 0, 0, 0, 0, 1}, doc.Histogram.Counts)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, pooling.New(4), testOptions("")))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Nil(t, doc.Summary.Mean)
	assert.Nil(t, doc.Summary.Min)
}

func TestSaveWritesArtifacts(t *testing.T) {
	base := filepath.Join(t.TempDir(), "flip.reference.test.67ppd")
	opts := testOptions(base)
	opts.JSON = true
	opts.Verbose = true

	require.NoError(t, NewWriter(nil).Save(scenarioPool(), opts))

	for _, ext := range []string{".csv", ".py", ".json"} {
		info, err := os.Stat(base + ext)
		require.NoError(t, err, ext)
		assert.Positive(t, info.Size(), ext)
	}
}

func TestSaveRejectsEmptyImage(t *testing.T) {
	opts := testOptions(filepath.Join(t.TempDir(), "out"))
	opts.Width = 0

	err := NewWriter(nil).Save(scenarioPool(), opts)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestSaveReportsEveryFailure(t *testing.T) {
	opts := testOptions(filepath.Join(t.TempDir(), "missing", "out"))
	opts.JSON = true

	err := NewWriter(nil).Save(scenarioPool(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out.csv")
	assert.Contains(t, err.Error(), "out.py")
	assert.Contains(t, err.Error(), "out.json")
}
