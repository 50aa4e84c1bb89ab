package report

import (
	"io"
	"math"
	"strconv"
	"strings"
	"text/template"

	"flip-pooling/internal/processing/pooling"
)

var scriptTemplate = template.Must(template.New("histogram.py").Funcs(template.FuncMap{
	"num":  pyFloat,
	"list": pyList,
}).Parse(`import matplotlib.pyplot as plt
import sys
import numpy as np
from matplotlib.ticker import (MultipleLocator)

dimensions = (25, 15)  #  centimeters

lineColor = 'blue'
fillColor = 'lightblue'
meanLineColor = 'gray'
stddevLineColor = 'orange'
weightedMedianLineColor = 'red'
quartileLineColor = 'purple'
cogLineColor = 'green'
fontSize = 14
numPixels = {{.NumPixels}}

ppd = {{num .PPD}}
meanValue = {{num .Summary.Mean}}
stddevValue = {{num .Summary.StdDev}}
maxValue = {{num .Summary.Max}}
minValue = {{num .Summary.Min}}

weightedMedianValue = {{num .Summary.WeightedMedian}}

firstWeightedQuartileValue = {{num .Summary.FirstWeightedQuartile}}

thirdWeightedQuartileValue = {{num .Summary.ThirdWeightedQuartile}}

dataX = [{{list .Midpoints}}]

dataFLIP = [{{list .Counts}}]

bucketStep = {{num .BucketStep}}
weightedDataFLIP = np.empty({{.Buckets}})
moments = np.empty({{.Buckets}})
for i in range({{.Buckets}}) :
	weight = (i + 0.5) * bucketStep
	weightedDataFLIP[i] = dataFLIP[i] * weight
	moments[i] = dataFLIP[i] * weight * weight
cog = sum(moments) / sum(weightedDataFLIP)
weightedDataFLIP /= (numPixels / (1024 * 1024))  # normalized with the number of megapixels in the image
{{if .LogScale}}
for i in range({{.Buckets}}) :
	if weightedDataFLIP[i] > 0 :
		weightedDataFLIP[i] = np.log10(weightedDataFLIP[i])  # avoid log of zero
{{end}}
maxY = max(weightedDataFLIP)

sumWeightedDataFLIP = sum(weightedDataFLIP)

font = { 'family' : 'serif', 'style' : 'normal', 'weight' : 'normal', 'size' : fontSize }
lineHeight = fontSize / (dimensions[1] * 15)
plt.rc('font', **font)
fig = plt.figure()
axes = plt.axes()
axes.xaxis.set_minor_locator(MultipleLocator(0.1))
axes.xaxis.set_major_locator(MultipleLocator(0.2))

fig.set_size_inches(dimensions[0] / 2.54, dimensions[1] / 2.54)
{{if .LogScale}}
axes.set(title = 'Weighted ꟻLIP Histogram', xlabel = 'ꟻLIP error', ylabel = 'log(weighted ꟻLIP sum per megapixel)')
{{else}}
axes.set(title = 'Weighted ꟻLIP Histogram', xlabel = 'ꟻLIP error', ylabel = 'Weighted ꟻLIP sum per megapixel')
{{end}}
plt.bar(dataX, weightedDataFLIP, width = {{num .BucketStep}}, color = fillColor, edgecolor = lineColor, linewidth = 0.3)

plt.text(0.99, 1.0 - 1 * lineHeight, 'PPD: ' + str(f'{ppd:.1f}'), ha = 'right', fontsize = fontSize, transform = axes.transAxes, color='black')

plt.text(0.99, 1.0 - 2 * lineHeight, 'Weighted median: ' + str(f'{weightedMedianValue:.4f}'), ha = 'right', fontsize = fontSize, transform = axes.transAxes, color=weightedMedianLineColor)

plt.text(0.99, 1.0 - 3 * lineHeight, 'Mean: ' + str(f'{meanValue:.4f}'), ha = 'right', fontsize = fontSize, transform = axes.transAxes, color=meanLineColor)

plt.text(0.99, 1.0 - 4 * lineHeight, '1st weighted quartile: ' + str(f'{firstWeightedQuartileValue:.4f}'), ha = 'right', fontsize = fontSize, transform = axes.transAxes, color=quartileLineColor)

plt.text(0.99, 1.0 - 5 * lineHeight, '3rd weighted quartile: ' + str(f'{thirdWeightedQuartileValue:.4f}'), ha = 'right', fontsize = fontSize, transform = axes.transAxes, color=quartileLineColor)

plt.text(0.99, 1.0 - 6 * lineHeight, 'Min: ' + str(f'{minValue:.4f}'), ha = 'right', fontsize = fontSize, transform = axes.transAxes)
plt.text(0.99, 1.0 - 7 * lineHeight, 'Max: ' + str(f'{maxValue:.4f}'), ha = 'right', fontsize = fontSize, transform = axes.transAxes)
axes.set_xlim({{num .RangeMin}}, {{num .RangeMax}})
axes.set_ylim(0.0, maxY * 1.05)
axes.axvline(x = meanValue, color = meanLineColor, linewidth = 1.5)

axes.axvline(x = weightedMedianValue, color = weightedMedianLineColor, linewidth = 1.5)

axes.axvline(x = firstWeightedQuartileValue, color = quartileLineColor, linewidth = 1.5)

axes.axvline(x = thirdWeightedQuartileValue, color = quartileLineColor, linewidth = 1.5)

axes.axvline(x = minValue, color='black', linestyle = ':', linewidth = 1.5)

axes.axvline(x = maxValue, color='black', linestyle = ':', linewidth = 1.5)

if len(sys.argv) > 2 and sys.argv[1] == '-save':
	plt.savefig(sys.argv[2])
else:
	plt.show()
`))

type scriptData struct {
	NumPixels  int
	PPD        float64
	Summary    Summary
	Midpoints  []float64
	Counts     []float64
	Buckets    int
	BucketStep float64
	RangeMin   float64
	RangeMax   float64
	LogScale   bool
}

// WriteScript writes a matplotlib program that plots the weighted histogram
// with reference lines and annotations. Run it with "-save <path>" to write
// an image instead of opening a window.
func WriteScript(w io.Writer, p *pooling.Pooling, opts Options) error {
	h := p.Histogram()
	data := scriptData{
		NumPixels:  opts.Width * opts.Height,
		PPD:        opts.PPD,
		Summary:    Summarize(p),
		Buckets:    h.Size(),
		BucketStep: h.BucketStep(),
		RangeMin:   h.MinValue(),
		RangeMax:   h.MaxValue(),
		LogScale:   opts.LogScale,
	}
	for id := 0; id < h.Size(); id++ {
		data.Midpoints = append(data.Midpoints, h.Midpoint(id))
		data.Counts = append(data.Counts, float64(h.BucketValue(id)))
	}

	return scriptTemplate.Execute(w, data)
}

// pyFloat renders v as a Python expression; NaN and Inf have no literal form.
func pyFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "float('nan')"
	case math.IsInf(v, 1):
		return "float('inf')"
	case math.IsInf(v, -1):
		return "float('-inf')"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func pyList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = pyFloat(v)
	}
	return strings.Join(parts, ", ")
}
