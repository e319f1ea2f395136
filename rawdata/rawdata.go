// Package rawdata reads and writes graphite's 'raw' render format:
//
//	name,start,stop,step|v1,v2,None,v4
//
// one line per series. Parse sums every series column by column into a single Series.
// A None keeps its column, so values are summed by timestamp slot rather than by the
// position among the non-None values of a line.
package rawdata

import (
	"bufio"
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/ansel1/merry"
	merry2 "github.com/ansel1/merry/v2"
)

const (
	fieldSeparator = '|'
	valueSeparator = ','
	noneValue      = "None"
)

var ErrEmptyResult = merry.New("no data from graphite")
var ErrBadValue = merry.New("failed to parse value")
var ErrBadHeader = merry.New("malformed series header")

// Series is the column-wise sum of all parsed lines.
type Series []float64

// Header is the metadata part of a raw line.
type Header struct {
	Name      string
	StartTime int64
	StopTime  int64
	StepTime  int64
}

// Aggregator accumulates raw lines into per-column sums.
//
// Column positions are taken from the token position in the line, so a None keeps its
// slot. Positions that never received a sample are dropped by Series.
type Aggregator struct {
	sums    []float64
	touched []bool
	lines   int
}

// AddLine adds one raw line. Lines without '|' are ignored and reported as not used.
func (a *Aggregator) AddLine(line string) (bool, error) {
	idx := strings.IndexByte(line, fieldSeparator)
	if idx < 0 {
		return false, nil
	}
	data := strings.TrimRight(line[idx+1:], "\r")
	a.lines++
	if data == "" {
		return true, nil
	}

	for col, token := range strings.Split(data, string(valueSeparator)) {
		if token == noneValue {
			continue
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return false, merry2.Wrap(ErrBadValue,
				merry2.WithValue("value", token),
				merry2.WithValue("column", col),
				merry2.WithCause(err),
				merry2.WithMessagef("failed to parse value %q in column %d", token, col),
			)
		}
		a.grow(col + 1)
		a.sums[col] += v
		a.touched[col] = true
	}

	return true, nil
}

func (a *Aggregator) grow(n int) {
	for len(a.sums) < n {
		a.sums = append(a.sums, 0)
		a.touched = append(a.touched, false)
	}
}

// Lines returns the number of lines that carried a data section.
func (a *Aggregator) Lines() int {
	return a.lines
}

// Series returns the sums of all columns that received at least one sample.
func (a *Aggregator) Series() Series {
	res := make(Series, 0, len(a.sums))
	for i, v := range a.sums {
		if a.touched[i] {
			res = append(res, v)
		}
	}
	return res
}

// Aggregate feeds every line of a render response body into a new Aggregator.
func Aggregate(body []byte) (*Aggregator, error) {
	agg := &Aggregator{}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	for scanner.Scan() {
		if _, err := agg.AddLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, merry2.Wrap(err)
	}

	return agg, nil
}

// Result is Series, failing with ErrEmptyResult when no column got a sample.
func (a *Aggregator) Result() (Series, error) {
	res := a.Series()
	if len(res) == 0 {
		return nil, ErrEmptyResult
	}
	return res, nil
}

// Parse aggregates a whole render response body.
func Parse(body []byte) (Series, error) {
	agg, err := Aggregate(body)
	if err != nil {
		return nil, err
	}
	return agg.Result()
}

// ParseHeader splits the metadata part of a raw line. Names may contain commas
// (e.g. seriesByTag expressions), so the numeric fields are taken from the right.
func ParseHeader(line string) (Header, error) {
	idx := strings.IndexByte(line, fieldSeparator)
	if idx < 0 {
		return Header{}, merry2.Wrap(ErrBadHeader, merry2.WithValue("line", line))
	}
	meta := line[:idx]

	fields := make([]int64, 3)
	for i := 2; i >= 0; i-- {
		pos := strings.LastIndexByte(meta, valueSeparator)
		if pos < 0 {
			return Header{}, merry2.Wrap(ErrBadHeader, merry2.WithValue("line", line))
		}
		v, err := strconv.ParseInt(meta[pos+1:], 10, 64)
		if err != nil {
			return Header{}, merry2.Wrap(ErrBadHeader, merry2.WithValue("line", line), merry2.WithCause(err))
		}
		fields[i] = v
		meta = meta[:pos]
	}

	return Header{
		Name:      meta,
		StartTime: fields[0],
		StopTime:  fields[1],
		StepTime:  fields[2],
	}, nil
}

// Metric is a single series to be written in raw format. NaN values are written as None.
type Metric struct {
	Header
	Values []float64
}

// Marshal writes metrics in graphite's raw format.
func Marshal(metrics []Metric) []byte {
	var b []byte

	for _, m := range metrics {
		b = append(b, m.Name...)

		b = append(b, valueSeparator)
		b = strconv.AppendInt(b, m.StartTime, 10)
		b = append(b, valueSeparator)
		b = strconv.AppendInt(b, m.StopTime, 10)
		b = append(b, valueSeparator)
		b = strconv.AppendInt(b, m.StepTime, 10)
		b = append(b, fieldSeparator)

		var comma bool
		for _, v := range m.Values {
			if comma {
				b = append(b, valueSeparator)
			}
			comma = true
			if math.IsNaN(v) {
				b = append(b, noneValue...)
			} else {
				b = strconv.AppendFloat(b, v, 'f', -1, 64)
			}
		}

		b = append(b, '\n')
	}
	return b
}
