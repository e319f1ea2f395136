package main

import (
	"net/http"

	"github.com/go-graphite/check-graphite/rawdata"
)

type Response struct {
	Code         int      `yaml:"code"`
	ReplyDelayMS int      `yaml:"replyDelayMS"`
	Data         []Metric `yaml:"data"`
}

// Metric values may contain .nan, written as None.
type Metric struct {
	MetricName string    `yaml:"metricName"`
	Step       int64     `yaml:"step"`
	StartTime  int64     `yaml:"startTime"`
	Values     []float64 `yaml:"values"`
}

func (m Metric) toRaw() rawdata.Metric {
	step := m.Step
	if step == 0 {
		step = 1
	}
	startTime := m.StartTime
	if startTime == 0 {
		startTime = step
	}

	return rawdata.Metric{
		Header: rawdata.Header{
			Name:      m.MetricName,
			StartTime: startTime,
			StopTime:  startTime + step*int64(len(m.Values)),
			StepTime:  step,
		},
		Values: m.Values,
	}
}

func isRawRequest(req *http.Request) bool {
	return req.FormValue("rawData") == "true" || req.FormValue("format") == "raw"
}

const contentTypeRaw = "text/plain"
