// Package nagios turns evaluation results into plugin status lines and exit codes.
package nagios

import (
	"strconv"
	"strings"
)

type Status int

const (
	OK Status = iota
	Warning
	Critical
	Unknown
)

var statusNames = map[Status]string{
	OK:       "OK",
	Warning:  "WARNING",
	Critical: "CRITICAL",
	Unknown:  "UNKNOWN",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[Unknown]
}

// ParseStatus accepts status names in any case.
func ParseStatus(s string) (Status, bool) {
	for status, name := range statusNames {
		if strings.EqualFold(s, name) {
			return status, true
		}
	}
	return Unknown, false
}

// ExitCode returns the process exit code expected by the plugin API.
func (s Status) ExitCode() int {
	if _, ok := statusNames[s]; !ok {
		return int(Unknown)
	}
	return int(s)
}

// Limits are breaching counts that trigger WARNING and CRITICAL.
type Limits struct {
	Warn int
	Crit int
}

// PerfData is appended to the status line when set.
type PerfData struct {
	Ceiling   float64
	Breaching int
	Limits    Limits
}

func (p PerfData) String() string {
	var b strings.Builder
	b.WriteString("ceiling=")
	b.WriteString(FormatValue(p.Ceiling))
	b.WriteString(";;;; breaching=")
	b.WriteString(strconv.Itoa(p.Breaching))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(p.Limits.Warn))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(p.Limits.Crit))
	b.WriteString(";0;")
	return b.String()
}

type Result struct {
	Status   Status
	Message  string
	PerfData *PerfData
}

// String returns the single status line written to stdout.
func (r Result) String() string {
	line := r.Status.String() + ": " + r.Message
	if r.PerfData != nil {
		line += " | " + r.PerfData.String()
	}
	return line
}

func (r Result) ExitCode() int {
	return r.Status.ExitCode()
}

const noAlertsMessage = "No data point(s) alerting."

// Decide picks the status for the breaching values.
//
// CRITICAL wins over WARNING. A non-empty breaching set that reaches neither limit is OK.
func Decide(breaching []float64, limits Limits) Result {
	n := len(breaching)
	if n == 0 {
		return Result{Status: OK, Message: noAlertsMessage}
	}

	switch {
	case n >= limits.Crit:
		return Result{Status: Critical, Message: alertingMessage(breaching)}
	case n >= limits.Warn:
		return Result{Status: Warning, Message: alertingMessage(breaching)}
	default:
		return Result{Status: OK, Message: noAlertsMessage}
	}
}

// Failed reports a check that could not be evaluated.
func Failed(reason string) Result {
	return Result{Status: Critical, Message: "check failed: " + sanitize(reason)}
}

// Misconfigured reports invalid plugin arguments.
func Misconfigured(reason string) Result {
	return Result{Status: Unknown, Message: sanitize(reason)}
}

// sanitize keeps free-form text on one line and out of the perfdata section.
func sanitize(s string) string {
	return strings.ReplaceAll(strings.Join(strings.Fields(s), " "), "|", "/")
}

func alertingMessage(values []float64) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(values)))
	b.WriteString(" data point(s) alerting! (")
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatValue(v))
	}
	b.WriteByte(')')
	return b.String()
}

// FormatValue prints the shortest representation of v.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
