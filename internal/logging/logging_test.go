package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	lines []string
}

func (r *recordingSink) AddMessage(message string) {
	r.lines = append(r.lines, message)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("nonsense"))
}

func TestNewWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", &buf)

	logger.Debug("hidden")
	logger.WithField("engine", "bing").Info("search done")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "search done")
	assert.Contains(t, out, "engine=bing")
}

func TestAttachSink(t *testing.T) {
	logger := Discard()
	sink := &recordingSink{}
	AttachSink(logger, sink)

	logger.WithFields(logrus.Fields{"b": 2, "a": "x"}).Warn("thumbnail failed")

	if assert.Len(t, sink.lines, 1) {
		assert.Equal(t, "WARNING thumbnail failed a=x b=2", sink.lines[0])
	}
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := Discard()
	assert.Equal(t, logrus.FieldLogger(l), OrDiscard(l))
}
