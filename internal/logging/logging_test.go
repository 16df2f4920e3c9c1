package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"", logrus.InfoLevel},
		{"WARN", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"bogus", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NewLogger(tt.in).GetLevel())
		})
	}
}

func TestFormatterOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("info")
	log.SetOutput(&buf)

	log.WithFields(logrus.Fields{"offset": 2047.5, "noise": 1.2}).Info("tare done")

	assert.Equal(t, "[INFO] tare done noise=1.2 offset=2047.5\n", buf.String())
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("nothing to see")
}
