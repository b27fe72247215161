package logrus_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/rcliao/madlab/internal/log"
	loglogrus "github.com/rcliao/madlab/internal/log/logrus"
)

func TestLogrusWithValues(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.Out = &buf
	l.SetFormatter(&logrus.JSONFormatter{})

	logger := loglogrus.NewLogrus(logrus.NewEntry(l)).WithValues(log.Kv{"svc": "test"})
	logger.Infof("scheduled %d tasks", 3)

	out := buf.String()
	assert.Contains(t, out, `"svc":"test"`)
	assert.Contains(t, out, "scheduled 3 tasks")
}

func TestLogrusDebugDisabledByDefault(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.Out = &buf

	loglogrus.NewLogrus(logrus.NewEntry(l)).Debugf("hidden")
	assert.Empty(t, buf.String())
}
