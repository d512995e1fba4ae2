package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("add_person", nil)
	m.ObserveOperation("add_person", nil)
	m.ObserveOperation("add_person", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("add_person", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("add_person", "error")))
}

func TestObserveRecompute(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRecompute(10)
	m.ObserveRecompute(0)
	m.ObserveRecompute(-5)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Recomputes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Overcommitted))
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "duplicate registration must panic")
}
