// Package metrics records run counters as structured log lines and,
// when enabled, buffers them for CloudWatch.
package metrics

import (
	"sync"
	"time"

	"hotelprices/logger"
)

// Metric is a single counter or gauge reading taken during a run.
type Metric struct {
	Timestamp time.Time
	Component string
	Name      string
	Value     float64
	Unit      string
	Fields    logger.Fields
}

// MetricHandler consumes every metric a Recorder emits.
type MetricHandler func(Metric)

// MetricHandlerID identifies a registered handler.
type MetricHandlerID uint64

// Recorder logs metrics and hands them to registered handlers. A nil
// *Recorder discards everything.
type Recorder struct {
	log *logger.Log
	now func() time.Time

	mu       sync.RWMutex
	handlers map[MetricHandlerID]MetricHandler
	nextID   MetricHandlerID
}

func NewRecorder(log *logger.Log) *Recorder {
	return &Recorder{
		log:      log,
		now:      time.Now,
		handlers: make(map[MetricHandlerID]MetricHandler),
	}
}

// RegisterHandler adds a handler. A zero id is returned for a nil handler.
func (r *Recorder) RegisterHandler(handler MetricHandler) MetricHandlerID {
	if r == nil || handler == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.handlers[id] = handler
	return id
}

func (r *Recorder) UnregisterHandler(id MetricHandlerID) {
	if r == nil || id == 0 {
		return
	}

	r.mu.Lock()
	delete(r.handlers, id)
	r.mu.Unlock()
}

// Emit records one metric. Unit defaults to "count".
func (r *Recorder) Emit(component, name string, value float64, unit string, fields logger.Fields) {
	if r == nil || name == "" {
		return
	}
	if unit == "" {
		unit = "count"
	}

	userFields := cloneFields(fields)

	logFields := make(logger.Fields, len(userFields)+3)
	for k, v := range userFields {
		logFields[k] = v
	}
	logFields["metric"] = name
	logFields["value"] = value
	logFields["unit"] = unit
	r.log.WithComponent(component).WithFields(logFields).Info("metric")

	r.dispatch(Metric{
		Timestamp: r.now(),
		Component: component,
		Name:      name,
		Value:     value,
		Unit:      unit,
		Fields:    userFields,
	})
}

func (r *Recorder) dispatch(metric Metric) {
	r.mu.RLock()
	if len(r.handlers) == 0 {
		r.mu.RUnlock()
		return
	}
	handlers := make([]MetricHandler, 0, len(r.handlers))
	for _, handler := range r.handlers {
		handlers = append(handlers, handler)
	}
	r.mu.RUnlock()

	for _, handler := range handlers {
		handler(metric)
	}
}

func cloneFields(fields logger.Fields) logger.Fields {
	if len(fields) == 0 {
		return logger.Fields{}
	}

	copied := make(logger.Fields, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return copied
}
