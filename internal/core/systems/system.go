package systems

import (
	"time"
)

// System is a fixed-step processor driven by a simulation clock.
type System interface {
	Name() string
	// FixedUpdate advances the system by exactly one tick.
	FixedUpdate() error
	GetMetrics() Metrics
}

// Metrics provides runtime metrics for a system
type Metrics struct {
	ExecutionCount       uint64        `json:"execution_count"`
	TotalExecutionTime   time.Duration `json:"total_execution_time"`
	AverageExecutionTime time.Duration `json:"average_execution_time"`
	MaxExecutionTime     time.Duration `json:"max_execution_time"`
	MinExecutionTime     time.Duration `json:"min_execution_time"`
	ErrorCount           uint64        `json:"error_count"`
	LastError            error         `json:"-"`
	LastExecutionTime    time.Time     `json:"last_execution_time"`
	EntitiesProcessed    uint64        `json:"entities_processed"`
}

// Observe records one execution that started at start and processed
// entities items.
func (m *Metrics) Observe(start time.Time, entities int, err error) {
	took := time.Since(start)

	m.ExecutionCount++
	m.TotalExecutionTime += took
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if took > m.MaxExecutionTime {
		m.MaxExecutionTime = took
	}
	if m.ExecutionCount == 1 || took < m.MinExecutionTime {
		m.MinExecutionTime = took
	}
	m.LastExecutionTime = start
	m.EntitiesProcessed += uint64(entities)
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
}
