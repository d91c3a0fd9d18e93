package analytics

import "github.com/canvasflow/canvasflow/model"

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

type DataCollectorType string

const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"
const NOOP_DATA_COLLECTOR DataCollectorType = "NOOP_DATA_COLLECTOR"

// RunDataCollector receives terminal step and run records for offline
// analysis (dashboards, success-rate aggregation). It is fed by the
// execution service, never by the engine itself.
type RunDataCollector interface {
	RecordStep(run *model.Run, step model.Step)
	RecordRunFinished(run *model.Run)
}

func NewDataCollector(config DataCollectorConfig) (RunDataCollector, error) {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		return NewLogFileDataCollector(config.FileName)
	}
	return noopCollector{}, nil
}

type noopCollector struct{}

func (noopCollector) RecordStep(run *model.Run, step model.Step) {}
func (noopCollector) RecordRunFinished(run *model.Run)           {}
