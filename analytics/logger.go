package analytics

import (
	"os"

	"github.com/canvasflow/canvasflow/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

var _ RunDataCollector = new(LogFileDataCollector)

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = "" // to hide stacktrace info
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewTee(zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel))
	logger := zap.New(core)
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   logger,
	}, nil
}

func (lc *LogFileDataCollector) RecordStep(run *model.Run, step model.Step) {
	lc.logger.Info("step",
		zap.String("workflow", run.WorkflowName),
		zap.String("runId", run.Id),
		zap.String("node", step.NodeId),
		zap.String("label", step.NodeLabel),
		zap.String("status", string(step.Status)),
		zap.String("duration", step.Duration),
		zap.Any("output", step.Output))
}

func (lc *LogFileDataCollector) RecordRunFinished(run *model.Run) {
	lc.logger.Info("run",
		zap.String("workflow", run.WorkflowName),
		zap.String("runId", run.Id),
		zap.String("status", string(run.Status)),
		zap.String("duration", run.Duration),
		zap.Int("steps", len(run.Steps)))
}
