package config

import "runtime"

const (
	defaultLogsDir               = "~/dropsync/logs"
	defaultLogPattern            = "data_*.csv"
	defaultOutputDir             = "~/dropsync/output"
	defaultDropRoot              = "~/dropsync/drops"
	defaultLogDir                = "~/.local/share/dropsync/logs"
	defaultEventIndexName        = "ImageIndex.csv"
	defaultSensorTimestampColumn = "Timestamp"
	defaultSensorMetricColumn    = "Depth"
	defaultSmoothingWindow       = 5
	defaultThreshold             = 5.0
	defaultMinDurationS          = 20.0
	defaultEventTimestampColumn  = "timestamp"
	defaultEventRawColumn        = "timestamp_raw"
	defaultEventSubsecColumn     = "subsec_raw"
	defaultEventTimestampFormat  = "%Y:%m:%d %H:%M:%S"
	defaultEventPathColumn       = "full_path"
	defaultToleranceS            = 2.0
	defaultBufferS               = 600.0
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogsDir:    defaultLogsDir,
			LogPattern: defaultLogPattern,
			OutputDir:  defaultOutputDir,
			DropRoot:   defaultDropRoot,
			LogDir:     defaultLogDir,
		},
		Sensor: Sensor{
			TimestampColumn: defaultSensorTimestampColumn,
			MetricColumn:    defaultSensorMetricColumn,
		},
		Segmentation: Segmentation{
			SmoothingWindow: defaultSmoothingWindow,
			Threshold:       defaultThreshold,
			MinDurationS:    defaultMinDurationS,
		},
		Events: Events{
			TimestampColumn:    defaultEventTimestampColumn,
			TimestampRawColumn: defaultEventRawColumn,
			SubsecColumn:       defaultEventSubsecColumn,
			TimestampFormat:    defaultEventTimestampFormat,
			PathColumn:         defaultEventPathColumn,
		},
		Alignment: Alignment{
			ToleranceS:        defaultToleranceS,
			BufferS:           defaultBufferS,
			InclusiveBoundary: true,
		},
		Output: Output{
			Manifests: true,
		},
		Batch: Batch{
			Workers: defaultWorkers(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultWorkers() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}
