package core

type Conf struct {
	Version            string  `long:"version" description:"version of grover engine" env:"GROVER_VERSION"`
	DevMode            bool    `long:"dev-mode" description:"run in dev mode" env:"GROVER_DEV_MODE"`
	DisableStdoutLog   bool    `long:"disable-stdout-log" description:"do not log in standard output" env:"GROVER_DISABLE_STDOUT_LOG"`
	EnableFileLog      bool    `long:"enable-file-log" description:"enable log in file" env:"GROVER_ENABLE_FILE_LOG"`
	LogDir             string  `long:"log-dir" description:"rotating log file dir" default:"./shares/logs" env:"GROVER_LOG_DIR"`
	LogLevel           string  `long:"log-level" description:"log level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" env:"GROVER_LOG_LEVEL"`
	LogRotationMaxDays int     `long:"log-rotation-max-days" description:"max days of log rotation" default:"7" env:"GROVER_LOG_ROTATION_MAX_DAYS"`
	Backend            string  `long:"backend" description:"sampling backend" default:"local" choice:"local" choice:"dummy" env:"GROVER_BACKEND"`
	DeviceMaxShots     int     `long:"device-max-shots" description:"max shots accepted per search" default:"1000000" env:"GROVER_DEVICE_MAX_SHOTS"`
	Epsilon            float64 `long:"epsilon" description:"normalization tolerance" default:"1e-9" env:"GROVER_EPSILON"`
	Workers            int     `long:"workers" description:"kernel workers (0: number of CPUs)" default:"0" env:"GROVER_WORKERS"`
	MaxQubits          int     `long:"max-qubits" description:"largest register accepted" default:"30" env:"GROVER_MAX_QUBITS"`
	IterationCeiling   int     `long:"iteration-ceiling" description:"round count above which a warning is logged" default:"4096" env:"GROVER_ITERATION_CEILING"`
	QueueMaxSize       int     `long:"queue-max-size" description:"queue max size" default:"100" env:"GROVER_QUEUE_MAX_SIZE"`
	SettingPath        string  `long:"setting-path" description:"setting file path" default:"./setting/setting.toml" env:"GROVER_SETTING_PATH"`
}
