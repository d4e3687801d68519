package core

type NonSecretConf struct {
	DevMode            bool
	DisableStdoutLog   bool
	EnableFileLog      bool
	LogDir             string
	LogLevel           string
	LogRotationMaxDays int
	Backend            string
	DeviceMaxShots     int
	Epsilon            float64
	Workers            int
	MaxQubits          int
	IterationCeiling   int
	QueueMaxSize       int
	SettingPath        string
}

type Info struct {
	Conf *NonSecretConf
}

var CurrentInfo *Info

func SetInfo(c *Conf) {
	conf := &NonSecretConf{
		DevMode:            c.DevMode,
		DisableStdoutLog:   c.DisableStdoutLog,
		EnableFileLog:      c.EnableFileLog,
		LogDir:             c.LogDir,
		LogLevel:           c.LogLevel,
		LogRotationMaxDays: c.LogRotationMaxDays,
		Backend:            c.Backend,
		DeviceMaxShots:     c.DeviceMaxShots,
		Epsilon:            c.Epsilon,
		Workers:            c.Workers,
		MaxQubits:          c.MaxQubits,
		IterationCeiling:   c.IterationCeiling,
		QueueMaxSize:       c.QueueMaxSize,
		SettingPath:        c.SettingPath,
	}

	CurrentInfo = &Info{
		Conf: conf,
	}
}
