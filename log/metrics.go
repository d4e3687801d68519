package log

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/common"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"go.uber.org/zap"
)

const MetricsLogTaskName = "metrics_log"
const (
	queueLengthKeyInMetrics = "queue_length"
	jobsKeyInMetrics        = "jobs"
	maxQubitsKeyInMetrics   = "max_qubits"
)

type MetricsLogTaskImpl struct {
	FileDir string `toml:"file_dir"`

	dl *dailyLogger
	sc *core.SystemComponents

	core.DefaultTaskImpl
}

func setupMetricsLogTask(fileDir string) (*dailyLogger, error) {
	if err := common.IsDirWritable(fileDir); err != nil {
		return nil, errors.Wrapf(err, "failed to write to %s", fileDir)
	}
	newDailyLogger := newDailyLogger(fileDir)
	slog.SetDefault(slog.New(slog.NewJSONHandler(newDailyLogger, nil)))
	return newDailyLogger, nil
}

func (m *MetricsLogTaskImpl) Setup() error {
	dl, err := setupMetricsLogTask(m.FileDir)
	if err != nil {
		zap.L().Error("failed to set up metrics log task", zap.Error(err))
		return err
	}
	sc := core.GetSystemComponents()
	m.dl = dl
	m.sc = sc
	return nil
}

func (m *MetricsLogTaskImpl) GetEmptyParams() interface{} {
	return m
}

// SetParams accepts the params decoded into GetEmptyParams or a plain map.
func (m *MetricsLogTaskImpl) SetParams(p interface{}) error {
	switch v := p.(type) {
	case nil:
		zap.L().Debug("no params for metrics log task")
	case *MetricsLogTaskImpl:
		m.FileDir = v.FileDir
	case map[string]interface{}:
		if fileDir, ok := v["file_dir"].(string); ok {
			m.FileDir = fileDir
		}
	default:
		err := errors.Errorf("failed to set params for metrics log task/params: %v", p)
		zap.L().Error(err.Error())
		return err
	}
	if m.FileDir == "" {
		return errors.New("file_dir of metrics log task is empty")
	}
	return nil
}

func (m *MetricsLogTaskImpl) Task() {
	if m.sc == nil {
		zap.L().Warn("metrics log task has no system components")
		return
	}
	attrs := []any{slog.Int(queueLengthKeyInMetrics, m.sc.GetCurrentQueueSize())}
	if di := m.sc.GetDeviceInfo(); di != nil {
		attrs = append(attrs, slog.Int(maxQubitsKeyInMetrics, di.MaxQubits))
	}
	attrs = append(attrs, slog.Group(jobsKeyInMetrics, jobCounts(m.sc.ListJobs())...))
	slog.Info("Metrics", attrs...)
}

// jobCounts counts jobs per status in status order.
func jobCounts(jobs []core.Job) []any {
	counts := make(map[core.Status]int)
	for _, j := range jobs {
		counts[j.JobData().Status]++
	}
	out := []any{}
	for st := core.READY; st <= core.CANCELLED; st++ {
		out = append(out, slog.Int(st.String(), counts[st]))
	}
	return out
}

func (m *MetricsLogTaskImpl) Cleanup() {
	if m.dl == nil {
		return
	}
	if err := m.dl.Close(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to close metrics log/reason:%s", err))
	}
}

type dailyLogger struct {
	mu              sync.Mutex
	fileDir         string
	currentFileName string
	file            *os.File
}

func newDailyLogger(fileDir string) *dailyLogger {
	return &dailyLogger{
		fileDir: fileDir,
	}
}

func (dl *dailyLogger) Write(p []byte) (n int, err error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	fileName := fmt.Sprintf("metrics-%s.log", time.Now().Format("2006-01-02"))
	filePath := filepath.Join(dl.fileDir, fileName)
	currentFilePath := filepath.Join(dl.fileDir, dl.currentFileName)

	if dl.file == nil || currentFilePath != filePath {
		if dl.file != nil {
			dl.file.Close()
		}
		var err error
		dl.file, err = os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, err
		}
		dl.currentFileName = fileName
	}

	return dl.file.Write(p)
}

func (dl *dailyLogger) Close() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file == nil {
		return nil
	}
	err := dl.file.Close()
	dl.file = nil
	dl.currentFileName = ""
	return err
}
