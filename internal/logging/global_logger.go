package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/streambridge/streambridge/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the active file inside the configured log directory.
const LogFileName = "streambridge.log"

// sinks owns every writer the logger hands out so they can be closed together on exit.
type sinks struct {
	mu   sync.Mutex
	file *lumberjack.Logger
	gin  []*io.PipeWriter
}

var (
	baseOnce sync.Once
	out      sinks
)

// LogFormatter renders one line per entry:
// [2026-01-02 15:04:05] [a1b2c3d4] [info ] [service.go:88] message provider=claude
type LogFormatter struct{}

// logFieldOrder defines which fields are printed and in what order.
var logFieldOrder = []string{"provider", "model", "format", "url", "status", "attempt", "latency", "client", "error"}

func (f *LogFormatter) Format(entry *log.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = new(bytes.Buffer)
	}

	id, _ := entry.Data["request_id"].(string)
	if id == "" {
		id = "--------"
	}
	lvl := strings.TrimSuffix(entry.Level.String(), "ing")

	b.WriteString("[" + entry.Time.Format("2006-01-02 15:04:05") + "] ")
	fmt.Fprintf(b, "[%s] [%-5s] ", id, lvl)
	if c := entry.Caller; c != nil {
		fmt.Fprintf(b, "[%s:%d] ", filepath.Base(c.File), c.Line)
	}
	b.WriteString(strings.TrimRight(entry.Message, "\r\n"))
	for _, key := range logFieldOrder {
		if val, ok := entry.Data[key]; ok {
			fmt.Fprintf(b, " %s=%v", key, val)
		}
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// SetupBaseLogger installs LogFormatter on the standard logger and routes Gin's own
// output through it. Only the first call has an effect.
func SetupBaseLogger() {
	baseOnce.Do(func() {
		std := log.StandardLogger()
		std.SetOutput(os.Stdout)
		std.SetReportCaller(true)
		std.SetFormatter(&LogFormatter{})

		info, errs := std.Writer(), std.WriterLevel(log.ErrorLevel)
		out.mu.Lock()
		out.gin = append(out.gin, info, errs)
		out.mu.Unlock()
		gin.DefaultWriter = info
		gin.DefaultErrorWriter = errs
		gin.DebugPrintFunc = func(format string, values ...interface{}) {
			std.Debugf(strings.TrimRight(format, "\r\n"), values...)
		}

		log.RegisterExitHandler(out.close)
	})
}

// ConfigureLogOutput points the standard logger at stdout, or at a rotating file under
// cfg.LogDir when cfg.LoggingToFile is set. Calling it again on reload swaps the target.
func ConfigureLogOutput(cfg *config.Config) error {
	SetupBaseLogger()

	out.mu.Lock()
	defer out.mu.Unlock()

	if cfg == nil || !cfg.LoggingToFile {
		out.closeFile()
		log.SetOutput(os.Stdout)
		return nil
	}

	dir := cfg.LogDir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("logging: create log dir %s: %w", dir, err)
	}

	target := filepath.Join(dir, LogFileName)
	rot := cfg.LogRotation
	if f := out.file; f != nil && f.Filename == target && f.MaxSize == rot.MaxSizeMB &&
		f.MaxBackups == rot.MaxBackups && f.MaxAge == rot.MaxAgeDays && f.Compress == rot.Compress {
		return nil
	}
	out.closeFile()
	out.file = &lumberjack.Logger{
		Filename:   target,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
		Compress:   rot.Compress,
	}
	log.SetOutput(out.file)
	return nil
}

// closeFile requires s.mu.
func (s *sinks) closeFile() {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}

func (s *sinks) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeFile()
	for _, w := range s.gin {
		_ = w.Close()
	}
	s.gin = nil
}
