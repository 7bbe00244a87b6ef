package logging

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/DataONEorg/d1-solr-extensions/config"
)

var (
	SuppressLogging = false

	// Components with their own loggers.
	FrontendComponent = "frontend"
	RegistryComponent = "registry"
	AuditComponent    = "audit"
	ToolComponent     = "tool"

	Manager = &LogManager{
		contexts: make(map[*string]*LogContext),
	}
)

type LogContext struct {
	*logrus.Logger

	component string
}

func (self *LogContext) Debug(format string, v ...interface{}) {
	self.Logger.WithField("component", self.component).
		Debug(fmt.Sprintf(format, v...))
}

func (self *LogContext) Info(format string, v ...interface{}) {
	self.Logger.WithField("component", self.component).
		Info(fmt.Sprintf(format, v...))
}

func (self *LogContext) Warn(format string, v ...interface{}) {
	self.Logger.WithField("component", self.component).
		Warn(fmt.Sprintf(format, v...))
}

func (self *LogContext) Error(format string, v ...interface{}) {
	self.Logger.WithField("component", self.component).
		Error(fmt.Sprintf(format, v...))
}

func (self *LogContext) WithFields(fields logrus.Fields) *logrus.Entry {
	return self.Logger.WithField(
		"component", self.component).WithFields(fields)
}

type LogManager struct {
	mu       sync.Mutex
	contexts map[*string]*LogContext
}

func (self *LogManager) GetLogger(
	config_obj *config.Config, component *string) *LogContext {
	self.mu.Lock()
	defer self.mu.Unlock()

	ctx, ok := self.contexts[component]
	if !ok {
		logger := logrus.New()
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})

		logger.SetLevel(logrus.InfoLevel)
		if config_obj != nil && config_obj.Verbose {
			logger.SetLevel(logrus.DebugLevel)
		}

		if SuppressLogging {
			logger.SetLevel(logrus.PanicLevel)
		}

		ctx = &LogContext{
			Logger:    logger,
			component: *component,
		}
		self.contexts[component] = ctx
	}

	return ctx
}

func GetLogger(config_obj *config.Config, component *string) *LogContext {
	return Manager.GetLogger(config_obj, component)
}
