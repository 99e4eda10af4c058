package core

import glog "github.com/goliatone/go-logger/glog"

// ResolveLogger picks the named logger from provider, then logger, then a no-op.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) Logger {
	provider, logger = glog.Resolve(name, provider, logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(name); named != nil {
			logger = glog.Ensure(named)
		}
	}
	return logger
}
