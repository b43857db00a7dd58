package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/moffa90/go-crosec/transport"
)

// Adapter implements transport.Logger on top of a logrus entry.
type Adapter struct {
	entry *logrus.Entry
}

// NewAdapter wraps l. Pass the result to transport.WithLogger.
func NewAdapter(l *logrus.Logger) *Adapter {
	return &Adapter{entry: logrus.NewEntry(l)}
}

// WithField returns an adapter that adds key to every entry.
func (a *Adapter) WithField(key string, value interface{}) *Adapter {
	return &Adapter{entry: a.entry.WithField(key, value)}
}

func (a *Adapter) Debug(msg string, kv ...interface{}) { a.fields(kv).Debug(msg) }
func (a *Adapter) Info(msg string, kv ...interface{})  { a.fields(kv).Info(msg) }
func (a *Adapter) Warn(msg string, kv ...interface{})  { a.fields(kv).Warn(msg) }
func (a *Adapter) Error(msg string, kv ...interface{}) { a.fields(kv).Error(msg) }

// fields turns alternating keys and values into logrus fields. A trailing
// key without a value is kept under "!BADKEY".
func (a *Adapter) fields(kv []interface{}) *logrus.Entry {
	if len(kv) == 0 {
		return a.entry
	}

	f := make(logrus.Fields, len(kv)/2+1)
	for i := 0; i < len(kv); i += 2 {
		if i+1 == len(kv) {
			f["!BADKEY"] = kv[i]
			break
		}
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		f[key] = kv[i+1]
	}
	return a.entry.WithFields(f)
}

var _ transport.Logger = (*Adapter)(nil)
