package record

import (
	"github.com/sirupsen/logrus"
)

// A Sink receives the entries of a stream.
type Sink interface {
	Write(e Record) error
}

// MemorySink keeps entries in memory.
type MemorySink struct {
	entries []Record
}

// Write appends an entry.
func (m *MemorySink) Write(e Record) error {
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns the entries written so far.
func (m *MemorySink) Entries() []Record {
	return m.entries
}

// Find returns the entries of one field and method.
func (m *MemorySink) Find(name, method string) []Record {
	var found []Record

	for _, e := range m.entries {
		if e.Name == name && e.Method == method {
			found = append(found, e)
		}
	}

	return found
}

// LogSink writes every entry as an info log.
type LogSink struct {
	Logger logrus.FieldLogger
}

// Write logs an entry.
func (l LogSink) Write(e Record) error {
	l.Logger.WithFields(logrus.Fields{
		"start":  e.StartStep,
		"end":    e.EndStep,
		"field":  e.Name,
		"method": e.Method,
		"value":  e.Value.Data(),
	}).Info("record")

	return nil
}
