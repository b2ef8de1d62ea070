package ssdash

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
)

// EventScanner reads server-sent events from the push stream.
//
// Each Scan reads one message, and Event decodes it.
// Comments, and events that have name other than "message", are skipped.
type EventScanner struct {
	body   io.ReadCloser
	reader *bufio.Reader

	data   []byte
	name   string
	lastID string
	retry  time.Duration
	err    error
}

// NewEventScanner creates a new EventScanner from io.ReadCloser.
func NewEventScanner(body io.ReadCloser) *EventScanner {
	return &EventScanner{
		body:   body,
		reader: bufio.NewReader(body),
	}
}

// ResumeEventScanner creates a new EventScanner for a reconnected stream.
// LastID returns lastID until the server sends a new ID.
func ResumeEventScanner(body io.ReadCloser, lastID string) *EventScanner {
	s := NewEventScanner(body)
	s.lastID = lastID
	return s
}

// Close closes the underlying stream.
func (s *EventScanner) Close() error {
	return s.body.Close()
}

// Scan reads the next message. If the stream ended or failed, it returns false.
func (s *EventScanner) Scan() bool {
	var buf bytes.Buffer
	s.name = ""
	hasData := false

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			s.err = err
			return false
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		if line == "" {
			if !hasData || (s.name != "" && s.name != "message") {
				buf.Reset()
				s.name = ""
				hasData = false
				continue
			}
			s.data = bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
			return true
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			buf.WriteString(value)
			buf.WriteByte('\n')
			hasData = true
		case "event":
			s.name = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				s.lastID = value
			}
		case "retry":
			if ms, err := strconv.ParseUint(value, 10, 32); err == nil {
				s.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
}

// Data returns the raw payload of the current message.
func (s *EventScanner) Data() []byte {
	return s.data
}

// Event decodes the current message.
// See also ParseEvent.
func (s *EventScanner) Event() (Event, error) {
	return ParseEvent(s.data)
}

// LastID returns the latest event ID that the server sent.
func (s *EventScanner) LastID() string {
	return s.lastID
}

// Retry returns the reconnection time that the server requested, or 0.
func (s *EventScanner) Retry() time.Duration {
	return s.retry
}

// Err returns the error that stopped Scan.
// It returns io.ErrUnexpectedEOF if the server closed the stream.
func (s *EventScanner) Err() error {
	return s.err
}
