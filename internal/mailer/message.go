package mailer

import (
	"context"
	"time"
)

// TimestampLayout formats capture times in subjects and bodies.
const TimestampLayout = "2006-01-02 15:04:05"

// Message is a single outgoing photo email.
type Message struct {
	AttachmentPath string
	Recipient      string
	Subject        string
	Body           string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Template holds the fixed parts of every daily message.
type Template struct {
	Recipient     string
	SubjectPrefix string
	BodyIntro     string
}

// Build returns the message for the photo at path captured at the given time.
func (t Template) Build(path string, at time.Time) Message {
	return Message{
		AttachmentPath: path,
		Recipient:      t.Recipient,
		Subject:        Subject(t.SubjectPrefix, at),
		Body:           Body(t.BodyIntro, at),
	}
}

// Subject renders "<prefix> - <timestamp>".
func Subject(prefix string, at time.Time) string {
	stamp := at.Format(TimestampLayout)
	if prefix == "" {
		return stamp
	}
	return prefix + " - " + stamp
}

// Body renders the intro line followed by the capture time.
func Body(intro string, at time.Time) string {
	line := "Captured at: " + at.Format(TimestampLayout)
	if intro == "" {
		return line
	}
	return intro + "\n\n" + line
}
