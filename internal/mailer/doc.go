// Package mailer delivers captured photos over SMTP.
//
// Template turns an artifact into a Message (subject and body stamped with the
// capture time); SMTPSender composes the MIME message with go-mail and sends it
// through an authenticated, optionally STARTTLS-protected connection. Every
// failure is wrapped with services.ErrSend.
package mailer
