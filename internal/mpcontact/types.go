package mpcontact

import (
	"context"
	"net/url"
	"strings"
)

// Representative is the MP resolved from a postcode. It is immutable once
// received from the directory service.
type Representative struct {
	Name         string `json:"name"`
	Party        string `json:"party"`
	Constituency string `json:"constituency"`
	Postcode     string `json:"postcode"`
	Email        string `json:"email,omitempty"`
}

// GeneratedMessage is the drafted letter. The wizard displays it read-only.
type GeneratedMessage struct {
	RecipientEmail string `json:"recipient_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

// Field names one copyable part of a generated message.
type Field string

const (
	FieldRecipient Field = "recipient"
	FieldSubject   Field = "subject"
	FieldBody      Field = "body"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(s)); f {
	case FieldRecipient, FieldSubject, FieldBody:
		return f, nil
	}
	return "", ErrUnknownField
}

// Value returns the literal text of field f.
func (m GeneratedMessage) Value(f Field) string {
	switch f {
	case FieldRecipient:
		return m.RecipientEmail
	case FieldSubject:
		return m.Subject
	case FieldBody:
		return m.Body
	}
	return ""
}

// MailtoURL builds a mail-compose link with recipient, subject and body
// percent-encoded. Spaces become %20 rather than "+", which mail clients
// would otherwise show literally.
func (m GeneratedMessage) MailtoURL() string {
	return "mailto:" + encodeComponent(m.RecipientEmail) +
		"?subject=" + encodeComponent(m.Subject) +
		"&body=" + encodeComponent(m.Body)
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// GenerateRequest carries the structured inputs for a drafted message.
type GenerateRequest struct {
	RepresentativeName string
	Constituency       string
	Concerns           []Concern
	Narrative          string
}

// Directory resolves a postcode to the sitting representative.
type Directory interface {
	Lookup(ctx context.Context, postcode string) (Representative, error)
}

// Generator drafts a message from structured advocacy inputs.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GeneratedMessage, error)
}

// Clipboard places text on the platform clipboard. Implementations may fail
// (permission denied, no clipboard); the wizard ignores such failures.
type Clipboard interface {
	WriteText(text string) error
}

// URLOpener asks the platform to open a URL, such as a mailto link, without
// waiting for the handler.
type URLOpener interface {
	OpenURL(u string) error
}
