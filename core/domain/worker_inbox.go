package domain

import "strings"

// InboxThread is a mailbox thread matched by the intake query, reduced to its
// latest message.
type InboxThread struct {
	ID      string
	Message InboxMessage
}

// InboxMessage is the latest message of a thread.
type InboxMessage struct {
	ID          string
	Subject     string
	Body        string // plain text body
	Attachments []Attachment
}

// Attachment is a message attachment or inline image with its content loaded.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.ContentType), "image/")
}

// Images returns the image attachments of m in message order.
func (m InboxMessage) Images() []Attachment {
	var images []Attachment
	for _, a := range m.Attachments {
		if a.IsImage() {
			images = append(images, a)
		}
	}
	return images
}
