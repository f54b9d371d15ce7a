package domain

// Notification tells the operator a pack was drafted.
type Notification struct {
	Subject  string
	Text     string // plain-text body
	Markdown string
	HTML     string      // Markdown rendered for mail clients
	Image    *Attachment // first source image, if any
}
