package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"sync"
	"time"

	"draft_worker/core/domain"
	"draft_worker/core/port/out"
	"draft_worker/pkg/logger"
	"draft_worker/pkg/resilience"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

// GmailConfig names the labels that drive intake.
type GmailConfig struct {
	InboxLabel     string
	ProcessedLabel string
}

// GmailAdapter implements out.Mailbox for Gmail.
type GmailAdapter struct {
	svc *gmail.Service
	cfg GmailConfig
	cb  *resilience.Breaker

	mu       sync.Mutex
	labelIDs map[string]string
	address  string
}

var _ out.Mailbox = (*GmailAdapter)(nil)

// NewGmailAdapter creates a Gmail adapter authenticated with ts.
func NewGmailAdapter(ctx context.Context, ts oauth2.TokenSource, cfg GmailConfig, opts ...option.ClientOption) (*GmailAdapter, error) {
	svc, err := gmail.NewService(ctx, ClientOptions(ts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailAdapter{
		svc: svc,
		cfg: cfg,
		cb:  resilience.NewBreaker("gmail-api"),
	}, nil
}

// Search lists threads matching query and loads the latest message of each. A thread
// that fails to load is logged and left out so the others can still be processed.
func (a *GmailAdapter) Search(ctx context.Context, query string, max int) ([]domain.InboxThread, error) {
	var refs []*gmail.Thread
	err := a.cb.Execute("ListThreads", func() error {
		call := a.svc.Users.Threads.List(gmailUser).Q(query).Context(ctx)
		if max > 0 {
			call = call.MaxResults(int64(max))
		}
		resp, err := call.Do()
		if err != nil {
			return err
		}
		refs = resp.Threads
		return nil
	})
	if err != nil {
		return nil, wrapError("gmail", err, "failed to search threads")
	}

	threads := make([]domain.InboxThread, 0, len(refs))
	for _, ref := range refs {
		thread, err := a.loadThread(ctx, ref.Id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.WithError(err).WithField("thread_id", ref.Id).Warn("[GmailAdapter.Search] skipping thread that failed to load")
			continue
		}
		if thread != nil {
			threads = append(threads, *thread)
		}
	}
	logger.Debug("[GmailAdapter.Search] %d threads for %q", len(threads), query)
	return threads, nil
}

func (a *GmailAdapter) loadThread(ctx context.Context, threadID string) (*domain.InboxThread, error) {
	var t *gmail.Thread
	err := a.cb.Execute("GetThread", func() error {
		var apiErr error
		t, apiErr = a.svc.Users.Threads.Get(gmailUser, threadID).Format("full").Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return nil, wrapError("gmail", err, "failed to get thread")
	}
	if len(t.Messages) == 0 {
		return nil, nil
	}

	latest := t.Messages[len(t.Messages)-1]
	msg := convertMessage(latest)
	partIDs := imagePartIDs(latest.Payload)
	for i := range msg.Attachments {
		att := &msg.Attachments[i]
		if att.Data != nil {
			continue
		}
		data, err := a.attachmentData(ctx, latest.Id, partIDs[i])
		if err != nil {
			return nil, err
		}
		att.Data = data
	}
	return &domain.InboxThread{ID: t.Id, Message: msg}, nil
}

func (a *GmailAdapter) attachmentData(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	var body *gmail.MessagePartBody
	err := a.cb.Execute("GetAttachment", func() error {
		var apiErr error
		body, apiErr = a.svc.Users.Messages.Attachments.Get(gmailUser, messageID, attachmentID).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return nil, wrapError("gmail", err, "failed to get attachment")
	}
	data, err := decodeBase64URL(body.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment: %w", err)
	}
	return data, nil
}

// MarkDone moves the thread from the inbox label to the processed label and archives it.
func (a *GmailAdapter) MarkDone(ctx context.Context, threadID string) error {
	inboxID, err := a.labelID(ctx, a.cfg.InboxLabel)
	if err != nil {
		return err
	}
	doneID, err := a.labelID(ctx, a.cfg.ProcessedLabel)
	if err != nil {
		return err
	}

	req := &gmail.ModifyThreadRequest{
		AddLabelIds:    []string{doneID},
		RemoveLabelIds: []string{inboxID, "INBOX"},
	}
	err = a.cb.Execute("ModifyThread", func() error {
		_, apiErr := a.svc.Users.Threads.Modify(gmailUser, threadID, req).Context(ctx).Do()
		return apiErr
	})
	return wrapError("gmail", err, "failed to modify thread labels")
}

// labelID resolves a user label by name, creating it when absent.
func (a *GmailAdapter) labelID(ctx context.Context, name string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.labelIDs == nil {
		var labels []*gmail.Label
		err := a.cb.Execute("ListLabels", func() error {
			resp, apiErr := a.svc.Users.Labels.List(gmailUser).Context(ctx).Do()
			if apiErr != nil {
				return apiErr
			}
			labels = resp.Labels
			return nil
		})
		if err != nil {
			return "", wrapError("gmail", err, "failed to list labels")
		}
		a.labelIDs = make(map[string]string, len(labels))
		for _, l := range labels {
			a.labelIDs[l.Name] = l.Id
		}
	}
	if id, ok := a.labelIDs[name]; ok {
		return id, nil
	}

	var created *gmail.Label
	err := a.cb.Execute("CreateLabel", func() error {
		var apiErr error
		created, apiErr = a.svc.Users.Labels.Create(gmailUser, &gmail.Label{
			Name:                  name,
			LabelListVisibility:   "labelShow",
			MessageListVisibility: "show",
		}).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return "", wrapError("gmail", err, "failed to create label "+name)
	}
	a.labelIDs[name] = created.Id
	logger.Info("[GmailAdapter] created label %q", name)
	return created.Id, nil
}

// Send delivers msg from the authenticated account.
func (a *GmailAdapter) Send(ctx context.Context, msg *out.OutgoingMail) error {
	raw := buildRawMessage(msg, fmt.Sprintf("draft_%d", time.Now().UnixNano()))
	gmsg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString([]byte(raw))}
	err := a.cb.Execute("Send", func() error {
		_, apiErr := a.svc.Users.Messages.Send(gmailUser, gmsg).Context(ctx).Do()
		return apiErr
	})
	return wrapError("gmail", err, "failed to send message")
}

// Address returns the account's e-mail address.
func (a *GmailAdapter) Address(ctx context.Context) (string, error) {
	a.mu.Lock()
	cached := a.address
	a.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	var profile *gmail.Profile
	err := a.cb.Execute("GetProfile", func() error {
		var apiErr error
		profile, apiErr = a.svc.Users.GetProfile(gmailUser).Context(ctx).Do()
		return apiErr
	})
	if err != nil {
		return "", wrapError("gmail", err, "failed to get profile")
	}

	a.mu.Lock()
	a.address = profile.EmailAddress
	a.mu.Unlock()
	return profile.EmailAddress, nil
}

// Ping checks the Gmail API is reachable with the configured credentials.
func (a *GmailAdapter) Ping(ctx context.Context) error {
	_, err := a.Address(ctx)
	return err
}

// CircuitState returns the breaker state.
func (a *GmailAdapter) CircuitState() string {
	return a.cb.State()
}

// =============================================================================
// Message Parsing
// =============================================================================

// convertMessage reads the subject, plain-text body and image parts of msg. Images
// whose content lives behind an attachment id are returned with nil Data.
func convertMessage(msg *gmail.Message) domain.InboxMessage {
	m := domain.InboxMessage{ID: msg.Id}
	if msg.Payload == nil {
		return m
	}
	m.Subject = header(msg.Payload.Headers, "Subject")

	var text, htmlBody string
	extractBody(msg.Payload, &text, &htmlBody)
	if text == "" && htmlBody != "" {
		text = htmlToText(htmlBody)
	}
	m.Body = text

	walkParts(msg.Payload, func(p *gmail.MessagePart) {
		if !isImagePart(p) {
			return
		}
		att := domain.Attachment{Filename: p.Filename, ContentType: p.MimeType}
		if p.Body != nil && p.Body.AttachmentId == "" && p.Body.Data != "" {
			if data, err := decodeBase64URL(p.Body.Data); err == nil {
				att.Data = data
			}
		}
		m.Attachments = append(m.Attachments, att)
	})
	return m
}

// imagePartIDs returns the attachment id of every image part, in the order
// convertMessage lists them.
func imagePartIDs(payload *gmail.MessagePart) []string {
	var ids []string
	walkParts(payload, func(p *gmail.MessagePart) {
		if !isImagePart(p) {
			return
		}
		id := ""
		if p.Body != nil {
			id = p.Body.AttachmentId
		}
		ids = append(ids, id)
	})
	return ids
}

func isImagePart(p *gmail.MessagePart) bool {
	return strings.HasPrefix(strings.ToLower(p.MimeType), "image/") &&
		p.Body != nil && (p.Body.AttachmentId != "" || p.Body.Data != "")
}

func walkParts(p *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if p == nil {
		return
	}
	fn(p)
	for _, child := range p.Parts {
		walkParts(child, fn)
	}
}

// extractBody keeps the first text/plain and text/html bodies that are not attachments.
func extractBody(part *gmail.MessagePart, text, htmlBody *string) {
	walkParts(part, func(p *gmail.MessagePart) {
		if p.Filename != "" || p.Body == nil || p.Body.Data == "" {
			return
		}
		data, err := decodeBase64URL(p.Body.Data)
		if err != nil {
			return
		}
		switch strings.ToLower(p.MimeType) {
		case "text/plain":
			if *text == "" {
				*text = string(data)
			}
		case "text/html":
			if *htmlBody == "" {
				*htmlBody = string(data)
			}
		}
	})
}

// Elements whose content is never message text.
var hiddenElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Title:    true,
	atom.Style:    true,
	atom.Script:   true,
	atom.Noscript: true,
	atom.Template: true,
}

// Elements that end a line of text.
var lineElements = map[atom.Atom]bool{
	atom.Br: true, atom.P: true, atom.Div: true, atom.Li: true, atom.Tr: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Blockquote: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// htmlToText renders an HTML body as plain text: one line per block element,
// entities decoded, whitespace collapsed and blank lines dropped.
func htmlToText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return ""
	}

	var buf strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(lineBreaks.Replace(n.Data))
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if hiddenElements[n.DataAtom] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && lineElements[n.DataAtom] {
			buf.WriteByte('\n')
		}
	}
	walk(doc)

	lines := strings.Split(buf.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func header(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func decodeBase64URL(s string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// =============================================================================
// Outgoing Messages
// =============================================================================

// buildRawMessage renders msg as RFC 5322 text: multipart/alternative for text and
// HTML bodies, wrapped in multipart/mixed when there are attachments.
func buildRawMessage(msg *out.OutgoingMail, boundary string) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")

	altBoundary := boundary + "_alt"
	writeBodies := func() {
		if msg.HTMLBody == "" {
			writeBase64Part(&buf, "text/plain; charset=UTF-8", "", []byte(msg.TextBody))
			return
		}
		buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", altBoundary))
		buf.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
		writeBase64Part(&buf, "text/plain; charset=UTF-8", "", []byte(msg.TextBody))
		buf.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
		writeBase64Part(&buf, "text/html; charset=UTF-8", "", []byte(msg.HTMLBody))
		buf.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))
	}

	if len(msg.Attachments) == 0 {
		writeBodies()
		return buf.String()
	}

	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n\r\n", boundary))
	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	writeBodies()
	for _, att := range msg.Attachments {
		buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		writeBase64Part(&buf, fmt.Sprintf("%s; name=\"%s\"", contentType, att.Filename),
			fmt.Sprintf("attachment; filename=\"%s\"", att.Filename), att.Data)
	}
	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return buf.String()
}

func writeBase64Part(buf *strings.Builder, contentType, disposition string, data []byte) {
	buf.WriteString(fmt.Sprintf("Content-Type: %s\r\n", contentType))
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	if disposition != "" {
		buf.WriteString(fmt.Sprintf("Content-Disposition: %s\r\n", disposition))
	}
	buf.WriteString("\r\n")
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
}
