package mailwatch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog/log"
)

// Attachment is one decoded attachment of a fetched message.
type Attachment struct {
	Name string
	Data []byte
}

// Message is the plain-text body and attachments of one mail.
type Message struct {
	Body        string
	Attachments []Attachment
}

// Fetcher retrieves messages not seen by a previous poll.
type Fetcher interface {
	FetchNew(ctx context.Context) ([]Message, error)
}

// IMAPFetcher polls an IMAP inbox for unseen messages. Each poll opens a
// fresh connection; fetched messages are marked seen by the server, which
// is what keeps polls from re-delivering them.
type IMAPFetcher struct {
	Server   string
	Address  string
	Password string
}

func (f *IMAPFetcher) FetchNew(ctx context.Context) ([]Message, error) {
	c, err := client.DialTLS(f.Server, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", f.Server, err)
	}
	defer c.Logout()

	if err := c.Login(f.Address, f.Password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("selecting inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("searching unseen: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{}
	ch := make(chan *imap.Message, len(ids))
	if err := c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, ch); err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	var out []Message
	for msg := range ch {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		m, err := parseMessage(body)
		if err != nil {
			log.Error().Err(err).Uint32("seq", msg.SeqNum).Msg("parsing message failed, skipping")
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func parseMessage(r io.Reader) (Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Message{}, err
		}
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			if ct, _, _ := h.ContentType(); ct != "" && !strings.EqualFold(ct, "text/plain") {
				continue
			}
			b, err := io.ReadAll(part.Body)
			if err != nil {
				return Message{}, err
			}
			msg.Body += string(b)
		case *mail.AttachmentHeader:
			name, err := h.Filename()
			if err != nil || name == "" {
				continue
			}
			b, err := io.ReadAll(part.Body)
			if err != nil {
				return Message{}, err
			}
			msg.Attachments = append(msg.Attachments, Attachment{Name: name, Data: b})
		}
	}
	return msg, nil
}
