package imap

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	tvtrader "github.com/wouterman/tvtrader-sub001"
)

const fetchBatchSize = 10

type Config struct {
	Address        string
	Username       string
	Password       string
	Mailbox        string
	ExpectedSender string
}

// Client reads trading signal mails over IMAP. Every fetch opens a fresh
// session so a dropped connection never outlives one polling cycle. Only
// unseen mails from the expected sender are returned, and returned mails
// are flagged seen so the next cycle skips them.
type Client struct {
	config *Config
	logger tvtrader.Logger
}

func NewClient(config *Config, logger tvtrader.Logger) *Client {
	return &Client{config, logger}
}

func (c *Client) FetchSubjectLines(ctx context.Context) ([]string, error) {
	connection, err := client.DialTLS(c.config.Address, nil)
	if err != nil {
		return nil, fmt.Errorf("could not dial mail server: [%v]", err)
	}
	defer func() {
		_ = connection.Logout()
	}()

	err = connection.Login(c.config.Username, c.config.Password)
	if err != nil {
		return nil, fmt.Errorf("could not log in to mail server: [%v]", err)
	}

	mailbox := c.config.Mailbox
	if len(mailbox) == 0 {
		mailbox = "INBOX"
	}

	if _, err := connection.Select(mailbox, false); err != nil {
		return nil, fmt.Errorf(
			"could not select mailbox [%v]: [%v]",
			mailbox,
			err,
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Header.Add("From", c.config.ExpectedSender)

	sequenceNumbers, err := connection.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not search mailbox: [%v]", err)
	}

	if len(sequenceNumbers) == 0 {
		return nil, nil
	}

	sequenceSet := new(imap.SeqSet)
	sequenceSet.AddNum(sequenceNumbers...)

	messages := make(chan *imap.Message, fetchBatchSize)
	fetchDone := make(chan error, 1)

	go func() {
		fetchDone <- connection.Fetch(
			sequenceSet,
			[]imap.FetchItem{imap.FetchEnvelope},
			messages,
		)
	}()

	subjects := make([]string, 0, len(sequenceNumbers))
	for message := range messages {
		if message.Envelope == nil {
			continue
		}

		subjects = append(subjects, message.Envelope.Subject)
	}

	if err := <-fetchDone; err != nil {
		return nil, fmt.Errorf("could not fetch mail envelopes: [%v]", err)
	}

	err = connection.Store(
		sequenceSet,
		imap.FormatFlagsOp(imap.AddFlags, true),
		[]interface{}{imap.SeenFlag},
		nil,
	)
	if err != nil {
		// Subjects were already read; a failed flag update only means the
		// next cycle sees them again.
		c.logger.Warningf("could not flag fetched mails as seen: [%v]", err)
	}

	return subjects, nil
}
