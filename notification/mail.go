package notification

import (
	tvtrader "github.com/wouterman/tvtrader-sub001"
	"gopkg.in/mail.v2"
)

type MailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Recipient string
}

// MailService is an event service delivering engine events straight to the
// operator's mailbox over SMTP.
type MailService struct {
	config *MailConfig
	logger tvtrader.Logger
}

func NewMailService(
	config *MailConfig,
	logger tvtrader.Logger,
) *MailService {
	return &MailService{config, logger}
}

func (ms *MailService) Publish(event *tvtrader.Event) {
	go func() {
		if err := ms.send(event); err != nil {
			ms.logger.WithFields(map[string]interface{}{
				"exchange": event.Exchange,
				"account":  event.Account,
			}).Errorf("could not send notification mail: [%v]", err)
		}
	}()
}

func (ms *MailService) send(event *tvtrader.Event) error {
	message := mail.NewMessage()
	message.SetHeader("From", ms.config.Username)
	message.SetHeader("To", ms.config.Recipient)
	message.SetHeader(
		"Subject",
		"tvtrader notification: "+event.Exchange+"/"+event.Account,
	)
	message.SetBody("text/plain", event.Payload)

	dialer := mail.NewDialer(
		ms.config.Host,
		ms.config.Port,
		ms.config.Username,
		ms.config.Password,
	)

	return dialer.DialAndSend(message)
}
