package emailsvc

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

const sendAttempts = 3

type sendgridService struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
	logger     core.Logger
	backoff    time.Duration
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.Mail.From()
	return &sendgridService{
		client:     sendgrid.NewSendClient(conf.Mail.SendgridAPIKey),
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		backoff:    time.Second,
	}
}

// NewService picks sendgrid when an api key is configured, the console otherwise.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Mail.SendgridAPIKey == "" {
		return NewConsoleService(conf, logger)
	}
	return NewSendgridService(conf, logger)
}

func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			if deliverable(msg, svc.logger) {
				svc.send(svc.build(*msg))
			}
		}(msg)
	}
}

func (svc *sendgridService) build(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail().SetFrom(svc.from).AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	for _, at := range msg.Attachments {
		m.AddAttachment(sgmail.NewAttachment().
			SetContent(at.Content.String()).
			SetType(at.ContentType).
			SetFilename(at.Filename).
			SetDisposition("attachment"))
	}
	return m
}

// send retries on network errors, throttling and server errors.
func (svc *sendgridService) send(m *sgmail.SGMailV3) {
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		res, err := svc.client.Send(m)
		switch {
		case err != nil:
			svc.logger.Warn(fmt.Sprintf("sending email (attempt %d): %v", attempt, err), err)
		case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
			svc.logger.Warn(fmt.Sprintf("sending email (attempt %d): status %d", attempt, res.StatusCode))
		case res.StatusCode >= http.StatusBadRequest:
			svc.logger.Error(fmt.Sprintf("sending email - status: %d - body: %s", res.StatusCode, res.Body))
			return
		default:
			return
		}
		time.Sleep(time.Duration(attempt) * svc.backoff)
	}
	svc.logger.Error(fmt.Sprintf("sending email: giving up after %d attempts", sendAttempts))
}
