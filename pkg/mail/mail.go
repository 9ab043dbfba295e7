package mail

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"learnhub-backend/pkg/logger"
)

// Service sends transactional notification mail. Implementations must not
// block the caller on delivery.
type Service interface {
	Send(toName, toEmail, subject, htmlBody string)
}

// ========== SENDGRID ==========

type sendgridService struct {
	key  string
	from *sgmail.Email
}

func NewSendgridService(key, fromName, fromEmail string) Service {
	return &sendgridService{
		key:  key,
		from: sgmail.NewEmail(fromName, fromEmail),
	}
}

func (s *sendgridService) Send(toName, toEmail, subject, htmlBody string) {
	go func() {
		to := sgmail.NewEmail(toName, toEmail)
		msg := sgmail.NewSingleEmail(s.from, subject, to, "", htmlBody)

		req := sendgrid.GetRequest(s.key, "/v3/mail/send", "https://api.sendgrid.com")
		req.Method = http.MethodPost
		req.Body = sgmail.GetRequestBody(msg)

		resp, err := sendgrid.API(req)
		if err != nil {
			logger.Log.Error("sendgrid request failed", zap.Error(err), zap.String("to", toEmail))
			return
		}
		if resp.StatusCode >= 400 {
			logger.Log.Error("sendgrid rejected message",
				zap.Int("status", resp.StatusCode),
				zap.String("to", toEmail))
		}
	}()
}

// ========== CONSOLE (dev fallback) ==========

type consoleService struct{}

// NewConsoleService returns a Service that only logs; used when no
// sendgrid key is configured.
func NewConsoleService() Service {
	return consoleService{}
}

func (consoleService) Send(toName, toEmail, subject, htmlBody string) {
	logger.Log.Info("mail (console)",
		zap.String("to", fmt.Sprintf("%s <%s>", toName, toEmail)),
		zap.String("subject", subject))
}
