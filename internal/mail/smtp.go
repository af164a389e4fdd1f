package mail

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
	CertFile string
	KeyFile  string
	CAFile   string
}

type SMTPMailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailSender(smtpConfig SMTPConfig, from string) (*SMTPMailSender, error) {
	dialer := gomail.NewDialer(smtpConfig.Host, smtpConfig.Port, smtpConfig.Username, smtpConfig.Password)
	dialer.TLSConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	if smtpConfig.TLS {
		cert, err := tls.LoadX509KeyPair(smtpConfig.CertFile, smtpConfig.KeyFile)
		if err != nil {
			return nil, err
		}

		caPool := x509.NewCertPool()
		if smtpConfig.CAFile != "" {
			caCert, err := os.ReadFile(smtpConfig.CAFile)
			if err != nil {
				return nil, err
			}
			caPool.AppendCertsFromPEM(caCert)
		}

		dialer.TLSConfig = &tls.Config{
			ServerName:         smtpConfig.Host,
			InsecureSkipVerify: true,
			Certificates:       []tls.Certificate{cert},
			RootCAs:            caPool,
		}
	}
	return &SMTPMailSender{
		dialer: dialer,
		from:   from,
	}, nil
}

func (s *SMTPMailSender) Send(message *Message) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", message.To...)
	msg.SetHeader("Subject", message.Subject)
	if message.IsHTML {
		msg.SetBody("text/html", message.Body)
	} else {
		msg.SetBody("text/plain", message.Body)
	}
	return s.dialer.DialAndSend(msg)
}
