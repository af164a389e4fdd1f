package mail

// Message is a notification mail. Lead notifications are the only mail this
// service sends, so there are no attachments, embeds or copy lists.
type Message struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}

type MailSender interface {
	Send(message *Message) error
}
