package notify

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// MailerConfig carries SMTP settings plus the single administrative
// notification address.
type MailerConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminEmail string
}

// Mailer is the SMTP sink. One event can fan out to up to three mails
// (donor, recipient, admin); each send failure is reported but does
// not stop the others.
type Mailer struct {
	cfg    MailerConfig
	dialer *gomail.Dialer
}

func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

type mail struct {
	to      string
	subject string
	body    string
}

func (m *Mailer) Deliver(evt Event) error {
	var firstErr error
	for _, msg := range m.compose(evt) {
		if msg.to == "" {
			continue
		}
		gm := gomail.NewMessage()
		gm.SetHeader("From", m.cfg.From)
		gm.SetHeader("To", msg.to)
		gm.SetHeader("Subject", msg.subject)
		gm.SetBody("text/html", msg.body)
		if err := m.dialer.DialAndSend(gm); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("send to %s: %w", msg.to, err)
		}
	}
	return firstErr
}

func (m *Mailer) compose(evt Event) []mail {
	donorName, donorEmail := partyOrUnknown(evt.Donor)
	recipientName, recipientEmail := partyOrUnknown(evt.Recipient)
	expiry := evt.ExpiryDate.Format("02 Jan 2006")

	switch evt.Type {
	case EventDonationRecorded:
		return []mail{
			{
				to:      donorEmail,
				subject: "Donation Successful - MedShare",
				body: fmt.Sprintf(
					"<h2>Thank you, %s!</h2><p>Your donation of <strong>%s</strong> (%d units, expires %s) has been recorded.</p>",
					donorName, evt.MedicineName, evt.Quantity, expiry),
			},
			{
				to:      m.cfg.AdminEmail,
				subject: "New Donation Submitted - MedShare",
				body: fmt.Sprintf(
					"<h2>New Donation</h2><ul><li><strong>Donor:</strong> %s (%s)</li><li><strong>Medicine:</strong> %s</li><li><strong>Quantity:</strong> %d</li><li><strong>Expiry:</strong> %s</li></ul>",
					donorName, donorEmail, evt.MedicineName, evt.Quantity, expiry),
			},
		}
	case EventRequestCreated:
		return []mail{
			{
				to:      donorEmail,
				subject: "Someone Requested Your Donation - MedShare",
				body: fmt.Sprintf(
					"<h2>Hello %s</h2><p><strong>%s</strong> requested your donated medicine <strong>%s</strong> (%d units in stock).</p>",
					donorName, recipientName, evt.MedicineName, evt.Quantity),
			},
			{
				to:      recipientEmail,
				subject: "Request Submitted - MedShare",
				body: fmt.Sprintf(
					"<h2>Hello %s</h2><p>Your request for <strong>%s</strong> donated by %s was submitted and is awaiting admin approval.</p>",
					recipientName, evt.MedicineName, donorName),
			},
			{
				to:      m.cfg.AdminEmail,
				subject: "New Request Submitted - MedShare",
				body: fmt.Sprintf(
					"<h2>New Request</h2><ul><li><strong>Recipient:</strong> %s (%s)</li><li><strong>Donor:</strong> %s (%s)</li><li><strong>Medicine:</strong> %s</li></ul>",
					recipientName, recipientEmail, donorName, donorEmail, evt.MedicineName),
			},
		}
	case EventRequestApproved:
		return []mail{
			{
				to:      recipientEmail,
				subject: "Request Approved - MedShare",
				body: fmt.Sprintf(
					"<h2 style=\"color:#2b8a3e\">Request Approved</h2><p>Dear %s, your request for <strong>%s</strong> was approved.</p>",
					recipientName, evt.MedicineName),
			},
			{
				to:      donorEmail,
				subject: "Your Donation Request Approved - MedShare",
				body: fmt.Sprintf(
					"<h2 style=\"color:#2b8a3e\">Request Approved</h2><p>A request for your donated medicine <strong>%s</strong> was approved.</p>",
					evt.MedicineName),
			},
			{
				to:      m.cfg.AdminEmail,
				subject: "Admin Confirmation: Request Approved - MedShare",
				body: fmt.Sprintf(
					"<h2 style=\"color:#2b8a3e\">Request Approved</h2><ul><li><strong>Medicine:</strong> %s</li><li><strong>Recipient:</strong> %s (%s)</li></ul>",
					evt.MedicineName, recipientName, recipientEmail),
			},
		}
	case EventRequestRejected:
		return []mail{
			{
				to:      recipientEmail,
				subject: "Request Rejected - MedShare",
				body: fmt.Sprintf(
					"<h2 style=\"color:#dc2626\">Request Rejected</h2><p>Dear %s, your request for <strong>%s</strong> was rejected. The medicine is back in the available pool.</p>",
					recipientName, evt.MedicineName),
			},
			{
				to:      m.cfg.AdminEmail,
				subject: "Admin Confirmation: Request Rejected - MedShare",
				body: fmt.Sprintf(
					"<h2 style=\"color:#dc2626\">Request Rejected</h2><ul><li><strong>Medicine:</strong> %s</li><li><strong>Recipient:</strong> %s (%s)</li></ul>",
					evt.MedicineName, recipientName, recipientEmail),
			},
		}
	case EventExpiringSoon:
		return []mail{
			{
				to:      donorEmail,
				subject: "Expiry Reminder - MedShare",
				body: fmt.Sprintf(
					"<h2>Medicine Nearing Expiry</h2><p>Dear %s, your donation is nearing expiry in %d day(s).</p><ul><li><strong>Medicine:</strong> %s</li><li><strong>Quantity:</strong> %d</li><li><strong>Expiry:</strong> %s</li></ul>",
					donorName, evt.DaysLeft, evt.MedicineName, evt.Quantity, expiry),
			},
			{
				to:      m.cfg.AdminEmail,
				subject: "Inventory Expiry Reminder - MedShare",
				body: fmt.Sprintf(
					"<h2>Inventory Expiry Reminder</h2><p>A medicine is nearing expiry in %d day(s).</p><ul><li><strong>Medicine:</strong> %s</li><li><strong>Quantity:</strong> %d</li><li><strong>Expiry:</strong> %s</li><li><strong>Donor:</strong> %s (%s)</li></ul>",
					evt.DaysLeft, evt.MedicineName, evt.Quantity, expiry, donorName, donorEmail),
			},
		}
	}
	return nil
}

func partyOrUnknown(p *Party) (name, email string) {
	if p == nil {
		return "Unknown", ""
	}
	name = p.Name
	if name == "" {
		name = "Unknown"
	}
	return name, p.Email
}
