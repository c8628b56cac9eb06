package services

import (
	"fmt"

	"github.com/Erebuzzz/tea-tracker/models"
	"gopkg.in/gomail.v2"
)

// Sender delivers a single email. Failures are the caller's to log; the
// notification paths treat every send as fire-and-forget.
type Sender interface {
	Send(to string, subject string, htmlBody string) error
}

// Mailer is the SMTP-backed Sender.
type Mailer struct {
	config *models.Config
	dialer *gomail.Dialer
}

// NewMailer creates an instance of Mailer from the relay settings in config.
func NewMailer(config *models.Config) *Mailer {
	dialer := gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUser, config.SMTPPassword)
	return &Mailer{config: config, dialer: dialer}
}

func (m *Mailer) Send(to string, subject string, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.EmailFrom)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

// UserLimitEmailBody is the over-limit nudge sent to the consuming user.
func UserLimitEmailBody(status *LimitStatus) string {
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	  <h2 style="color: #2d3748;">Tea Consumption Alert</h2>
	  <p>Hi there,</p>
	  <p>You have consumed <strong>%d cups</strong> of tea today, which exceeds your daily limit of <strong>%d cups</strong> for Week %d.</p>
	  <p>Remember, your goal is to gradually reduce your tea consumption according to the plan:</p>
	  <ul>
	    <li>Week 1: 3-4 cups/day</li>
	    <li>Week 2: 2-3 cups/day</li>
	    <li>Week 3: 1-2 cups/day</li>
	    <li>Week 4: 0-1 cup/day</li>
	    <li>Week 5: 0 cups/day</li>
	  </ul>
	  <p>Stay strong! You can achieve your goal!</p>
	  <p>- Tea Tracker Team</p>
	</div>`, status.TotalToday, status.MaxCups, status.Week)
}

// AdminLimitEmailBody is the alert sent to the operator address.
func AdminLimitEmailBody(user *models.User, status *LimitStatus) string {
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	  <h2 style="color: #e53e3e;">Tea Consumption Alert</h2>
	  <p>User <strong>%s</strong> has consumed %d cups of tea today.</p>
	  <p>This exceeds the limit of %d cups for week %d.</p>
	  <p>You might want to check in with them to provide support.</p>
	</div>`, user.Email, status.TotalToday, status.MaxCups, status.Week)
}

// ReminderEmailBody is the scheduled "log your tea" nudge.
func ReminderEmailBody(dashboardURL string) string {
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	  <h2 style="color: #2d3748;">Tea Tracker Reminder</h2>
	  <p>Hi there,</p>
	  <p>This is a friendly reminder to log your tea consumption in the Tea Tracker app.</p>
	  <p>Consistent tracking helps you stay accountable and achieve your goal of reducing tea consumption.</p>
	  <p><a href="%s" style="background-color: #48bb78; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block; margin-top: 10px;">Log Your Tea</a></p>
	  <p>Stay committed to your goal!</p>
	  <p>- Tea Tracker Team</p>
	</div>`, dashboardURL)
}

// FreeformAlertBody wraps a manually composed alert message.
func FreeformAlertBody(subject string, message string) string {
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	  <h2 style="color: #e53e3e;">%s</h2>
	  <p>%s</p>
	</div>`, subject, message)
}
