// internal/notify/notify.go
package notify

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"kitchenback/internal/checklist"
	"kitchenback/internal/logger"
)

// This package implements checklist.Sink. The core only produces the
// notification value object; everything past that boundary (sound, toast,
// mail) is delivery detail and lives here.

// LogSink writes alerts to the server log. Always on.
type LogSink struct{}

func (LogSink) Deliver(n checklist.Notification) error {
	logger.LogWarn("ALERT [%s] %s | workshop: %s | checklist: %s",
		n.Severity, n.Text, n.Workshop, n.ChecklistName)
	return nil
}

// EmailConfig holds alert email settings.
type EmailConfig struct {
	AlertRecipient string
	AlertSender    string
	Enabled        bool
	MockMode       bool
}

// LoadEmailConfig loads alert email configuration from environment variables.
func LoadEmailConfig() EmailConfig {
	return EmailConfig{
		AlertRecipient: getEnvOrDefault("EMAIL_ALERT_RECIPIENT", "chef@yourrestaurant.org"),
		AlertSender:    getEnvOrDefault("EMAIL_ALERT_SENDER", "alerts@yourrestaurant.org"),
		Enabled:        getEnvOrDefault("SEND_ALERT_EMAILS", "false") == "true",
		MockMode:       getEnvOrDefault("EMAIL_MOCK_MODE", "false") == "true",
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// EmailSink mails critical alerts to the configured recipient.
type EmailSink struct {
	Config EmailConfig
}

func (s EmailSink) Deliver(n checklist.Notification) error {
	if !s.Config.Enabled {
		return nil
	}

	subject := fmt.Sprintf("[%s] %s — %s", strings.ToUpper(string(n.Severity)), n.Workshop, n.ChecklistName)
	body := fmt.Sprintf("%s\n\nWorkshop: %s\nChecklist: %s\n", n.Text, n.Workshop, n.ChecklistName)

	return sendMail(s.Config, s.Config.AlertRecipient, s.Config.AlertSender, subject, body)
}

// sendMail sends an email using sendmail or logs it in mock mode
func sendMail(config EmailConfig, to, from, subject, body string) error {
	if config.MockMode {
		logger.LogInfo("========== MOCK EMAIL ==========")
		logger.LogInfo("To: %s", to)
		logger.LogInfo("From: %s", from)
		logger.LogInfo("Subject: %s", subject)
		for _, line := range strings.Split(body, "\n") {
			logger.LogInfo("   %s", line)
		}
		logger.LogInfo("================================")
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
	}

	message := strings.Join(headers, "\r\n") + body
	cmd := exec.Command("/usr/sbin/sendmail", "-t")
	cmd.Stdin = bytes.NewBufferString(message)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("sendmail command failed: %w", err)
	}

	return nil
}
