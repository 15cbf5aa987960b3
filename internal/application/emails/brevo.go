package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender   `json:"sender"`
	To          []BrevoTo     `json:"to"`
	Subject     string        `json:"subject"`
	HTMLContent string        `json:"htmlContent"`
	ReplyTo     *BrevoReplyTo `json:"replyTo,omitempty"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BrevoReplyTo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DepositAlert is what staff need to review a new deposit.
type DepositAlert struct {
	UserName      string
	UserEmail     string
	Amount        string
	Currency      string
	WalletAddress string
	Network       string
	TransactionID string
}

// Sender sends transactional emails. Callers log and drop send errors.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, fullName string) error
	SendDepositAlert(ctx context.Context, toEmail string, d DepositAlert) error
	SendSignalExpiring(ctx context.Context, toEmail, fullName string, hoursLeft int) error
	SendSignalExpired(ctx context.Context, toEmail, fullName string) error
}

// BrevoClient sends emails via the Brevo (Sendinblue) API. An empty APIKey
// turns every send into a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	SiteURL  string
	Endpoint string // defaults to the Brevo v3 SMTP endpoint
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@coinease.io"
}

func (c *BrevoClient) site() string {
	if c.SiteURL != "" {
		return c.SiteURL
	}
	return "https://coinease.io"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

// send sends one email via Brevo API.
func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "CoinEase"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoReplyTo{Email: "support@coinease.io", Name: "CoinEase Support"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

func greetingName(fullName string) string {
	if fullName == "" {
		return "there"
	}
	return fullName
}

func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, fullName string) error {
	return c.send(ctx, toEmail, "Welcome to CoinEase", EmailLayout(welcomeContent(greetingName(fullName), c.site())))
}

// SendDepositAlert tells staff a deposit is waiting for review.
func (c *BrevoClient) SendDepositAlert(ctx context.Context, toEmail string, d DepositAlert) error {
	if toEmail == "" {
		return fmt.Errorf("deposit alert: no admin email configured")
	}
	subject := fmt.Sprintf("Deposit Alert: %s (%s)", d.UserName, d.UserEmail)
	return c.send(ctx, toEmail, subject, EmailLayout(depositAlertContent(d)))
}

func (c *BrevoClient) SendSignalExpiring(ctx context.Context, toEmail, fullName string, hoursLeft int) error {
	subject := fmt.Sprintf("Signal Plan Expiring Soon - %d hours left", hoursLeft)
	return c.send(ctx, toEmail, subject, EmailLayout(signalExpiringContent(greetingName(fullName), hoursLeft, c.site())))
}

func (c *BrevoClient) SendSignalExpired(ctx context.Context, toEmail, fullName string) error {
	return c.send(ctx, toEmail, "Signal Plan Expired", EmailLayout(signalExpiredContent(greetingName(fullName), c.site())))
}

func welcomeContent(userName, siteURL string) string {
	return fmt.Sprintf(`
    <h1>Welcome to CoinEase, %s!</h1>
    <p>Your account has been created successfully. Fund your balance with a crypto deposit to start investing.</p>
    <center>
      <a href="%s/dashboard" class="ce-button">Go to your dashboard</a>
    </center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">
      If you did not sign up for this account, please contact our support team immediately.
    </p>
`, EscapeHTML(userName), siteURL)
}

func depositAlertContent(d DepositAlert) string {
	return fmt.Sprintf(`
    <h1>New deposit awaiting review</h1>
    <p><strong>%s</strong> (%s) reported a deposit.</p>
    <p>Amount: <strong>%s %s</strong><br>
    Wallet: %s<br>
    Network: %s<br>
    Transaction: %s</p>
`, EscapeHTML(d.UserName), EscapeHTML(d.UserEmail), EscapeHTML(d.Amount), EscapeHTML(d.Currency),
		EscapeHTML(d.WalletAddress), EscapeHTML(d.Network), EscapeHTML(d.TransactionID))
}

func signalExpiringContent(userName string, hoursLeft int, siteURL string) string {
	return fmt.Sprintf(`
    <h1>Your signal plan is about to expire</h1>
    <p>Hi %s,</p>
    <p>Your signal plan expires in about <strong>%d hours</strong>. Investment payouts pause once it lapses.</p>
    <center>
      <a href="%s/signals" class="ce-button">Renew your plan</a>
    </center>
`, EscapeHTML(userName), hoursLeft, siteURL)
}

func signalExpiredContent(userName, siteURL string) string {
	return fmt.Sprintf(`
    <h1>Your signal plan has expired</h1>
    <p>Hi %s,</p>
    <p>Your signal strength has been reset to level 1. Payouts on your investments are paused until you upgrade again.</p>
    <center>
      <a href="%s/signals" class="ce-button">Upgrade now</a>
    </center>
`, EscapeHTML(userName), siteURL)
}
