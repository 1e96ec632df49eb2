package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

type Config struct {
	Server   string
	Port     string
	Username string
	Password string
	From     string
}

// Job is the wire format of one queued email, published to the mail_jobs
// topic and delivered by the worker.
type Job struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type Client struct {
	cfg  Config
	auth smtp.Auth
}

func New(cfg Config) *Client {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Server)
	}
	return &Client{cfg: cfg, auth: auth}
}

func (c *Client) Send(job Job) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(job.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", job.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(job.HTML)

	addr := c.cfg.Server + ":" + c.cfg.Port
	return smtp.SendMail(addr, c.auth, c.cfg.From, job.To, []byte(b.String()))
}

func VerificationJob(email, username, link string) Job {
	html := fmt.Sprintf(`<h1>Verify your Bookly account</h1>
<p>Hi %s,</p>
<p>Click on this <a href="%s">link</a> to verify your account.</p>`, username, link)

	return Job{To: []string{email}, Subject: "Verify Your Bookly Account", HTML: html}
}

func PasswordResetJob(email, link string) Job {
	html := fmt.Sprintf(`<h1>Reset your password</h1>
<p>Click on this <a href="%s">link</a> to reset your password.</p>`, link)

	return Job{To: []string{email}, Subject: "Reset Your Password", HTML: html}
}

func WelcomeJob(emails []string) Job {
	html := `<h1>Welcome to Bookly</h1>
<h2>A REST API for a book review web service</h2>`

	return Job{To: emails, Subject: "Welcome", HTML: html}
}
