package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultBaseURL is the Postmark API endpoint.
const DefaultBaseURL = "https://api.postmarkapp.com"

// Client sends transactional mail through the Postmark HTTP API.
type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = u
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     DefaultBaseURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendMagicLink sends the one-time sign-in link.
func (c *Client) SendMagicLink(toEmail, linkURL string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	subject := "Votre lien de connexion — Nos limites"
	htmlBody := fmt.Sprintf(
		`<p>Bonjour,</p>
<p>Cliquez sur ce lien pour vous connecter à Nos limites :</p>
<p><a href="%s">Se connecter</a></p>
<p>Ce lien expire dans 15 minutes et ne peut être utilisé qu'une seule fois.</p>
<p>Si vous n'êtes pas à l'origine de cette demande, ignorez simplement ce message.</p>`,
		linkURL)
	textBody := fmt.Sprintf(
		"Bonjour,\n\nOuvrez ce lien pour vous connecter à Nos limites :\n\n%s\n\n"+
			"Ce lien expire dans 15 minutes et ne peut être utilisé qu'une seule fois.\n\n"+
			"Si vous n'êtes pas à l'origine de cette demande, ignorez simplement ce message.\n",
		linkURL)

	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

func (c *Client) send(email postmarkEmail) error {
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark returned %d", resp.StatusCode)
	}

	return nil
}
