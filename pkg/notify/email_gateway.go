package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EmailGateway sends transactional email through an HTTP mail API
type EmailGateway struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

// EmailConfig holds configuration for the email gateway
type EmailConfig struct {
	APIURL string
	APIKey string
	From   string
}

// NewEmailGateway creates a new email gateway client
func NewEmailGateway(config EmailConfig) *EmailGateway {
	return &EmailGateway{
		apiURL: config.APIURL,
		apiKey: config.APIKey,
		from:   config.From,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// sendMessageRequest is the mail API request structure
type sendMessageRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// sendMessageResponse is the mail API response structure
type sendMessageResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SendVerificationCode delivers a claim verification code by email
func (g *EmailGateway) SendVerificationCode(destination, code, businessName string) error {
	subject := fmt.Sprintf("Your verification code for %s", businessName)
	text := fmt.Sprintf(
		"Your NumTrip verification code for %s is: %s\n\nThe code expires in one hour. If you did not request this, you can ignore this message.",
		businessName, code,
	)
	return g.send(destination, subject, text)
}

// SendApprovalNotice informs a claimant that their claim was approved
func (g *EmailGateway) SendApprovalNotice(destination, businessName string) error {
	subject := "Your business claim was approved"
	text := fmt.Sprintf(
		"Congratulations! Your claim for %s has been approved. You can now manage the listing from your NumTrip dashboard.",
		businessName,
	)
	return g.send(destination, subject, text)
}

func (g *EmailGateway) send(to, subject, text string) error {
	payload := sendMessageRequest{
		From:    g.from,
		To:      to,
		Subject: subject,
		Text:    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.apiURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read email response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp sendMessageResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("failed to parse email response: %w", err)
	}

	if apiResp.Status != "" && apiResp.Status != "queued" && apiResp.Status != "sent" {
		return fmt.Errorf("email API rejected message: %s (%s)", apiResp.Status, apiResp.Message)
	}

	return nil
}
