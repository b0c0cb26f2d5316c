package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dkorchagin/activation/internal/common"
	"github.com/dkorchagin/activation/internal/logging"
)

const retryInterval = 500 * time.Millisecond

// HTTPMailer posts activation codes to an HTTP mail gateway
// (POST {base}/send with a JSON payload). Attempts are bounded; once the
// budget is spent the failure surfaces as common.ErrMailDelivery.
type HTTPMailer struct {
	baseURL     string
	client      *http.Client
	maxAttempts int
	log         logging.Logger
}

type sendPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewHTTPMailer builds a mailer for the gateway at baseURL. maxAttempts
// counts the first try as well; values below 1 are raised to 1.
func NewHTTPMailer(baseURL string, timeout time.Duration, maxAttempts int, log logging.Logger) *HTTPMailer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &HTTPMailer{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// SendCode delivers the code, retrying transient failures on a constant
// interval until the attempt budget runs out.
func (m *HTTPMailer) SendCode(ctx context.Context, email, code string) error {
	body, err := json.Marshal(sendPayload{
		To:      email,
		Subject: "Activation Code",
		Body:    fmt.Sprintf("Your activation code is %s", code),
	})
	if err != nil {
		return fmt.Errorf("encoding mail payload: %w", err)
	}

	backoff := retry.WithMaxRetries(uint64(m.maxAttempts-1), retry.NewConstant(retryInterval))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := m.post(ctx, body); err != nil {
			m.log.Warn(ctx, "mail send attempt failed", "to", email, "error", err.Error())
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrMailDelivery, err)
	}
	return nil
}

func (m *HTTPMailer) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail gateway responded %d", resp.StatusCode)
	}
	return nil
}
