package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/talentpulse/interview-engine/internal/domain"
)

// HTTPSource reads the mailbox over HTTP, for pollers running in a different
// process than the mailbox server.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource creates a source polling the given mailbox base URL.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Latest fetches the latest payload. An empty mailbox yields nil.
func (s *HTTPSource) Latest(ctx context.Context) (*domain.QuestionPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/receive-question", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll mailbox: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read mailbox response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mailbox error [%d]: %s", resp.StatusCode, string(body))
	}

	var payload domain.QuestionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mailbox payload: %w", err)
	}
	if payload.Empty() {
		return nil, nil
	}
	return &payload, nil
}
