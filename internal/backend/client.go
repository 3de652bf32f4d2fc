// Package backend provides the HTTP client for the external interview backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/talentpulse/interview-engine/internal/domain"
)

// Client is the interview backend client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backend client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StartRequest is the request body for starting an interview.
type StartRequest struct {
	Role            string `json:"role"`
	Level           string `json:"level"`
	DurationMinutes int    `json:"durationMinutes"`
}

// StartResponse is the response to a start request. The initial question
// payload is optional; some backends deliver the first question through the
// mailbox instead.
type StartResponse struct {
	SessionID       string                  `json:"sessionId"`
	Messages        []string                `json:"messages,omitempty"`
	QuestionPayload *domain.QuestionPayload `json:"questionPayload,omitempty"`
}

type submitAnswerRequest struct {
	SessionID string `json:"sessionId"`
	Answer    string `json:"answer"`
}

type submitAnswerResponse struct {
	NewState struct {
		QuestionPayload *domain.QuestionPayload `json:"questionPayload"`
	} `json:"new_state"`
}

type endInterviewRequest struct {
	SessionID string `json:"sessionId"`
}

type endInterviewResponse struct {
	Data struct {
		QuestionPayload *domain.QuestionPayload `json:"questionPayload"`
	} `json:"data"`
}

type handleTimeoutRequest struct {
	SessionID     string `json:"sessionId"`
	PartialAnswer string `json:"partialAnswer"`
}

// TimeoutDecision is the backend's reaction to an expired question countdown.
type TimeoutDecision struct {
	Hint     string `json:"hint,omitempty"`
	Decision string `json:"decision,omitempty"`
}

// DecisionStopAnswering tells the client to submit whatever partial answer
// it has.
const DecisionStopAnswering = "stop_answering"

type handleTimeoutResponse struct {
	Data TimeoutDecision `json:"data"`
}

type partialAnswerRequest struct {
	UserID        string `json:"user_id"`
	TestID        string `json:"test_id"`
	QuestionID    string `json:"question_id"`
	PartialAnswer string `json:"partial_answer"`
	IsComplete    bool   `json:"is_complete"`
}

type partialAnswerResponse struct {
	Data domain.Evaluation `json:"data"`
}

// StartInterview starts a new interview session.
func (c *Client) StartInterview(ctx context.Context, req *StartRequest) (*StartResponse, error) {
	var resp StartResponse
	if err := c.post(ctx, "/interview/start", req, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("start response missing sessionId")
	}
	return &resp, nil
}

// SubmitAnswer submits an answer and returns the next question payload, if
// the backend produced one inline.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, answer string) (*domain.QuestionPayload, error) {
	var resp submitAnswerResponse
	req := &submitAnswerRequest{SessionID: sessionID, Answer: answer}
	if err := c.post(ctx, "/interview/submit-answer", req, &resp); err != nil {
		return nil, err
	}
	return resp.NewState.QuestionPayload, nil
}

// EndInterview ends the session and returns the backend's closing payload.
func (c *Client) EndInterview(ctx context.Context, sessionID string) (*domain.QuestionPayload, error) {
	var resp endInterviewResponse
	req := &endInterviewRequest{SessionID: sessionID}
	if err := c.post(ctx, "/interview/end-interview", req, &resp); err != nil {
		return nil, err
	}
	return resp.Data.QuestionPayload, nil
}

// HandleTimeout reports an expired question countdown along with whatever
// partial answer the candidate had typed.
func (c *Client) HandleTimeout(ctx context.Context, sessionID, partialAnswer string) (*TimeoutDecision, error) {
	var resp handleTimeoutResponse
	req := &handleTimeoutRequest{SessionID: sessionID, PartialAnswer: partialAnswer}
	if err := c.post(ctx, "/interview/handle-timeout", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// EvaluatePartialAnswer scores an in-progress answer against the current
// question.
func (c *Client) EvaluatePartialAnswer(ctx context.Context, userID, testID, questionID, partialAnswer string) (*domain.Evaluation, error) {
	var resp partialAnswerResponse
	req := &partialAnswerRequest{
		UserID:        userID,
		TestID:        testID,
		QuestionID:    questionID,
		PartialAnswer: partialAnswer,
		IsComplete:    false,
	}
	if err := c.post(ctx, "/chat/partial-answer", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// post sends a JSON POST request and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend error [%d] on %s: %s", resp.StatusCode, path, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response from %s: %w", path, err)
	}
	return nil
}
