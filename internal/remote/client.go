// Package remote is the HTTP client for the quiz service API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// ErrNetwork matches every failed round trip: transport errors and non-2xx
// responses alike.
var ErrNetwork = errors.New("quiz service unreachable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Is lets errors.Is(err, ErrNetwork) hold for status failures too.
func (e *APIError) Is(target error) bool {
	return target == ErrNetwork
}

type errorResponse struct {
	Message string `json:"message"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080/api"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

func (c *Client) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := c.doJSON(ctx, http.MethodGet, "/subjects", nil, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (c *Client) GetSubject(ctx context.Context, subjectID uint) (*models.Subject, error) {
	var subject models.Subject
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/subjects/%d", subjectID), nil, &subject); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListQuestions returns the subject's questions without answers, in grading order.
func (c *Client) ListQuestions(ctx context.Context, subjectID uint) ([]models.PublicQuestion, error) {
	var questions []models.PublicQuestion
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/subjects/%d/questions", subjectID), nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *Client) Check(ctx context.Context, subjectID uint, req *models.CheckRequest) (*models.CheckResponse, error) {
	var resp models.CheckResponse
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/subjects/%d/check", subjectID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Message) != "" {
			apiErr.Message = payload.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
	}
	return nil
}
