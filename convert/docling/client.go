// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package docling talks to a Docling-compatible conversion service over
// its async HTTP API and drives jobs to completion with JobRunner.
package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/poiesic/doctalk/convert"
)

// DefaultCallTimeout bounds each individual HTTP call to the service.
const DefaultCallTimeout = 120 * time.Second

// Client is a thin wrapper over the service's three async endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultCallTimeout},
		logger:     slog.Default().With("component", "docling_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// submitResponse is the async submission acknowledgement.
type submitResponse struct {
	TaskId string `json:"task_id"`
}

// StatusResponse is the poll endpoint's payload.
type StatusResponse struct {
	TaskId     string    `json:"task_id"`
	TaskStatus string    `json:"task_status"`
	TaskMeta   *TaskMeta `json:"task_meta,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// TaskMeta carries task-level metadata: the service's own conversion
// counters and, on failure, a detail string.
type TaskMeta struct {
	NumProcessed int    `json:"num_processed"`
	NumDocs      int    `json:"num_docs"`
	Error        string `json:"error,omitempty"`
}

// ResultResponse is the result endpoint's payload.
type ResultResponse struct {
	Document *DocumentPayload `json:"document,omitempty"`
	Errors   []ResultError    `json:"errors,omitempty"`
}

// ResultError is one structured error from the result endpoint.
type ResultError struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// DocumentPayload holds the converted document in the formats the
// service produced.
type DocumentPayload struct {
	MdContent   string `json:"md_content,omitempty"`
	TextContent string `json:"text_content,omitempty"`
	HtmlContent string `json:"html_content,omitempty"`
}

// Submit posts the file for async conversion and returns the task id.
// The request is multipart: the file under "files" plus the fixed
// options document as a JSON part.
func (c *Client) Submit(ctx context.Context, data []byte, filename string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filePart, err := writer.CreateFormFile("files", filename)
	if err != nil {
		return "", &convert.SubmissionError{Message: err.Error(), Err: err}
	}
	if _, err := filePart.Write(data); err != nil {
		return "", &convert.SubmissionError{Message: err.Error(), Err: err}
	}

	optionsJSON, err := json.Marshal(defaultConversionOptions())
	if err != nil {
		return "", &convert.SubmissionError{Message: err.Error(), Err: err}
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="options"; filename="options.json"`)
	header.Set("Content-Type", "application/json")
	optionsPart, err := writer.CreatePart(header)
	if err != nil {
		return "", &convert.SubmissionError{Message: err.Error(), Err: err}
	}
	if _, err := optionsPart.Write(optionsJSON); err != nil {
		return "", &convert.SubmissionError{Message: err.Error(), Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &convert.SubmissionError{Message: err.Error(), Err: err}
	}

	url := c.baseURL + "/v1/convert/file/async"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", &convert.SubmissionError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &convert.SubmissionError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &convert.SubmissionError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(detail)),
		}
	}

	var ack submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", &convert.SubmissionError{Message: "decoding submission response: " + err.Error(), Err: err}
	}
	if ack.TaskId == "" {
		return "", &convert.SubmissionError{Message: "submission response carried no task_id"}
	}

	c.logger.Debug("Conversion task submitted", "task_id", ack.TaskId, "filename", filename)
	return ack.TaskId, nil
}

// Status polls the task's current status.
func (c *Client) Status(ctx context.Context, taskId string) (*StatusResponse, error) {
	var status StatusResponse
	if err := c.getJSON(ctx, "/v1/status/poll/"+taskId, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Result fetches the task's result payload.
func (c *Client) Result(ctx context.Context, taskId string) (*ResultResponse, error) {
	var result ResultResponse
	if err := c.getJSON(ctx, "/v1/result/"+taskId, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
