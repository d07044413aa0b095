// Package api is the HTTP client of the equipviz backend.
package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"equipviz.dev/backend/internal/constant"
	"equipviz.dev/backend/internal/model"
)

const DefaultBaseURL = "http://127.0.0.1:8000/api"

var summaryNumberFields = []string{"total_items", "avg_flowrate", "avg_pressure", "avg_temperature"}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
}

// Submit uploads the table read from r as filename and returns the summary
// the server computed. The deadline of ctx bounds the whole exchange.
func (c *Client) Submit(ctx context.Context, filename string, r io.Reader) (*model.Summary, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(constant.UploadFormField, filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, field := range summaryNumberFields {
		if v := gjson.GetBytes(body, field); v.Type != gjson.Number {
			return nil, &ProtocolMismatchError{Reason: "missing or non-numeric " + field}
		}
	}
	if !gjson.GetBytes(body, "type_distribution").IsObject() {
		return nil, &ProtocolMismatchError{Reason: "missing type_distribution object"}
	}

	var summary model.Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, &ProtocolMismatchError{Reason: "undecodable summary", Err: err}
	}
	return &summary, nil
}

// History lists the retained summaries, newest first. A positive limit caps
// the number of records returned.
func (c *Client) History(ctx context.Context, limit int) ([]*model.SummaryRecord, error) {
	u := c.BaseURL + "/datasets"
	if limit > 0 {
		u += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	if !gjson.ParseBytes(body).IsArray() {
		return nil, &ProtocolMismatchError{Reason: "history is not a list"}
	}

	var records []*model.SummaryRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &ProtocolMismatchError{Reason: "undecodable history", Err: err}
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err, start)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, err, start)
	}

	log.Debug().
		Str("evt.name", "client.response").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("received response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := gjson.GetBytes(body, "error").String()
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, &ServerRejectedError{
			StatusCode: resp.StatusCode,
			Code:       resp.Header.Get(constant.ErrorCodeHeader),
			Message:    message,
		}
	}
	if !gjson.ValidBytes(body) {
		return nil, &ProtocolMismatchError{Reason: "body is not JSON"}
	}

	return body, nil
}

func (c *Client) transportError(ctx context.Context, err error, start time.Time) error {
	var ne net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		var after time.Duration
		if deadline, ok := ctx.Deadline(); ok {
			after = deadline.Sub(start).Round(time.Second)
		}
		return &TimeoutError{After: after, Err: err}
	}
	return &ConnectivityError{BaseURL: c.BaseURL, Err: err}
}
