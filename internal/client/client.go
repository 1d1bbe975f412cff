// Package client talks to a pixgate server from the terminal.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"pixgate/internal/captcha"
	"pixgate/internal/constants"
	"pixgate/internal/types"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client with its own cookie jar, so every request shares the
// server-side session.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}, nil
}

// FetchImages downloads every tile of the current challenge into dir and
// returns the written paths in position order.
func (c *Client) FetchImages(ctx context.Context, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	paths := make([]string, 0, constants.ChallengeSize)
	for i := 0; i < constants.ChallengeSize; i++ {
		data, err := c.FetchImage(ctx, i)
		if err != nil {
			return nil, err
		}
		p := filepath.Join(dir, fmt.Sprintf("captcha-%d%s", i, constants.ImageExtension))
		if err := os.WriteFile(p, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (c *Client) FetchImage(ctx context.Context, index int) ([]byte, error) {
	url := c.BaseURL + constants.EndpointCaptchaImage + "?index=" + strconv.Itoa(index)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image %d: %w", index, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %d: %w", index, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image %d: server returned %d: %s", index, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Refresh asks the server for a new challenge.
func (c *Client) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+constants.EndpointCaptchaRefresh, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to refresh challenge: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("refresh: server returned %d", resp.StatusCode)
	}
	return nil
}

// Send submits message with the selected tiles. An empty message fails with
// captcha.ErrMissingMessage before anything is sent.
func (c *Client) Send(ctx context.Context, message string, selected []int) (types.SendResponse, error) {
	if err := CheckMessage(message); err != nil {
		return types.SendResponse{}, err
	}
	if selected == nil {
		selected = []int{}
	}

	body, err := json.Marshal(types.SendRequest{Message: message, SelectedIndexes: selected})
	if err != nil {
		return types.SendResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+constants.EndpointSend, bytes.NewReader(body))
	if err != nil {
		return types.SendResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return types.SendResponse{}, fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	var out types.SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.SendResponse{}, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return out, nil
}

// CheckMessage rejects an empty message.
func CheckMessage(message string) error {
	if message == "" {
		return captcha.ErrMissingMessage
	}
	return nil
}

// ParseSelection turns "0 2, 5" into [0 2 5]. Every entry must be a valid
// tile position.
func ParseSelection(input string) ([]int, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		i, err := captcha.ParseIndex(f, constants.ChallengeSize)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}
