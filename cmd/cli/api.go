package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// envelope is the api-server response shape for every screen.
type envelope[T any] struct {
	Data      T      `json:"data"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// APIError is a failed screen as the server rendered it.
type APIError struct {
	Status    int
	Message   string
	Retryable bool
}

func (e *APIError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("%s (HTTP %d, retry later)", e.Message, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func getData[T any](ctx context.Context, client *http.Client, endpoint string) (T, error) {
	var env envelope[T]
	err := doJSON(ctx, client, http.MethodGet, endpoint, &env)
	return env.Data, err
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var env envelope[json.RawMessage]
		if json.Unmarshal(data, &env) == nil && env.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: env.Error, Retryable: env.Retryable}
		}
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func endpointURL(baseURL, path string, params url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + path)
	if err != nil {
		return "", err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String(), nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}
