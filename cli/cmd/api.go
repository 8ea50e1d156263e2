// ABOUTME: HTTP helper for talking to the shopauth proxy endpoints
// ABOUTME: Sends session cookies with each call and captures rotations

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/commercekit/shopauth/models"
)

var apiHTTPClient = &http.Client{Timeout: 30 * time.Second}

// callProxy performs one proxy operation: cookies from the session file go
// up, Set-Cookie rotations come back down and are saved before returning.
func callProxy(ctx context.Context, method, path string, body interface{}) (*models.ProxyResponse, error) {
	session, err := loadSession()
	if err != nil {
		return nil, err
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, GetAPIURL()+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	session.apply(req)

	resp, err := apiHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy unreachable: %w", err)
	}
	defer resp.Body.Close()

	session.capture(resp)
	if err := session.save(); err != nil {
		return nil, err
	}

	var envelope models.ProxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode proxy response: %w", err)
	}
	return &envelope, nil
}
