package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Verification is the outcome of checking a client key
type Verification struct {
	Valid bool
	Code  string
}

// KeyVerifier checks client bearer keys against a key-management service
type KeyVerifier interface {
	VerifyKey(ctx context.Context, key string) (Verification, error)
}

// KeyVerifierFunc adapts a function to KeyVerifier
type KeyVerifierFunc func(ctx context.Context, key string) (Verification, error)

func (f KeyVerifierFunc) VerifyKey(ctx context.Context, key string) (Verification, error) {
	return f(ctx, key)
}

// UnkeyVerifier verifies keys with Unkey's keys.verifyKey endpoint
type UnkeyVerifier struct {
	client  *http.Client
	baseURL string
	apiID   string
	rootKey string
}

// NewUnkeyVerifier creates a verifier for the Unkey API at baseURL
func NewUnkeyVerifier(client *http.Client, baseURL, apiID, rootKey string) *UnkeyVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultUnkeyURL
	}
	return &UnkeyVerifier{client: client, baseURL: baseURL, apiID: apiID, rootKey: rootKey}
}

// VerifyKey asks Unkey whether key is valid. Transport failures and non-2xx
// answers are errors; a well-formed "not valid" answer is not.
func (u *UnkeyVerifier) VerifyKey(ctx context.Context, key string) (Verification, error) {
	payload, err := sjson.SetBytes([]byte(`{}`), "key", key)
	if err != nil {
		return Verification{}, err
	}
	if u.apiID != "" {
		if payload, err = sjson.SetBytes(payload, "apiId", u.apiID); err != nil {
			return Verification{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/v1/keys.verifyKey", bytes.NewReader(payload))
	if err != nil {
		return Verification{}, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.rootKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.rootKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return Verification{}, fmt.Errorf("key verification failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxRequestBodySize))
	if err != nil {
		return Verification{}, fmt.Errorf("failed to read verification response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Verification{}, fmt.Errorf("key verification returned %d: %s", resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(body) {
		return Verification{}, fmt.Errorf("key verification returned invalid JSON")
	}

	return Verification{
		Valid: gjson.GetBytes(body, "valid").Bool(),
		Code:  gjson.GetBytes(body, "code").String(),
	}, nil
}
