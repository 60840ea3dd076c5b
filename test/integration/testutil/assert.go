package testutil

import (
	"encoding/json"
	"shelfkeeper/pkg/client"
	"strings"
	"testing"
)

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// AssertStatusCode fails the test if status code doesn't match
func AssertStatusCode(t *testing.T, resp *client.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

// AssertErrorCode fails the test unless the body carries the given error code.
func AssertErrorCode(t *testing.T, resp *client.Response, code string) {
	t.Helper()
	var errResp struct {
		Code string `json:"code"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if errResp.Code != code {
		t.Fatalf("expected error code %s, got %s (%s)", code, errResp.Code, client.GetErrorMessage(resp))
	}
}

// DecodeData unwraps the success envelope into target.
func DecodeData(t *testing.T, resp *client.Response, target any) {
	t.Helper()
	var env envelope
	if err := resp.DecodeJSON(&env); err != nil {
		t.Fatalf("failed to decode envelope: %v. Body: %s", err, string(resp.Body))
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		t.Fatalf("failed to decode data: %v. Body: %s", err, string(resp.Body))
	}
}

// CreatedID asserts a 201 and returns the id of the created record.
func CreatedID(t *testing.T, resp *client.Response, err error) int64 {
	t.Helper()
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	AssertStatusCode(t, resp, 201)
	var created struct {
		ID int64 `json:"id"`
	}
	DecodeData(t, resp, &created)
	return created.ID
}

// AssertContains fails if response body doesn't contain substr
func AssertContains(t *testing.T, resp *client.Response, substr string) {
	t.Helper()
	if !strings.Contains(string(resp.Body), substr) {
		t.Fatalf("response body does not contain %q. Body: %s", substr, string(resp.Body))
	}
}
