package eval

import (
	"fmt"
	"io"
	"net/http"

	"github.com/ohler55/ojg/oj"
)

// parseJSON decodes text into a generic Go value (map[string]interface{},
// []interface{}, string, int64/float64, bool, or nil) via ojg, which —
// unlike encoding/json — decodes integral JSON numbers as int64 rather
// than always widening to float64, matching spec §4.4's "JSON integer ->
// integer" conversion rule without a manual float-to-int check for the
// common case.
func parseJSON(text string) (interface{}, error) {
	doc, err := oj.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return doc, nil
}

// defaultHTTPClient is the production HTTPClient: a plain net/http GET.
// http.Client follows redirects by default (up to 10), satisfying the
// "redirect following" half of the HTTP collaborator contract (spec §6).
type defaultHTTPClient struct{}

func (defaultHTTPClient) Get(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("http.get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("http.get %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("http.get %s: reading body: %w", url, err)
	}
	return string(body), nil
}
