package aws

import (
	"regexp"

	"github.com/Laisky/errors/v2"
	"github.com/tidwall/gjson"
)

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// toGJSONPath rewrites "results[0].outputText" into gjson's "results.0.outputText".
func toGJSONPath(path string) string {
	return bracketIndex.ReplaceAllString(path, ".$1")
}

// ExtractOutput follows a dot/bracket path into a JSON response body and returns the string
// found there.
func ExtractOutput(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.New("response body is not valid JSON")
	}
	res := gjson.GetBytes(body, toGJSONPath(path))
	if !res.Exists() {
		return "", errors.Errorf("response has no value at %s", path)
	}
	return res.String(), nil
}
