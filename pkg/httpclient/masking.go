package httpclient

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

const maskedMarker = "***MASKED***"

// defaultSensitiveHeaders are masked in logged request/response headers.
var defaultSensitiveHeaders = []string{
	"authorization",
	"cookie",
	"set-cookie",
	"api-key",
	"x-api-key",
	"auth-token",
	"access-token",
}

// defaultSensitiveJSONFields are masked recursively in logged JSON bodies.
var defaultSensitiveJSONFields = []string{
	"password",
	"secret",
	"api_key",
	"private_key",
	"token",
	"access_token",
	"refresh_token",
	"authorization",
	"session",
}

// sensitiveQueryParams are masked in logged URLs.
var sensitiveQueryParams = map[string]struct{}{
	"access_token": {}, "api_key": {}, "apikey": {}, "auth_token": {},
	"authorization": {}, "bearer": {}, "client_secret": {}, "jwt": {},
	"password": {}, "passwd": {}, "pwd": {}, "secret": {}, "token": {},
	"x-api-key": {}, "private_key": {}, "auth": {}, "authentication": {},
	"credential": {}, "credentials": {},
}

// textMaskRule is a pre-compiled masking rule applied to non-JSON bodies.
type textMaskRule struct {
	pattern *regexp.Regexp
	replace string
}

var textMaskRules = []textMaskRule{
	{regexp.MustCompile(`(?i)(authorization["\s]*[:=]["\s]*)(bearer\s+)([a-zA-Z0-9._-]+)`), `$1$2` + maskedMarker},
	{regexp.MustCompile(`(?i)(api[_-]?key["\s]*[:=]["\s]*["']?)([a-zA-Z0-9._-]+)`), `$1` + maskedMarker},
	{regexp.MustCompile(`(?i)(password["\s]*[:=]["\s]*["']?)([^\s"']+)`), `$1` + maskedMarker},
	{regexp.MustCompile(`(?i)(passwd["\s]*[:=]["\s]*["']?)([^\s"']+)`), `$1` + maskedMarker},
	{regexp.MustCompile(`(?i)(token["\s]*[:=]["\s]*["']?)([a-zA-Z0-9._-]+)`), `$1` + maskedMarker},
}

// maskValue keeps the first 4 characters of long values as a recognizable
// prefix.
func maskValue(value string) string {
	if len(value) > 4 {
		return value[:4] + maskedMarker
	}
	return maskedMarker
}

// sanitizeHeaders masks sensitive header values. Multi-valued headers are
// joined for logging.
func (c *Client) sanitizeHeaders(headers map[string][]string) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		value := strings.Join(values, ", ")
		if c.maskSensitive {
			if _, ok := c.sensitiveHeaders[strings.ToLower(key)]; ok {
				value = maskValue(value)
			}
		}
		sanitized[key] = value
	}
	return sanitized
}

// formatHeaders renders headers compactly when short, one per line when not.
func formatHeaders(headers map[string]string) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s: %s", k, headers[k]))
	}
	compact := "{" + strings.Join(pairs, ", ") + "}"
	if len(compact) <= 100 {
		return compact
	}
	return "{\n  " + strings.Join(pairs, ",\n  ") + "\n}"
}

// sanitizeURL masks sensitive query parameter values.
func (c *Client) sanitizeURL(u *url.URL) string {
	if !c.maskSensitive || u.RawQuery == "" {
		return u.String()
	}
	q := u.Query()
	for name, values := range q {
		if _, ok := sensitiveQueryParams[strings.ToLower(name)]; !ok {
			continue
		}
		for i, v := range values {
			values[i] = maskValue(v)
		}
		q[name] = values
	}
	masked := *u
	masked.RawQuery = q.Encode()
	return masked.String()
}

// sanitizeBody masks sensitive fields in a JSON body, falling back to the
// regex rules when the content is not JSON.
func (c *Client) sanitizeBody(content string) string {
	if !c.maskSensitive {
		return content
	}
	var data interface{}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return maskTextPatterns(content)
	}
	masked := c.maskJSONFields(data)
	var out []byte
	var err error
	if len(content) > 100 {
		out, err = json.MarshalIndent(masked, "", "  ")
	} else {
		out, err = json.Marshal(masked)
	}
	if err != nil {
		return maskTextPatterns(content)
	}
	return string(out)
}

// maskJSONFields recursively masks sensitive fields in decoded JSON data.
func (c *Client) maskJSONFields(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if _, ok := c.sensitiveJSONFields[strings.ToLower(key)]; ok {
				if s, isStr := value.(string); isStr {
					out[key] = maskValue(s)
				} else {
					out[key] = maskedMarker
				}
			} else {
				out[key] = c.maskJSONFields(value)
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = c.maskJSONFields(item)
		}
		return out
	default:
		return data
	}
}

// maskTextPatterns applies the compiled regex rules to plain text.
func maskTextPatterns(content string) string {
	result := content
	for _, r := range textMaskRules {
		result = r.pattern.ReplaceAllString(result, r.replace)
	}
	return result
}

func lowerSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}
