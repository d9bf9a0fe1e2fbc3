package httpd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BuildResponseString serializes a Response into a full HTTP/1.1 response:
// status line, Content-Length, remaining headers, one Set-Cookie line per
// cookie, a blank line, and the body. Header and cookie iteration order is
// sorted for determinism (map iteration order is not).
func BuildResponseString(resp Response) string {
	message := resp.StatusMessage
	if message == "" {
		message = defaultStatusMessage(resp.StatusCode)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", resp.StatusCode, message)
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(resp.Contents))

	keys := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, resp.Headers[k])
	}

	cookieNames := make([]string, 0, len(resp.Cookies))
	for k := range resp.Cookies {
		cookieNames = append(cookieNames, k)
	}
	sort.Strings(cookieNames)
	for _, name := range cookieNames {
		fmt.Fprintf(&b, "Set-Cookie: %s\r\n", resp.Cookies[name])
	}

	b.WriteString("\r\n")
	b.WriteString(resp.Contents)
	return b.String()
}

func defaultStatusMessage(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 413:
		return "Payload Too Large"
	case 429:
		return "Too Many Requests"
	case 500:
		return "Internal Server Error"
	default:
		return strconv.Itoa(code)
	}
}
