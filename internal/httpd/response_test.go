package httpd

import (
	"strings"
	"testing"
)

func TestBuildResponseStringOrdering(t *testing.T) {
	resp := NewResponse()
	resp.SetHeader("Content-Type", "text/plain; charset=utf-8")
	resp.SetCookie("session", "abc", map[string]string{"Path": "/", "HttpOnly": ""})
	resp.Contents = "hello"

	out := BuildResponseString(resp)
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status line wrong: %q", out)
	}
	if !strings.Contains(out, "Content-Length: 5\r\n") {
		t.Fatalf("missing content-length: %q", out)
	}
	if !strings.Contains(out, "Set-Cookie: session=abc; HttpOnly; Path=/\r\n") {
		t.Fatalf("missing cookie: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\nhello") {
		t.Fatalf("missing blank line before body: %q", out)
	}
}

func TestBuildResponseStringDefaultStatusMessage(t *testing.T) {
	resp := NewResponse()
	resp.StatusCode = 404
	resp.StatusMessage = ""
	out := BuildResponseString(resp)
	if !strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n") {
		t.Fatalf("status line = %q", strings.SplitN(out, "\r\n", 2)[0])
	}
}
