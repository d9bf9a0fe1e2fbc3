package httpd

import (
	"strconv"
	"strings"
	"testing"
)

func TestReadRequestBasicGET(t *testing.T) {
	raw := "GET /hello?x=1 HTTP/1.1\r\nHost: example.com\r\nCookie: a=1; b=2\r\n\r\n"
	req, err := ReadRequest(strings.NewReader(raw), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != "GET" {
		t.Fatalf("method = %q", req.Method)
	}
	if req.RequestPath != "/hello" {
		t.Fatalf("request path = %q", req.RequestPath)
	}
	if req.Headers["Host"] != "example.com" {
		t.Fatalf("Host header = %q", req.Headers["Host"])
	}
	if req.Cookies["a"] != "1" || req.Cookies["b"] != "2" {
		t.Fatalf("cookies = %v", req.Cookies)
	}
}

func TestReadRequestWithBody(t *testing.T) {
	body := "hello world"
	raw := "POST /echo HTTP/1.1\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
	req, err := ReadRequest(strings.NewReader(raw), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.Contents != body {
		t.Fatalf("contents = %q, want %q", req.Contents, body)
	}
}

func TestReadRequestHeaderTooLarge(t *testing.T) {
	huge := strings.Repeat("a", DefaultMaxHeaderBytes+100)
	raw := "GET / HTTP/1.1\r\nX-Big: " + huge + "\r\n\r\n"
	_, err := ReadRequest(strings.NewReader(raw), 0, nil)
	if err == nil {
		t.Fatal("expected error for oversized header block")
	}
}

func TestReadRequestCustomMaxHeaderBytes(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nX-Big: " + strings.Repeat("a", 200) + "\r\n\r\n"
	if _, err := ReadRequest(strings.NewReader(raw), 100, nil); err == nil {
		t.Fatal("expected error: header block exceeds custom limit of 100 bytes")
	}
	if _, err := ReadRequest(strings.NewReader(raw), 0, nil); err != nil {
		t.Fatalf("unexpected error under default limit: %v", err)
	}
}

func TestReadRequestMalformedContentLengthIsRejected(t *testing.T) {
	raw := "POST /echo HTTP/1.1\r\nContent-Length: abc\r\n\r\nhello"
	if _, err := ReadRequest(strings.NewReader(raw), 0, nil); err == nil {
		t.Fatal("expected error for unparseable Content-Length header")
	}
}

func TestReadRequestURLEncodedForm(t *testing.T) {
	body := "name=John+Doe&city=San%20Jose"
	raw := "POST /submit HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\nContent-Length: " +
		strconv.Itoa(len(body)) + "\r\n\r\n" + body
	req, err := ReadRequest(strings.NewReader(raw), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.Form["name"] != "John Doe" {
		t.Fatalf("name = %q", req.Form["name"])
	}
	if req.Form["city"] != "San Jose" {
		t.Fatalf("city = %q", req.Form["city"])
	}
}

func TestReadRequestMultipartFormAndFile(t *testing.T) {
	boundary := "XYZBOUNDARY"
	var b strings.Builder
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Disposition: form-data; name=\"title\"\r\n\r\n")
	b.WriteString("my title")
	b.WriteString("\r\n--" + boundary + "\r\n")
	b.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"a.txt\"\r\n")
	b.WriteString("Content-Type: text/plain\r\n\r\n")
	b.WriteString("file contents")
	b.WriteString("\r\n--" + boundary + "--\r\n")

	body := b.String()
	raw := "POST /upload HTTP/1.1\r\nContent-Type: multipart/form-data; boundary=" + boundary +
		"\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	req, err := ReadRequest(strings.NewReader(raw), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if req.Form["title"] != "my title" {
		t.Fatalf("title = %q", req.Form["title"])
	}
	f, ok := req.UploadFiles["file"]
	if !ok {
		t.Fatal("expected uploaded file 'file'")
	}
	if f.Filename != "a.txt" || string(f.Data) != "file contents" {
		t.Fatalf("file = %+v", f)
	}
	if f.ContentType != "text/plain" {
		t.Fatalf("content type = %q", f.ContentType)
	}
}

func TestReadRequestMultipartMissingBoundary(t *testing.T) {
	raw := "POST /upload HTTP/1.1\r\nContent-Type: multipart/form-data\r\nContent-Length: 0\r\n\r\n"
	_, err := ReadRequest(strings.NewReader(raw), 0, nil)
	if err == nil {
		t.Fatal("expected error for multipart request without boundary")
	}
}
