package httpd

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strconv"
	"strings"
)

// DefaultMaxHeaderBytes is the maximum number of bytes read while searching
// for the end of the header block ("\r\n\r\n") when no override is given. A
// request whose headers exceed the configured limit is rejected with a 400
// before any handler runs.
const DefaultMaxHeaderBytes = 16 * 1024

const readChunkSize = 4096

// ErrHeaderTooLarge is returned by ReadRequest when no "\r\n\r\n" terminator
// is found within the configured header limit.
var ErrHeaderTooLarge = fmt.Errorf("httpd: request headers too large or malformed")

// ReadRequest reads one HTTP request from conn: the header block (up to
// maxHeaderBytes, terminated by a blank line; DefaultMaxHeaderBytes is used
// if maxHeaderBytes <= 0), followed by exactly Content-Length body bytes if
// present. except receives non-fatal parsing diagnostics (malformed
// percent-escapes, malformed multipart parts); it may be nil.
func ReadRequest(conn io.Reader, maxHeaderBytes int, except ExceptionFunc) (*Request, error) {
	if except == nil {
		except = func(string) {}
	}
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = DefaultMaxHeaderBytes
	}

	buf, headerEnd, err := readHeaderBlock(conn, maxHeaderBytes)
	if err != nil {
		return nil, err
	}

	headerBlock := string(buf[:headerEnd])
	lines := strings.Split(headerBlock, "\n")
	if len(lines) == 0 {
		return nil, fmt.Errorf("httpd: empty request")
	}

	req := newRequest()
	if err := parseRequestLine(strings.TrimRight(lines[0], "\r"), req); err != nil {
		return nil, err
	}
	parseHeaderLines(lines[1:], req)

	bodySoFar := buf[headerEnd+4:]
	contentLength := 0
	if v, ok := req.Headers["Content-Length"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("httpd: bad request: invalid Content-Length header: %w", err)
		}
		contentLength = n
	}

	body, err := completeBody(conn, bodySoFar, contentLength)
	if err != nil {
		return nil, err
	}
	req.ContentsBytes = body

	contentType := req.Headers["Content-Type"]
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		boundary := extractBoundary(contentType)
		if boundary == "" {
			return nil, fmt.Errorf("httpd: multipart/form-data request missing boundary")
		}
		parseMultipartBody(body, boundary, req, except)
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		req.Contents = string(body)
		parseURLEncodedInto(req.Contents, req.Form, except)
	default:
		req.Contents = string(body)
	}

	return req, nil
}

// readHeaderBlock reads from conn in chunks until "\r\n\r\n" is found or
// maxHeaderBytes is exceeded. It returns the full buffer read so far and the
// byte offset of the "\r\n\r\n" terminator's first byte.
func readHeaderBlock(conn io.Reader, maxHeaderBytes int) (buf []byte, headerEnd int, err error) {
	chunk := make([]byte, readChunkSize)
	for {
		if idx := bytes.Index(buf, []byte("\r\n\r\n")); idx >= 0 {
			if idx+4 > maxHeaderBytes {
				return nil, 0, ErrHeaderTooLarge
			}
			return buf, idx, nil
		}
		if len(buf) >= maxHeaderBytes {
			return nil, 0, ErrHeaderTooLarge
		}

		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if idx := bytes.Index(buf, []byte("\r\n\r\n")); idx >= 0 && idx+4 <= maxHeaderBytes {
				return buf, idx, nil
			}
			return nil, 0, ErrHeaderTooLarge
		}
	}
}

// completeBody returns the request body given what has already been read
// past the header terminator (soFar) and the declared Content-Length,
// reading additional bytes from conn until that many have been collected.
func completeBody(conn io.Reader, soFar []byte, contentLength int) ([]byte, error) {
	if contentLength <= len(soFar) {
		if contentLength < 0 {
			return soFar, nil
		}
		return soFar[:contentLength], nil
	}

	body := make([]byte, len(soFar), contentLength)
	copy(body, soFar)
	remaining := contentLength - len(soFar)

	chunk := make([]byte, readChunkSize)
	for remaining > 0 {
		n, err := conn.Read(chunk)
		if n > 0 {
			take := n
			if take > remaining {
				take = remaining
			}
			body = append(body, chunk[:take]...)
			remaining -= take
		}
		if err != nil {
			if remaining > 0 {
				return body, fmt.Errorf("httpd: body truncated: %w", err)
			}
			break
		}
	}
	return body, nil
}

func parseRequestLine(line string, req *Request) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return fmt.Errorf("httpd: malformed request line %q", line)
	}
	req.Method = parts[0]
	req.FullURL = parts[1]
	req.RequestPath = parts[1]
	if idx := strings.IndexByte(req.RequestPath, '?'); idx >= 0 {
		req.RequestPath = req.RequestPath[:idx]
	}
	return nil
}

// parseHeaderLines parses "Name: value" lines; blank lines and lines without
// a colon are skipped. A "Cookie" header is additionally split into
// individual cookies.
func parseHeaderLines(lines []string, req *Request) {
	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name := line[:colon]
		value := ""
		if colon+2 <= len(line) {
			value = line[colon+2:]
		}
		req.Headers[name] = value

		if strings.EqualFold(name, "Cookie") {
			for _, pair := range strings.Split(value, ";") {
				pair = strings.TrimSpace(pair)
				if pair == "" {
					continue
				}
				eq := strings.IndexByte(pair, '=')
				if eq < 0 {
					continue
				}
				req.Cookies[strings.TrimSpace(pair[:eq])] = strings.TrimSpace(pair[eq+1:])
			}
		}
	}
}

func extractBoundary(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["boundary"]
}

// parseURLEncodedInto percent-decodes an application/x-www-form-urlencoded
// body into dst. A malformed "%XX" escape is reported via except and the
// literal '%' is kept, matching the source's tolerant behavior rather than
// failing the whole request.
func parseURLEncodedInto(body string, dst map[string]string, except ExceptionFunc) {
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		eq := strings.IndexByte(pair, '=')
		var key, value string
		if eq < 0 {
			key = pair
		} else {
			key, value = pair[:eq], pair[eq+1:]
		}
		dst[decodeURLComponent(key, except)] = decodeURLComponent(value, except)
	}
}

func decodeURLComponent(s string, except ExceptionFunc) string {
	s = strings.ReplaceAll(s, "+", " ")
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		except(fmt.Sprintf("httpd: malformed percent-encoding in %q: %v", s, err))
		return s
	}
	return decoded
}

// parseMultipartBody splits body on the "--boundary" delimiter and fills in
// req.Form / req.UploadFiles. Parts without a Content-Disposition "name"
// attribute are skipped (reported via except).
func parseMultipartBody(body []byte, boundary string, req *Request, except ExceptionFunc) {
	delim := []byte("--" + boundary)
	parts := bytes.Split(body, delim)
	for _, part := range parts {
		part = bytes.TrimPrefix(part, []byte("\r\n"))
		if len(part) == 0 || bytes.Equal(bytes.TrimSpace(part), []byte("--")) {
			continue
		}
		if !bytes.HasPrefix(part, []byte("\r\n")) && !bytes.Contains(part, []byte("\r\n\r\n")) {
			continue
		}

		sep := bytes.Index(part, []byte("\r\n\r\n"))
		if sep < 0 {
			except("httpd: malformed multipart part, missing header/body separator")
			continue
		}
		headerBlock := string(bytes.TrimPrefix(part[:sep], []byte("\r\n")))
		partBody := bytes.TrimSuffix(part[sep+4:], []byte("\r\n"))
		partBody = bytes.TrimSuffix(partBody, []byte("--"))
		partBody = bytes.TrimSuffix(partBody, []byte("\r\n"))

		headers := map[string]string{}
		for _, line := range strings.Split(headerBlock, "\n") {
			line = strings.TrimRight(line, "\r")
			if line == "" {
				continue
			}
			colon := strings.IndexByte(line, ':')
			if colon < 0 {
				continue
			}
			headers[line[:colon]] = strings.TrimSpace(line[colon+1:])
		}

		disposition := headers["Content-Disposition"]
		name := extractDispositionParam(disposition, "name")
		if name == "" {
			except("httpd: multipart part missing Content-Disposition name")
			continue
		}

		if filename := extractDispositionParam(disposition, "filename"); filename != "" {
			contentType := headers["Content-Type"]
			if contentType == "" {
				contentType = defaultMimeType
			}
			req.UploadFiles[name] = UploadedFile{
				Filename:    filename,
				ContentType: contentType,
				Data:        append([]byte(nil), partBody...),
			}
		} else {
			req.Form[name] = string(partBody)
		}
	}
}

// extractDispositionParam returns the value of a quoted key="value" pair
// inside a Content-Disposition header, or "" if absent.
func extractDispositionParam(disposition, key string) string {
	marker := key + `="`
	idx := strings.Index(disposition, marker)
	if idx < 0 {
		return ""
	}
	start := idx + len(marker)
	end := strings.IndexByte(disposition[start:], '"')
	if end < 0 {
		return ""
	}
	return disposition[start : start+end]
}
