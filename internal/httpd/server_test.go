package httpd

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestServerRoutesAndServesStatic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<h1>home</h1>")

	s := New(2, WithStatic(dir, false, "index.html"))
	defer s.Stop()
	s.Handle("/greet/{name}", func(env map[string]string, req *Request, params Params) Response {
		resp := NewResponse()
		resp.Contents = "hello " + params["name"]
		return resp
	})

	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	addr := s.listener.Addr().String()

	if body := doGet(t, addr, "/greet/world"); body != "hello world" {
		t.Fatalf("got %q", body)
	}
	if body := doGet(t, addr, "/"); body != "<h1>home</h1>" {
		t.Fatalf("got %q", body)
	}
	if body := doGet(t, addr, "/does-not-exist"); !strings.Contains(body, "404") {
		t.Fatalf("expected 404 body, got %q", body)
	}
}

func TestServerLoadPluginDirIgnoresMissingDir(t *testing.T) {
	s := New(1)
	defer s.pool.Stop()
	s.LoadPluginDir("")
	s.LoadPluginDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if _, _, ok := s.router.Match("/anything"); ok {
		t.Fatal("expected no routes registered")
	}
}

func TestServerLoadPluginDirRegistersFailingHandlerForBadModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeter.so", "not a real plugin")

	s := New(1)
	defer s.pool.Stop()
	s.LoadPluginDir(dir)

	handler, params, ok := s.router.Match("/greeter")
	if !ok {
		t.Fatal("expected /greeter route to be registered even for a broken module")
	}
	resp := handler(nil, &Request{}, params)
	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func doGet(t *testing.T, addr, path string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	_, err = conn.Write([]byte("GET " + path + " HTTP/1.1\r\nHost: test\r\n\r\n"))
	if err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	var b strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}

	full := b.String()
	idx := strings.Index(full, "\r\n\r\n")
	if idx < 0 {
		return full
	}
	return full[idx+4:]
}
