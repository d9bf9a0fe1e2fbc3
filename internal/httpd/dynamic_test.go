//go:build linux || darwin || freebsd

package httpd

import "testing"

func TestDynamicRegistryRegisterUnknownPathFails(t *testing.T) {
	reg := NewDynamicRegistry(nil)
	if _, err := reg.Register("/nonexistent/module.so"); err == nil {
		t.Fatal("expected error registering a nonexistent plugin")
	}
}

func TestDynamicRegistryLoadUnknownIDReturnsFailureHandler(t *testing.T) {
	var reported []string
	reg := NewDynamicRegistry(func(msg string) { reported = append(reported, msg) })

	handler := reg.Load(999, "Handler")
	resp := handler(nil, &Request{}, nil)
	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if len(reported) == 0 {
		t.Fatal("expected a load failure to be reported")
	}
}
