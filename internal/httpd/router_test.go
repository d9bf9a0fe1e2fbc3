package httpd

import "testing"

func okHandler(id string) Handler {
	return func(env map[string]string, req *Request, params Params) Response {
		resp := NewResponse()
		resp.Contents = id + ":" + params["id"]
		return resp
	}
}

func TestRouterMatchesPathParam(t *testing.T) {
	r := NewRouter()
	r.Handle("/users/{id}", okHandler("users"))

	h, params, ok := r.Match("/users/42")
	if !ok {
		t.Fatal("expected match")
	}
	if params["id"] != "42" {
		t.Fatalf("id param = %q", params["id"])
	}
	resp := h(nil, &Request{}, params)
	if resp.Contents != "users:42" {
		t.Fatalf("contents = %q", resp.Contents)
	}
}

func TestRouterRootParamMatchesWithoutIdKey(t *testing.T) {
	r := NewRouter()
	r.Handle("/{id}", okHandler("root"))

	_, params, ok := r.Match("/")
	if !ok {
		t.Fatal("expected '/' to match '/{id}'")
	}
	if _, hasID := params["id"]; hasID {
		t.Fatalf("expected no id key for an empty segment, got params=%v", params)
	}
	if _, params, ok := r.Match("/123"); !ok || params["id"] != "123" {
		t.Fatalf("expected match with id=123, got ok=%v params=%v", ok, params)
	}
}

func TestRouterFirstRegisteredRouteWins(t *testing.T) {
	r := NewRouter()
	r.Handle("/items/{id}", okHandler("generic"))
	r.Handle("/items/new", okHandler("specific"))

	// "/items/new" also matches the earlier "/items/{id}" pattern; since it
	// was registered first, it wins.
	h, params, ok := r.Match("/items/new")
	if !ok {
		t.Fatal("expected match")
	}
	resp := h(nil, &Request{}, params)
	if resp.Contents != "generic:new" {
		t.Fatalf("contents = %q, want generic:new (first-registered route wins)", resp.Contents)
	}
}

func TestRouterNoMatch(t *testing.T) {
	r := NewRouter()
	r.Handle("/a/{id}", okHandler("a"))
	if _, _, ok := r.Match("/b/1"); ok {
		t.Fatal("expected no match")
	}
}

func TestIsAssetRequest(t *testing.T) {
	cases := map[string]bool{
		"/app/main.js": true,
		"/app/dashboard": false,
		"/":            false,
		"/static/img.png": true,
	}
	for path, want := range cases {
		if got := isAssetRequest(path); got != want {
			t.Errorf("isAssetRequest(%q) = %v, want %v", path, got, want)
		}
	}
}
