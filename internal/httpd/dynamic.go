//go:build linux || darwin || freebsd

package httpd

import (
	"fmt"
	"plugin"
	"sync"
)

// DynamicRegistry owns every loaded plugin handle, keyed by an opaque id
// assigned on Register. Handlers are looked up by id so the registry (not
// the caller) is the single owner of the underlying *plugin.Plugin, the
// closest idiomatic equivalent to holding a dlopen handle until shutdown.
type DynamicRegistry struct {
	except ExceptionFunc

	mu      sync.Mutex
	nextID  int
	modules map[int]*plugin.Plugin
	paths   map[int]string
}

// NewDynamicRegistry returns a DynamicRegistry reporting load failures
// through except (nil is accepted and treated as a no-op).
func NewDynamicRegistry(except ExceptionFunc) *DynamicRegistry {
	if except == nil {
		except = func(string) {}
	}
	return &DynamicRegistry{
		except:  except,
		modules: map[int]*plugin.Plugin{},
		paths:   map[int]string{},
	}
}

// Register opens the plugin at path and stores it under a freshly assigned
// id, the analog of add_module's dlopen-and-remember step. The id remains
// valid for the registry's lifetime; Load looks symbols up against it.
func (d *DynamicRegistry) Register(path string) (int, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return 0, fmt.Errorf("httpd: failed to load module %q: %w", path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.modules[id] = p
	d.paths[id] = path
	return id, nil
}

// Load looks up a symbol named name inside the plugin previously registered
// under id, expecting it to be a value of type Handler. On any failure it
// reports the error through the registry's ExceptionFunc and returns a
// handler that always answers 500, matching the source's tolerant
// "keep serving, log the broken module" behavior instead of aborting
// startup.
func (d *DynamicRegistry) Load(id int, name string) Handler {
	d.mu.Lock()
	p, ok := d.modules[id]
	path := d.paths[id]
	d.mu.Unlock()
	if !ok {
		d.except(fmt.Sprintf("httpd: no module registered under id %d", id))
		return failedModuleHandler(path)
	}

	sym, err := p.Lookup(name)
	if err != nil {
		d.except(fmt.Sprintf("httpd: module %q missing symbol %q: %v", path, name, err))
		return failedModuleHandler(path)
	}

	handler, ok := sym.(Handler)
	if !ok {
		if fn, ok := sym.(func(map[string]string, *Request, Params) Response); ok {
			handler = fn
		} else {
			d.except(fmt.Sprintf("httpd: module %q symbol %q has unexpected type", path, name))
			return failedModuleHandler(path)
		}
	}
	return handler
}

func failedModuleHandler(path string) Handler {
	return func(env map[string]string, req *Request, params Params) Response {
		resp := NewResponse()
		resp.StatusCode = 500
		resp.StatusMessage = "Internal Server Error"
		resp.SetHeader("Content-Type", "text/plain; charset=utf-8")
		resp.Contents = "Error 500: module " + path + " failed to load"
		return resp
	}
}
