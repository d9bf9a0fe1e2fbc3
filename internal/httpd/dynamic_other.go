//go:build !linux && !darwin && !freebsd

package httpd

import "fmt"

// DynamicRegistry is a stub on platforms without the plugin package's full
// support. Register always fails; Load always reports failure through
// except and returns a handler that answers 500.
type DynamicRegistry struct {
	except ExceptionFunc
}

func NewDynamicRegistry(except ExceptionFunc) *DynamicRegistry {
	if except == nil {
		except = func(string) {}
	}
	return &DynamicRegistry{except: except}
}

func (d *DynamicRegistry) Register(path string) (int, error) {
	return 0, fmt.Errorf("httpd: dynamic module loading unsupported on this platform")
}

func (d *DynamicRegistry) Load(id int, name string) Handler {
	d.except(fmt.Sprintf("httpd: dynamic module loading unsupported on this platform, id %d not loaded", id))
	return failedModuleHandler("")
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
