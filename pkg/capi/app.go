// SPDX-License-Identifier: MPL-2.0

package capi

/*
#include "capi.h"

void cefkitAppOnBeforeCommandLineProcessing(cef_app_t* self, cef_string_t* process_type, cef_command_line_t* command_line);
void cefkitAppOnRegisterCustomSchemes(cef_app_t* self, cef_scheme_registrar_t* registrar);
cef_resource_bundle_handler_t* cefkitAppGetResourceBundleHandler(cef_app_t* self);
cef_browser_process_handler_t* cefkitAppGetBrowserProcessHandler(cef_app_t* self);
cef_render_process_handler_t* cefkitAppGetRenderProcessHandler(cef_app_t* self);
*/
import "C"

import (
	"unsafe"
)

// AppHandler names a handler getter slot of cef_app_t.
type AppHandler int

const (
	ResourceBundleHandler AppHandler = iota
	BrowserProcessHandler
	RenderProcessHandler
)

type (
	// AppHandlers are the Go implementations behind a cef_app_t. Nil fields
	// leave the capability unimplemented.
	AppHandlers struct {
		// OnBeforeCommandLineProcessing receives a cef_string_t* process type
		// and a cef_command_line_t*.
		OnBeforeCommandLineProcessing func(processType, commandLine unsafe.Pointer)
		OnRegisterCustomSchemes       func(registrar unsafe.Pointer)
		// Handlers return the handler object for a getter slot, or nil.
		Handlers map[AppHandler]func() unsafe.Pointer
	}

	// App is a cef_app_t allocated in C memory.
	App struct {
		Object
		c *C.cef_app_t
	}
)

// NewApp allocates a cef_app_t wired to h with a reference count of one.
func NewApp(h AppHandlers) *App {
	size := unsafe.Sizeof(C.cef_app_t{})
	c := (*C.cef_app_t)(allocZeroed(size))

	c.on_before_command_line_processing = (*[0]byte)(C.cefkitAppOnBeforeCommandLineProcessing)
	c.on_register_custom_schemes = (*[0]byte)(C.cefkitAppOnRegisterCustomSchemes)
	c.get_resource_bundle_handler = (*[0]byte)(C.cefkitAppGetResourceBundleHandler)
	c.get_browser_process_handler = (*[0]byte)(C.cefkitAppGetBrowserProcessHandler)
	c.get_render_process_handler = (*[0]byte)(C.cefkitAppGetRenderProcessHandler)
	initBase(&c.base, size, &h)

	return &App{Object: Object{base: &c.base}, c: c}
}

// OnBeforeCommandLineProcessing invokes the slot as CEF would.
func (a *App) OnBeforeCommandLineProcessing(processType, commandLine unsafe.Pointer) {
	if c := a.live(); c != nil {
		C.cefkit_app_on_before_command_line_processing(c,
			(*C.cef_string_t)(processType), (*C.cef_command_line_t)(commandLine))
	}
}

// OnRegisterCustomSchemes invokes the slot as CEF would.
func (a *App) OnRegisterCustomSchemes(registrar unsafe.Pointer) {
	if c := a.live(); c != nil {
		C.cefkit_app_on_register_custom_schemes(c, (*C.cef_scheme_registrar_t)(registrar))
	}
}

// Get invokes a handler getter slot as CEF would.
func (a *App) Get(slot AppHandler) unsafe.Pointer {
	if c := a.live(); c != nil {
		return C.cefkit_app_get(c, C.int(slot))
	}
	return nil
}

func (a *App) live() *C.cef_app_t {
	if a.Pointer() == nil {
		return nil
	}
	return a.c
}

func appHandlers(self *C.cef_app_t) *AppHandlers {
	h, _ := handlers.get(uintptr(unsafe.Pointer(self))).(*AppHandlers)
	return h
}

func appGet(self *C.cef_app_t, slot AppHandler) unsafe.Pointer {
	h := appHandlers(self)
	if h == nil || h.Handlers[slot] == nil {
		return nil
	}
	return h.Handlers[slot]()
}

//export cefkitAppOnBeforeCommandLineProcessing
func cefkitAppOnBeforeCommandLineProcessing(self *C.cef_app_t, processType *C.cef_string_t, commandLine *C.cef_command_line_t) {
	if h := appHandlers(self); h != nil && h.OnBeforeCommandLineProcessing != nil {
		h.OnBeforeCommandLineProcessing(unsafe.Pointer(processType), unsafe.Pointer(commandLine))
	}
}

//export cefkitAppOnRegisterCustomSchemes
func cefkitAppOnRegisterCustomSchemes(self *C.cef_app_t, registrar *C.cef_scheme_registrar_t) {
	if h := appHandlers(self); h != nil && h.OnRegisterCustomSchemes != nil {
		h.OnRegisterCustomSchemes(unsafe.Pointer(registrar))
	}
}

//export cefkitAppGetResourceBundleHandler
func cefkitAppGetResourceBundleHandler(self *C.cef_app_t) *C.cef_resource_bundle_handler_t {
	return (*C.cef_resource_bundle_handler_t)(appGet(self, ResourceBundleHandler))
}

//export cefkitAppGetBrowserProcessHandler
func cefkitAppGetBrowserProcessHandler(self *C.cef_app_t) *C.cef_browser_process_handler_t {
	return (*C.cef_browser_process_handler_t)(appGet(self, BrowserProcessHandler))
}

//export cefkitAppGetRenderProcessHandler
func cefkitAppGetRenderProcessHandler(self *C.cef_app_t) *C.cef_render_process_handler_t {
	return (*C.cef_render_process_handler_t)(appGet(self, RenderProcessHandler))
}
