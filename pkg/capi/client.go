// SPDX-License-Identifier: MPL-2.0

package capi

/*
#include "capi.h"

cef_audio_handler_t* cefkitClientGetAudioHandler(cef_client_t* self);
cef_context_menu_handler_t* cefkitClientGetContextMenuHandler(cef_client_t* self);
cef_dialog_handler_t* cefkitClientGetDialogHandler(cef_client_t* self);
cef_display_handler_t* cefkitClientGetDisplayHandler(cef_client_t* self);
cef_download_handler_t* cefkitClientGetDownloadHandler(cef_client_t* self);
cef_drag_handler_t* cefkitClientGetDragHandler(cef_client_t* self);
cef_find_handler_t* cefkitClientGetFindHandler(cef_client_t* self);
cef_focus_handler_t* cefkitClientGetFocusHandler(cef_client_t* self);
cef_jsdialog_handler_t* cefkitClientGetJsdialogHandler(cef_client_t* self);
cef_keyboard_handler_t* cefkitClientGetKeyboardHandler(cef_client_t* self);
cef_life_span_handler_t* cefkitClientGetLifeSpanHandler(cef_client_t* self);
cef_load_handler_t* cefkitClientGetLoadHandler(cef_client_t* self);
cef_render_handler_t* cefkitClientGetRenderHandler(cef_client_t* self);
cef_request_handler_t* cefkitClientGetRequestHandler(cef_client_t* self);
int cefkitClientOnProcessMessageReceived(cef_client_t* self, cef_browser_t* browser, cef_frame_t* frame, cef_process_id_t source_process, cef_process_message_t* message);
*/
import "C"

import (
	"unsafe"
)

// ClientHandler names a handler getter slot of cef_client_t.
type ClientHandler int

const (
	AudioHandler ClientHandler = iota
	ContextMenuHandler
	DialogHandler
	DisplayHandler
	DownloadHandler
	DragHandler
	FindHandler
	FocusHandler
	JSDialogHandler
	KeyboardHandler
	LifeSpanHandler
	LoadHandler
	RenderHandler
	RequestHandler
)

// ProcessID identifies the process a message came from. Values match
// cef_process_id_t.
type ProcessID int

const (
	ProcessBrowser ProcessID = iota
	ProcessRenderer
)

type (
	// ClientHandlers are the Go implementations behind a cef_client_t.
	ClientHandlers struct {
		// Handlers return the handler object for a getter slot, or nil.
		Handlers map[ClientHandler]func() unsafe.Pointer
		// OnProcessMessageReceived reports whether the message was handled.
		OnProcessMessageReceived func(browser, frame unsafe.Pointer, source ProcessID, message unsafe.Pointer) bool
	}

	// Client is a cef_client_t allocated in C memory.
	Client struct {
		Object
		c *C.cef_client_t
	}
)

// NewClient allocates a cef_client_t wired to h with a reference count of one.
func NewClient(h ClientHandlers) *Client {
	size := unsafe.Sizeof(C.cef_client_t{})
	c := (*C.cef_client_t)(allocZeroed(size))

	c.get_audio_handler = (*[0]byte)(C.cefkitClientGetAudioHandler)
	c.get_context_menu_handler = (*[0]byte)(C.cefkitClientGetContextMenuHandler)
	c.get_dialog_handler = (*[0]byte)(C.cefkitClientGetDialogHandler)
	c.get_display_handler = (*[0]byte)(C.cefkitClientGetDisplayHandler)
	c.get_download_handler = (*[0]byte)(C.cefkitClientGetDownloadHandler)
	c.get_drag_handler = (*[0]byte)(C.cefkitClientGetDragHandler)
	c.get_find_handler = (*[0]byte)(C.cefkitClientGetFindHandler)
	c.get_focus_handler = (*[0]byte)(C.cefkitClientGetFocusHandler)
	c.get_jsdialog_handler = (*[0]byte)(C.cefkitClientGetJsdialogHandler)
	c.get_keyboard_handler = (*[0]byte)(C.cefkitClientGetKeyboardHandler)
	c.get_life_span_handler = (*[0]byte)(C.cefkitClientGetLifeSpanHandler)
	c.get_load_handler = (*[0]byte)(C.cefkitClientGetLoadHandler)
	c.get_render_handler = (*[0]byte)(C.cefkitClientGetRenderHandler)
	c.get_request_handler = (*[0]byte)(C.cefkitClientGetRequestHandler)
	c.on_process_message_received = (*[0]byte)(C.cefkitClientOnProcessMessageReceived)
	initBase(&c.base, size, &h)

	return &Client{Object: Object{base: &c.base}, c: c}
}

// Get invokes a handler getter slot as CEF would.
func (cl *Client) Get(slot ClientHandler) unsafe.Pointer {
	if c := cl.live(); c != nil {
		return C.cefkit_client_get(c, C.int(slot))
	}
	return nil
}

// OnProcessMessageReceived invokes the slot as CEF would.
func (cl *Client) OnProcessMessageReceived(browser, frame unsafe.Pointer, source ProcessID, message unsafe.Pointer) bool {
	c := cl.live()
	if c == nil {
		return false
	}
	return C.cefkit_client_on_process_message_received(c,
		(*C.cef_browser_t)(browser), (*C.cef_frame_t)(frame),
		C.cef_process_id_t(source), (*C.cef_process_message_t)(message)) != 0
}

func (cl *Client) live() *C.cef_client_t {
	if cl.Pointer() == nil {
		return nil
	}
	return cl.c
}

func clientHandlers(self *C.cef_client_t) *ClientHandlers {
	h, _ := handlers.get(uintptr(unsafe.Pointer(self))).(*ClientHandlers)
	return h
}

func clientGet(self *C.cef_client_t, slot ClientHandler) unsafe.Pointer {
	h := clientHandlers(self)
	if h == nil || h.Handlers[slot] == nil {
		return nil
	}
	return h.Handlers[slot]()
}

//export cefkitClientGetAudioHandler
func cefkitClientGetAudioHandler(self *C.cef_client_t) *C.cef_audio_handler_t {
	return (*C.cef_audio_handler_t)(clientGet(self, AudioHandler))
}

//export cefkitClientGetContextMenuHandler
func cefkitClientGetContextMenuHandler(self *C.cef_client_t) *C.cef_context_menu_handler_t {
	return (*C.cef_context_menu_handler_t)(clientGet(self, ContextMenuHandler))
}

//export cefkitClientGetDialogHandler
func cefkitClientGetDialogHandler(self *C.cef_client_t) *C.cef_dialog_handler_t {
	return (*C.cef_dialog_handler_t)(clientGet(self, DialogHandler))
}

//export cefkitClientGetDisplayHandler
func cefkitClientGetDisplayHandler(self *C.cef_client_t) *C.cef_display_handler_t {
	return (*C.cef_display_handler_t)(clientGet(self, DisplayHandler))
}

//export cefkitClientGetDownloadHandler
func cefkitClientGetDownloadHandler(self *C.cef_client_t) *C.cef_download_handler_t {
	return (*C.cef_download_handler_t)(clientGet(self, DownloadHandler))
}

//export cefkitClientGetDragHandler
func cefkitClientGetDragHandler(self *C.cef_client_t) *C.cef_drag_handler_t {
	return (*C.cef_drag_handler_t)(clientGet(self, DragHandler))
}

//export cefkitClientGetFindHandler
func cefkitClientGetFindHandler(self *C.cef_client_t) *C.cef_find_handler_t {
	return (*C.cef_find_handler_t)(clientGet(self, FindHandler))
}

//export cefkitClientGetFocusHandler
func cefkitClientGetFocusHandler(self *C.cef_client_t) *C.cef_focus_handler_t {
	return (*C.cef_focus_handler_t)(clientGet(self, FocusHandler))
}

//export cefkitClientGetJsdialogHandler
func cefkitClientGetJsdialogHandler(self *C.cef_client_t) *C.cef_jsdialog_handler_t {
	return (*C.cef_jsdialog_handler_t)(clientGet(self, JSDialogHandler))
}

//export cefkitClientGetKeyboardHandler
func cefkitClientGetKeyboardHandler(self *C.cef_client_t) *C.cef_keyboard_handler_t {
	return (*C.cef_keyboard_handler_t)(clientGet(self, KeyboardHandler))
}

//export cefkitClientGetLifeSpanHandler
func cefkitClientGetLifeSpanHandler(self *C.cef_client_t) *C.cef_life_span_handler_t {
	return (*C.cef_life_span_handler_t)(clientGet(self, LifeSpanHandler))
}

//export cefkitClientGetLoadHandler
func cefkitClientGetLoadHandler(self *C.cef_client_t) *C.cef_load_handler_t {
	return (*C.cef_load_handler_t)(clientGet(self, LoadHandler))
}

//export cefkitClientGetRenderHandler
func cefkitClientGetRenderHandler(self *C.cef_client_t) *C.cef_render_handler_t {
	return (*C.cef_render_handler_t)(clientGet(self, RenderHandler))
}

//export cefkitClientGetRequestHandler
func cefkitClientGetRequestHandler(self *C.cef_client_t) *C.cef_request_handler_t {
	return (*C.cef_request_handler_t)(clientGet(self, RequestHandler))
}

//export cefkitClientOnProcessMessageReceived
func cefkitClientOnProcessMessageReceived(self *C.cef_client_t, browser *C.cef_browser_t, frame *C.cef_frame_t, source C.cef_process_id_t, message *C.cef_process_message_t) C.int {
	h := clientHandlers(self)
	if h == nil || h.OnProcessMessageReceived == nil {
		return 0
	}
	return boolToInt(h.OnProcessMessageReceived(unsafe.Pointer(browser), unsafe.Pointer(frame), ProcessID(source), unsafe.Pointer(message)))
}
