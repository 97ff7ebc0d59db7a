// SPDX-License-Identifier: MPL-2.0

package capi

/*
#include "capi.h"

void cefkitAddRef(cef_base_ref_counted_t* self);
int cefkitRelease(cef_base_ref_counted_t* self);
int cefkitHasOneRef(cef_base_ref_counted_t* self);
int cefkitHasAtLeastOneRef(cef_base_ref_counted_t* self);
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/cefkit/cefkit/internal/refcount"
)

type (
	// Object is the refcounted base shared by every vtable object.
	Object struct {
		mu   sync.Mutex
		base *C.cef_base_ref_counted_t
	}

	// handlerRegistry holds the Go handlers of live objects by address.
	handlerRegistry struct {
		mu sync.Mutex
		m  map[uintptr]any
	}
)

var handlers = &handlerRegistry{m: make(map[uintptr]any)}

func (r *handlerRegistry) put(id uintptr, h any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[id] = h
}

func (r *handlerRegistry) get(id uintptr) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id]
}

func (r *handlerRegistry) drop(id uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
}

func (r *handlerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

// Live returns the number of objects allocated by this package that have not
// been freed yet.
func Live() int {
	return handlers.len()
}

// allocZeroed returns size bytes of zeroed C memory. It never returns nil;
// cgo aborts the process when C.malloc fails.
func allocZeroed(size uintptr) unsafe.Pointer {
	p := C.malloc(C.size_t(size))
	C.memset(p, 0, C.size_t(size))
	return p
}

// freeBlock releases memory obtained from allocZeroed.
func freeBlock(p unsafe.Pointer) {
	C.free(p)
}

// initBase fills the base record of a freshly allocated struct of the given
// size and registers it with a count of one.
func initBase(base *C.cef_base_ref_counted_t, size uintptr, h any) {
	base.size = C.size_t(size)
	base.add_ref = (*[0]byte)(C.cefkitAddRef)
	base.release = (*[0]byte)(C.cefkitRelease)
	base.has_one_ref = (*[0]byte)(C.cefkitHasOneRef)
	base.has_at_least_one_ref = (*[0]byte)(C.cefkitHasAtLeastOneRef)

	id := uintptr(unsafe.Pointer(base))
	handlers.put(id, h)
	refcount.Default().Register(id)
}

// Pointer returns the C address of the object for passing to CEF functions,
// or nil once the last reference has been released through this Object.
func (o *Object) Pointer() unsafe.Pointer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return unsafe.Pointer(o.base)
}

// Size returns the size field of the base record.
func (o *Object) Size() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.base == nil {
		return 0
	}
	return int(o.base.size)
}

// AddRef takes another reference through the add_ref slot.
func (o *Object) AddRef() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.base != nil {
		C.cefkit_add_ref(o.base)
	}
}

// Release drops a reference through the release slot and reports whether it
// was the last one. The Object is unusable after a release that returns true.
func (o *Object) Release() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.base == nil {
		return false
	}
	if C.cefkit_release(o.base) == 0 {
		return false
	}
	o.base = nil
	return true
}

// HasOneRef calls the has_one_ref slot.
func (o *Object) HasOneRef() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.base != nil && C.cefkit_has_one_ref(o.base) != 0
}

// HasAtLeastOneRef calls the has_at_least_one_ref slot.
func (o *Object) HasAtLeastOneRef() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.base != nil && C.cefkit_has_at_least_one_ref(o.base) != 0
}

func boolToInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

//export cefkitAddRef
func cefkitAddRef(self *C.cef_base_ref_counted_t) {
	refcount.Default().AddRef(uintptr(unsafe.Pointer(self)))
}

//export cefkitRelease
func cefkitRelease(self *C.cef_base_ref_counted_t) C.int {
	id := uintptr(unsafe.Pointer(self))
	if !refcount.Default().Release(id) {
		return 0
	}
	handlers.drop(id)
	freeBlock(unsafe.Pointer(self))
	return 1
}

//export cefkitHasOneRef
func cefkitHasOneRef(self *C.cef_base_ref_counted_t) C.int {
	return boolToInt(refcount.Default().HasOneRef(uintptr(unsafe.Pointer(self))))
}

//export cefkitHasAtLeastOneRef
func cefkitHasAtLeastOneRef(self *C.cef_base_ref_counted_t) C.int {
	return boolToInt(refcount.Default().HasAtLeastOneRef(uintptr(unsafe.Pointer(self))))
}
