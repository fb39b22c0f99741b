package hostbridge

/*
#include <stdlib.h>
#include <string.h>
#include "bridge.h"
*/
import "C"

import (
	"unsafe"

	"go.uber.org/zap"
)

//export UnityBridgeKitSetNativeCallback
func UnityBridgeKitSetNativeCallback(cb C.bridge_callback) {
	defer guard("UnityBridgeKitSetNativeCallback")

	rt, err := runtime()
	if err != nil {
		zap.L().Error("bridge unavailable", zap.Error(err))
		return
	}
	if cb == nil {
		rt.setHost(nil)
		return
	}
	rt.setHost(func(path, id, method, data string) {
		cPath, cID, cMethod, cData := C.CString(path), C.CString(id), C.CString(method), C.CString(data)
		defer func() {
			C.free(unsafe.Pointer(cPath))
			C.free(unsafe.Pointer(cID))
			C.free(unsafe.Pointer(cMethod))
			C.free(unsafe.Pointer(cData))
		}()
		C.bridge_invoke(cb, cPath, cID, cMethod, cData)
	})
}

//export UnityBridgeKitSendingResponseData
func UnityBridgeKitSendingResponseData(path, id, method, data *C.char) {
	defer guard("UnityBridgeKitSendingResponseData")

	rt, err := runtime()
	if err != nil {
		zap.L().Error("bridge unavailable", zap.Error(err))
		return
	}
	rt.deliver(cBytes(path), cBytes(id), cBytes(method), cBytes(data))
}

// cBytes copies a NUL-terminated string. nil stays nil so the router can
// tell an absent argument from an empty one.
func cBytes(p *C.char) []byte {
	if p == nil {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(p), C.int(C.strlen(p)))
}
