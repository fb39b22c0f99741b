// Command hostbridge builds the bridge as a shared library for a native host:
//
//	go build -buildmode=c-shared -o libsteezebridge.so ./cmd/hostbridge
//
// The host includes pkg/hostbridge/bridge.h for the callback type.
package main

import (
	_ "github.com/joeydtaylor/steeze-bridge/pkg/hostbridge"
)

func main() {}
