// Command dummyc builds the dummyc routine as a Go plugin:
//
//	go build -buildmode=plugin -o dummyc.so ./components/surfacelayer/dummy/plugin/dummyc
package main

import (
	"github.com/sarchlab/hydrocouple/backend"
	"github.com/sarchlab/hydrocouple/components/surfacelayer/dummy"
)

// Routine is looked up by backend.PluginResolver.
var Routine backend.Routine = dummy.CRoutine()

func main() {}
