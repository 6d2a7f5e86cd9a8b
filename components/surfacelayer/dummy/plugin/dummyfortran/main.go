// Command dummyfortran builds the dummyfortran routine as a Go plugin.
package main

import (
	"github.com/sarchlab/hydrocouple/backend"
	"github.com/sarchlab/hydrocouple/components/surfacelayer/dummy"
)

// Routine is looked up by backend.PluginResolver.
var Routine backend.Routine = dummy.FortranRoutine()

func main() {}
