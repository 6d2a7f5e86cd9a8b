// Command hydrocouple describes, checks, and runs coupled hydrological
// components.
package main

import "github.com/sarchlab/hydrocouple/hydrocouple/cmd"

func main() {
	cmd.Execute()
}
