// Command remobj is a generic provider/consumer CLI for remobj-go, useful
// for smoke-testing a channel or scripting ad hoc remote calls without
// writing Go.
package main

import "github.com/remobj/remobj-go/cmd/remobj/cmd"

func main() {
	cmd.Execute()
}
