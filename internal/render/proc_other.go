//go:build !unix

package render

import "os/exec"

// configureProcess keeps exec's default cancellation, which kills only mmdc itself.
func configureProcess(cmd *exec.Cmd) {}
