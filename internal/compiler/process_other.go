//go:build !unix

package compiler

import "os/exec"

func configureProcessGroup(*exec.Cmd) {}
