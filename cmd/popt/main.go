// Package main provides the pytorch-optimizer CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Vectorrent/pytorch-optimizer/internal/loss"
	"github.com/Vectorrent/pytorch-optimizer/internal/lrscheduler"
	"github.com/Vectorrent/pytorch-optimizer/internal/optimizer"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("pytorch-optimizer %s\n", version)
			return
		case "list":
			fmt.Printf("Optimizers:    %s\n", strings.Join(optimizer.Supported(), ", "))
			fmt.Printf("LR schedulers: %s\n", strings.Join(lrscheduler.Supported(), ", "))
			fmt.Printf("Losses:        %s\n", strings.Join(loss.Supported(), ", "))
			return
		}
	}

	fmt.Println("pytorch-optimizer - optimizer collection for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  list       List supported optimizers, schedulers and losses")
}
