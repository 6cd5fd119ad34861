//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Opens the testbed window. ANIMA_CONFIG selects a config file.
func (Run) Testbed() error {
	fmt.Println("Run testbed...")
	args := []string{"run", "."}
	if cfg := os.Getenv("ANIMA_CONFIG"); cfg != "" {
		args = append(args, "-config", cfg)
	}
	_, err := executeCmd("go", withArgs(args...), withStream())
	return err
}

// Runs the testbed for a few hundred frames without a window.
func (Run) Headless() error {
	_, err := executeCmd("go", withArgs("run", ".", "-headless", "300"), withDir("."), withStream())
	return err
}
