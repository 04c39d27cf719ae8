// +build mage

package main

import (
	"log"
	"os"
	"path"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// MageRoot is the location of this file. Populated by initPaths().
var MageRoot string

func initPaths() {
	must := func(_err error) {
		if _err != nil {
			log.Fatal(_err)
		}
	}
	var err error
	MageRoot, err = os.Getwd()
	must(err)
}

var Default = Build

// Build compiles the pmw command.
func Build() {
	initPaths()
	must := func(err error) {
		if err != nil {
			log.Fatal(err)
		}
	}
	must(sh.Run("go", "build", "-o", path.Join(MageRoot, "pmw"), "./cmd/pmw"))
}

// Test vets and runs every package's tests.
func Test() {
	must := func(err error) {
		if err != nil {
			log.Fatal(err)
		}
	}
	must(sh.Run("go", "vet", "./..."))
	must(sh.Run("go", "test", "./..."))
}

// Run builds and invokes pmw on the file named in the PMW_INPUT
// environment variable, dumping the parse tree.
func Run() {
	must := func(err error) {
		if err != nil {
			log.Fatal(err)
		}
	}
	mg.Deps(Build)
	must(sh.Run(path.Join(MageRoot, "pmw"), "-dtp", os.Getenv("PMW_INPUT")))
}

// Clean removes the built binary.
func Clean() {
	initPaths()
	must := func(_err error) {
		if _err != nil {
			log.Fatal(_err)
		}
	}
	must(os.Remove(path.Join(MageRoot, "pmw")))
}
