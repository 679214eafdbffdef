//go:build mage
// +build mage

/*
Copyright 2022

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Default = Build

// Build compiles the import-jquants binary.
func Build() error {
	return sh.RunV("go", "build", "-o", "import-jquants", ".")
}

// Test runs the test suite.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Lint vets the source tree.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Install builds and installs the binary into GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	return sh.RunV("go", "install", ".")
}
