// Copyright (c) 2020 The PKT developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	flags "github.com/jessevdk/go-flags"
)

const versionVar = "github.com/pkt-cash/pktsign/signconfig/version.appBuild"

type options struct {
	BinDir  string `long:"bindir" default:"./bin" description:"Directory to write pktsign into"`
	Test    bool   `long:"test" description:"Run the tests with the race detector after building"`
	NoDirty bool   `long:"nodirty" description:"Refuse to build from a tree with uncommitted changes"`
}

func die(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// run executes the go or git tool and returns its trimmed output.  With
// echo set the command is printed and its output goes to the terminal.
func run(echo bool, name string, arg ...string) (string, error) {
	cmd := exec.Command(name, arg...)
	if echo {
		fmt.Println(strings.Join(append([]string{name}, arg...), " "))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return "", cmd.Run()
	}
	out, err := cmd.Output()
	return strings.TrimSpace(string(out)), err
}

// buildID is the git description of HEAD, with -dirty appended when the
// tree has uncommitted changes.
func buildID(opts *options) string {
	run(false, "git", "update-index", "-q", "--refresh")
	id, err := run(false, "git", "describe", "--tags", "HEAD")
	if err != nil {
		die("git describe: %v", err)
	}
	if _, err := run(false, "git", "diff", "--quiet"); err != nil {
		if opts.NoDirty {
			die("Build is dirty, aborting")
		}
		id += "-dirty"
	}
	return id
}

func main() {
	if info, err := os.Stat("./contrib/build/build.go"); err != nil || info.IsDir() {
		die("this script must be invoked from the project root")
	}
	opts := options{}
	if _, err := flags.Parse(&opts); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if err := os.MkdirAll(opts.BinDir, 0755); err != nil {
		die("mkdir %s: %v", opts.BinDir, err)
	}

	name := "pktsign"
	if os.Getenv("GOOS") == "windows" {
		name += ".exe"
	}
	fmt.Printf("Building %s\n", name)
	if _, err := run(true, "go", "build", "-trimpath",
		"-ldflags=-X "+versionVar+"="+buildID(&opts),
		"-o", filepath.Join(opts.BinDir, name), "./cmd/pktsign"); err != nil {
		die("build failed: %v", err)
	}

	if opts.Test {
		fmt.Println("Running tests")
		if _, err := run(true, "go", "test", "-count=1", "-cover", "-race",
			"./..."); err != nil {
			die("tests failed: %v", err)
		}
	} else {
		fmt.Println("Pass --test if you want to run the tests as well")
	}
	fmt.Printf("Everything looks good, type `%s initconfig` to write a "+
		"config file\n", filepath.Join(opts.BinDir, name))
}
