// Copyright (c) 2013-2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package version

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btclog"
)

// appBuild is defined as a variable so it can be overridden during the build
// process with '-ldflags "-X main.appBuild foo' if needed.  It MUST only
// contain characters from semanticAlphabet per the semantic versioning spec.
var appBuild string

var appMajor uint = 0
var appMinor uint = 0
var appPatch uint = 0
var version = "0.0.0-custom"
var custom = true
var prerelease = false
var dirty = false

func init() {
	parse(appBuild)
}

// parse reads a `git describe` string such as pktsign-v1.1.0-beta-19-gfa3ba767.
func parse(build string) {
	if len(build) == 0 {
		// custom build
		return
	}
	tag := "-custom"
	if _, err := fmt.Sscanf(build, "pktsign-v%d.%d.%d", &appMajor, &appMinor, &appPatch); err == nil {
		tag = ""
		custom = false
		if x := regexp.MustCompile(`-[0-9]+-g[0-9a-f]{8}`).FindString(build); len(x) > 0 {
			tag += "-" + x[strings.LastIndex(x, "-")+2:]
			prerelease = true
		}
		if strings.Contains(build, "-dirty") {
			tag += "-dirty"
			dirty = true
		}
	}
	version = fmt.Sprintf("%d.%d.%d%s", appMajor, appMinor, appPatch, tag)
}

func IsCustom() bool {
	return custom
}

func IsDirty() bool {
	return dirty
}

func IsPrerelease() bool {
	return prerelease
}

func Version() string {
	return version
}

func WarnIfPrerelease(log btclog.Logger) {
	if IsCustom() || IsDirty() {
		log.Warnf("THIS IS A DEVELOPMENT VERSION, THINGS MAY BREAK")
	} else if IsPrerelease() {
		log.Infof("This is a pre-release version")
	}
}
