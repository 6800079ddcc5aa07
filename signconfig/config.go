// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package signconfig holds the settings of the pktsign tool and reads them
// from an INI style config file.
package signconfig

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/pkt-cash/pktsign/btcutil/er"
	"github.com/pkt-cash/pktsign/signpool"
)

const (
	defaultConfigFilename = "pktsign.conf"
	defaultLogFilename    = "pktsign.log"
	defaultDebugLevel     = "info"
)

// Err is the type of every error returned by this package.
var Err er.ErrorType = er.NewErrorType("signconfig.Err")

// ErrInvalid is returned for a config which parses but cannot be used.
var ErrInvalid = Err.Code("ErrInvalid")

// DefaultHomeDir is where the config, log and journal files live unless
// told otherwise.
var DefaultHomeDir = defaultHomeDir()

func defaultHomeDir() string {
	home, errr := os.UserHomeDir()
	if errr != nil {
		return "."
	}
	return filepath.Join(home, ".pktsign")
}

// Config is every setting of the pktsign tool.
type Config struct {
	Workers         int    `long:"workers" description:"Number of signing workers, 0 for one per CPU"`
	PreserveWorkers bool   `long:"preserveworkers" description:"Keep signing workers alive between batches"`
	Sequential      bool   `long:"sequential" description:"Sign on one goroutine without a worker pool"`
	DebugLevel      string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	LogDir          string `long:"logdir" description:"Directory to log output, empty to log only to stdout"`
	Journal         string `long:"journal" description:"Path of the signing journal database, empty to disable it"`
	MetricsListen   string `long:"metricslisten" description:"Address to serve prometheus metrics on, empty to disable it"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		PreserveWorkers: true,
		DebugLevel:      defaultDebugLevel,
	}
}

// DefaultConfigFile is the config file read when none is named.
func DefaultConfigFile() string {
	return filepath.Join(DefaultHomeDir, defaultConfigFilename)
}

// LogFile is the log file inside LogDir, or "" if file logging is off.
func (c *Config) LogFile() string {
	if c.LogDir == "" {
		return ""
	}
	return filepath.Join(c.LogDir, defaultLogFilename)
}

// PoolConfig is the signpool configuration these settings ask for.
func (c *Config) PoolConfig() signpool.Config {
	return signpool.Config{
		WorkerCount:     c.Workers,
		PreserveWorkers: c.PreserveWorkers,
		Sequential:      c.Sequential,
	}
}

// Validate checks the settings and expands the paths in them.
func (c *Config) Validate() er.R {
	if c.Workers < 0 {
		return ErrInvalid.New(fmt.Sprintf("workers must not be negative, "+
			"got %d", c.Workers), nil)
	}
	if c.DebugLevel == "" {
		c.DebugLevel = defaultDebugLevel
	}
	c.LogDir = CleanAndExpandPath(c.LogDir)
	c.Journal = CleanAndExpandPath(c.Journal)
	return nil
}

// LoadFile reads path over the defaults.  A missing file is only an error
// when mustExist is set.  Unknown options are ignored so the file can be
// shared with other tools.
func LoadFile(path string, mustExist bool) (*Config, er.R) {
	cfg := Default()
	if _, errr := os.Stat(path); os.IsNotExist(errr) && !mustExist {
		return cfg, cfg.Validate()
	}
	parser := flags.NewParser(cfg, flags.IgnoreUnknown)
	if errr := flags.NewIniParser(parser).ParseFile(path); errr != nil {
		return nil, er.E(errr)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteFile writes the settings of c as an INI file.
func (c *Config) WriteFile(path string) er.R {
	if errr := os.MkdirAll(filepath.Dir(path), 0700); errr != nil {
		return er.E(errr)
	}
	parser := flags.NewParser(c, flags.None)
	errr := flags.NewIniParser(parser).WriteFile(path,
		flags.IniIncludeComments|flags.IniIncludeDefaults)
	return er.E(errr)
}

// CreateDefaultConfigFile writes the default settings to path unless a file
// is already there.
func CreateDefaultConfigFile(path string) er.R {
	if _, errr := os.Stat(path); errr == nil {
		return nil
	}
	return Default().WriteFile(path)
}

// CleanAndExpandPath expands environment variables and a leading ~ in path
// and cleans the result.
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, errr := user.Current()
		if errr == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}
		path = strings.Replace(path, "~", homeDir, 1)
	}
	return filepath.Clean(os.ExpandEnv(path))
}
