package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/pkt-cash/pktsign/btcutil/er"
	pktlog "github.com/pkt-cash/pktsign/pktlog/log"
	"github.com/pkt-cash/pktsign/signconfig"
	"github.com/pkt-cash/pktsign/signconfig/version"
)

const (
	logThresholdKB = 10 * 1024
	logMaxRolls    = 3
)

// cfg is loaded by the Before hook, commands read it.
var cfg *signconfig.Config

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "configfile, C",
		Value: signconfig.DefaultConfigFile(),
		Usage: "path to the config file",
	},
	cli.IntFlag{
		Name:  "workers",
		Usage: "number of signing workers, 0 for one per CPU",
	},
	cli.BoolFlag{
		Name:  "sequential",
		Usage: "sign on one goroutine without a worker pool",
	},
	cli.BoolFlag{
		Name:  "releaseworkers",
		Usage: "stop signing workers after each batch",
	},
	cli.StringFlag{
		Name:  "debuglevel",
		Usage: "logging level, either a level or SUBSYSTEM=level pairs",
	},
	cli.StringFlag{
		Name:  "logdir",
		Usage: "directory to write the log file to",
	},
	cli.StringFlag{
		Name:  "journal",
		Usage: "path of the signing journal database",
	},
	cli.StringFlag{
		Name:  "metricslisten",
		Usage: "address to serve prometheus metrics on while signing",
	},
}

// loadConfig reads the config file and puts the command line flags over it.
func loadConfig(c *cli.Context) er.R {
	loaded, err := signconfig.LoadFile(c.GlobalString("configfile"),
		c.GlobalIsSet("configfile"))
	if err != nil {
		return err
	}
	if c.GlobalIsSet("workers") {
		loaded.Workers = c.GlobalInt("workers")
	}
	if c.GlobalIsSet("sequential") {
		loaded.Sequential = c.GlobalBool("sequential")
	}
	if c.GlobalIsSet("releaseworkers") {
		loaded.PreserveWorkers = !c.GlobalBool("releaseworkers")
	}
	for _, name := range []string{"debuglevel", "logdir", "journal", "metricslisten"} {
		if !c.GlobalIsSet(name) {
			continue
		}
		v := c.GlobalString(name)
		switch name {
		case "debuglevel":
			loaded.DebugLevel = v
		case "logdir":
			loaded.LogDir = v
		case "journal":
			loaded.Journal = v
		case "metricslisten":
			loaded.MetricsListen = v
		}
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	if err := pktlog.SetLogLevels(loaded.DebugLevel); err != nil {
		return err
	}
	if logFile := loaded.LogFile(); logFile != "" {
		if err := pktlog.InitLogRotator(logFile, logThresholdKB, logMaxRolls); err != nil {
			return err
		}
	}
	cfg = loaded
	version.WarnIfPrerelease(log)
	return nil
}

// actionDecorator lets commands return er.R.
func actionDecorator(f func(*cli.Context) er.R) func(*cli.Context) error {
	return func(c *cli.Context) error {
		if err := f(c); err != nil {
			log.Debugf("%s failed: %v", c.Command.Name, err.String())
			return er.Native(err)
		}
		return nil
	}
}

func fatal(err er.R) {
	fmt.Fprintf(os.Stderr, "[pktsign] %v\n", err.Message())
	pktlog.Close()
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "pktsign"
	app.Version = version.Version()
	app.Usage = "sign partially signed bitcoin transactions in parallel"
	app.Flags = globalFlags
	app.Before = func(c *cli.Context) error {
		return er.Native(loadConfig(c))
	}
	app.After = func(c *cli.Context) error {
		pktlog.Close()
		return nil
	}
	app.Commands = []cli.Command{
		signCommand,
		decompileCommand,
		compileCommand,
		checkSigCommand,
		checkPubKeyCommand,
		initConfigCommand,
	}

	if errr := app.Run(os.Args); errr != nil {
		fatal(er.E(errr))
	}
}
