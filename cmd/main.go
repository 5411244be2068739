/*
Copyright 2024 Blnk Finance Authors.

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
	"fmt"
	"log"
	"os"

	"github.com/blnkfinance/reachout"
	"github.com/blnkfinance/reachout/config"
	"github.com/blnkfinance/reachout/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Reachout represents the CLI application, encapsulating the root Cobra command.
type Reachout struct {
	cmd *cobra.Command
}

// reachoutInstance holds the engine and the configuration it was built from.
// The engine is only built by commands that need it.
type reachoutInstance struct {
	reachout *reachout.Reachout
	cnf      *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration file before any command runs.
func preRun(app *reachoutInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(*configFile); err != nil {
			log.Fatal("error loading config ", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}
		app.cnf = cnf
		return nil
	}
}

// engine connects to the datasource and builds the campaign engine on first use.
func (app *reachoutInstance) engine(opts ...reachout.Option) (*reachout.Reachout, error) {
	if app.reachout != nil {
		return app.reachout, nil
	}

	db, err := database.NewDataSource(app.cnf)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	r, err := reachout.NewReachout(db, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating reachout: %v", err)
	}
	app.reachout = r
	return r, nil
}

// NewCLI creates the command-line interface with the start, workers, run,
// migrate and config subcommands.
func NewCLI() *Reachout {
	var configFile string
	app := &reachoutInstance{}

	rootCmd := &cobra.Command{
		Use:   "reachout",
		Short: "Outreach campaigns with a human in the loop",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./reachout.json", "Configuration file for reachout")
	rootCmd.PersistentPreRunE = preRun(app, &configFile)

	rootCmd.AddCommand(serverCommands(app))
	rootCmd.AddCommand(workerCommands(app))
	rootCmd.AddCommand(runCommands(app))
	rootCmd.AddCommand(migrateCommands(app))
	rootCmd.AddCommand(configCommands())

	return &Reachout{cmd: rootCmd}
}

func (w Reachout) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
