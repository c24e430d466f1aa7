/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

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
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/hitzhangjie/tcgdbg/pkg/config"
	"github.com/hitzhangjie/tcgdbg/pkg/logger"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tcgdbg",
	Short: "guest pc breakpoints for the binary translator",
	Long: `tcgdbg debugs the binary translator, it sets breakpoints on guest pc,
which stop at the host code the translator emitted for that pc.

	tcgdbg exec -- ./qemu-aarch64 -L /sysroot ./guest
	tcgdbg attach <pid>`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tcgdbg.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: err, warn, info, verbose, debug")
	rootCmd.PersistentFlags().String("on-missing-module", "", "setbrk when binary not loaded: zero_offset, fail")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("bridge.on_missing_module", rootCmd.PersistentFlags().Lookup("on-missing-module"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".tcgdbg" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".tcgdbg")
	}

	viper.SetEnvPrefix("tcgdbg")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		logger.Verbose("using config file: %s", viper.ConfigFileUsed())
	}
}

// loadConfig validates the merged configuration and applies the log level
func loadConfig() (*config.Config, error) {
	conf, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	lvl, err := logger.ParseLevel(conf.Log.Level)
	if err != nil {
		return nil, err
	}
	logger.SetMaxLevel(lvl)
	return conf, nil
}
