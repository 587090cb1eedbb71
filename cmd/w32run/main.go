// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"w32run/internal/config"
	"w32run/winapi"
)

var (
	verbose        bool
	dllSearchPaths string
	registryPath   string
	threadBudget   int
)

func run(cmd *cobra.Command, args []string) {
	exePath := args[0]
	var dllPaths []string
	if dllSearchPaths != "" {
		dllPaths = strings.Split(dllSearchPaths, string(os.PathListSeparator))
	}

	cfg := config.New(exePath, dllPaths)
	cfg.Verbose = verbose
	if registryPath != "" {
		cfg.RegistryPath = registryPath
	}
	if threadBudget > 0 {
		cfg.ThreadSliceBudget = threadBudget
	}

	code, err := winapi.RunConfig(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(code)
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "w32run",
		Short: "A user-mode emulator for 32-bit Windows PE executables",
		Long:  "w32run loads a 32-bit PE/COFF executable, interprets its IA-32 instructions, and answers its Win32 imports without a real Windows kernel.",
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("w32run 0.1.0")
		},
	}

	var runCmd = &cobra.Command{
		Use:   "run [flags] <executable>",
		Short: "Run a 32-bit PE executable under emulation",
		Args:  cobra.ExactArgs(1),
		Run:   run,
	}
	runCmd.Flags().StringVarP(&dllSearchPaths, "dll-path", "L", "", "colon/semicolon-separated DLL search paths")
	runCmd.Flags().StringVarP(&registryPath, "registry", "r", "", "path to the JSON registry backing store")
	runCmd.Flags().IntVarP(&threadBudget, "thread-budget", "b", 0, "scheduler instruction budget per time slice")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
