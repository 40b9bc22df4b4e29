// Command kvsctl is a thin command-line front end over the kvs engine,
// for provisioning, inspecting, and poking at a two-bank store without
// writing Go.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfgPath := os.Getenv("KVSCTL_CONFIG")
	if cfgPath == "" {
		cfgPath = "./kvsctl.yaml"
	}
	cfg, err := initConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kvsctl: loading config: %v\n", err)
		os.Exit(1)
	}
	initLogger(&cfg)

	args := os.Args[2:]
	var runErr error
	switch os.Args[1] {
	case "init":
		runErr = runInit(cfg)
	case "put":
		runErr = runPut(cfg, args)
	case "get":
		runErr = runGet(cfg, args)
	case "rm":
		runErr = runRm(cfg, args)
	case "ls":
		runErr = runLs(cfg, args)
	case "compact":
		runErr = runCompact(cfg)
	case "wipe":
		runErr = runWipe(cfg, args)
	default:
		usage()
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "kvsctl: %v\n", runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: kvsctl <command> [args]

commands:
  init                 format both bank files per config
  put <key> <value>    store a value
  get <key>            print a value
  rm <key>             delete a value (writes a tombstone)
  ls                   list all keys, sizes, and revision counts
  compact              force a garbage-collecting compaction
  wipe [--all]         erase the inactive bank, or both with --all`)
}
