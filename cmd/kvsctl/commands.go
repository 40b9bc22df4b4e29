package main

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"

	"microkvs/config"
	"microkvs/errs"
	"microkvs/kvs"
	"microkvs/layout"
)

// isBlankKey reports whether name pads out to the reserved all-0xFF
// sentinel key, which Store always rejects.
func isBlankKey(name string) bool {
	return layout.PadKey(name) == layout.BlankKey()
}

func runInit(cfg config.Config) error {
	engine, closeAll, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeAll()
	fmt.Printf("initialized store, active bank version %d\n", engine.BankVersion())
	return nil
}

func runPut(cfg config.Config, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: kvsctl put <key> <value>")
	}
	engine, closeAll, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	if isBlankKey(args[0]) {
		return errs.ErrKeyBlank
	}
	if uint32(len(args[1])) > engine.DataCapacity() {
		return errs.ErrOutOfSpace
	}
	if !engine.Store(args[0], []byte(args[1])) {
		return errs.ErrMediaWrite
	}
	return nil
}

func runGet(cfg config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: kvsctl get <key>")
	}
	engine, closeAll, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	entry, ok := engine.Find(args[0])
	if !ok {
		return errs.ErrNotFound
	}
	fmt.Println(string(engine.Map(entry)))
	return nil
}

func runRm(cfg config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: kvsctl rm <key>")
	}
	engine, closeAll, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	if isBlankKey(args[0]) {
		return errs.ErrKeyBlank
	}
	if !engine.Store(args[0], nil) {
		return errs.ErrMediaWrite
	}
	return nil
}

func runLs(cfg config.Config, args []string) error {
	capacity := uint32(4096)
	if len(args) == 1 {
		var n uint32
		if _, err := fmt.Sscanf(args[0], "%d", &n); err == nil && n > 0 {
			capacity = n
		}
	}

	engine, closeAll, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	entries := make([]kvs.ListEntry, capacity)
	n := engine.Enumerate(entries)
	for i := uint32(0); i < n; i++ {
		e := entries[i]
		status := "live"
		if e.Size == 0 {
			status = "tombstone"
		}
		fmt.Printf("%-20s size=%-8d revs=%-4d %s\n", trimKey(e.Key[:]), e.Size, e.Revs, status)
	}
	return nil
}

// trimKey strips the trailing zero padding PadKey added so a key name
// prints cleanly.
func trimKey(key []byte) string {
	return string(bytes.TrimRight(key, "\x00"))
}

func runCompact(cfg config.Config) error {
	engine, closeAll, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	if !engine.Compact() {
		return errs.ErrMediaWrite
	}
	fmt.Printf("compacted, active bank version %d\n", engine.BankVersion())
	return nil
}

func runWipe(cfg config.Config, args []string) error {
	engine, closeAll, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	all := len(args) == 1 && args[0] == "--all"
	var ok bool
	if all {
		ok = engine.WipeAll()
	} else {
		ok = engine.WipeInactive()
	}
	if !ok {
		return errs.ErrMediaWrite
	}
	return nil
}
