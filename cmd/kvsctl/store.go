package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"microkvs/bank"
	"microkvs/config"
	"microkvs/kvs"
)

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return errors.Wrapf(os.MkdirAll(dir, 0o755), "kvsctl: create %s", dir)
}

// openEngine opens (creating if necessary) the pair of bank files cfg
// names and builds an Engine over them.
func openEngine(cfg config.Config) (*kvs.Engine, func() error, error) {
	for _, dir := range []string{filepath.Dir(cfg.Banks.LeftPath), filepath.Dir(cfg.Banks.RightPath)} {
		if err := ensureDir(dir); err != nil {
			return nil, nil, err
		}
	}

	left, err := bank.OpenFile(cfg.Banks.LeftPath, cfg.Banks.BankSize)
	if err != nil {
		return nil, nil, errors.Wrap(err, "kvsctl: open left bank")
	}
	right, err := bank.OpenFile(cfg.Banks.RightPath, cfg.Banks.BankSize)
	if err != nil {
		left.Close()
		return nil, nil, errors.Wrap(err, "kvsctl: open right bank")
	}

	engine := kvs.New(left, right, kvs.Options{
		DefaultLogSize: cfg.Banks.LogSize,
		Logger:         slog.Default(),
	})

	closeAll := func() error {
		errLeft := left.Close()
		errRight := right.Close()
		if errLeft != nil {
			return errLeft
		}
		return errRight
	}
	return engine, closeAll, nil
}
