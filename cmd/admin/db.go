package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"universalcoins.gm/internal/ledger/txindex"
)

func indexCmd(args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	cfgPath, dataDir := configFlags(fs)
	dbPath := fs.String("db", "", "sqlite index path (defaults to config)")
	_ = fs.Parse(args)

	c := loadConfig(*cfgPath, *dataDir)
	if *dbPath == "" {
		*dbPath = c.IndexDB
	}

	idx, err := txindex.Open(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	defer idx.Close()

	n, err := idx.Rebuild(c.DataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rebuild:", err)
		os.Exit(1)
	}
	fmt.Printf("%d transaction(s) indexed\n", n)
}

func txCmd(args []string) {
	fs := flag.NewFlagSet("tx", flag.ExitOnError)
	cfgPath, dataDir := configFlags(fs)
	dbPath := fs.String("db", "", "sqlite index path (defaults to config)")
	account := fs.String("account", "", "filter by account number")
	machine := fs.String("machine", "", "filter by machine id")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	c := loadConfig(*cfgPath, *dataDir)
	if *dbPath == "" {
		*dbPath = c.IndexDB
	}

	idx, err := txindex.Open(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	defer idx.Close()

	var rows []txindex.Row
	switch {
	case *account != "":
		rows, err = idx.ByAccount(*account, *limit)
	case *machine != "":
		rows, err = idx.ByMachine(*machine, *limit)
	default:
		rows, err = idx.Recent(*limit)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

func printJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal:", err)
		os.Exit(1)
	}
	fmt.Println(string(b))
}
