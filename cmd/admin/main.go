package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"universalcoins.gm/internal/coin"
	"universalcoins.gm/internal/config"
	"universalcoins.gm/internal/ledger"
	"universalcoins.gm/internal/ledger/archive"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "balances":
			balancesCmd(os.Args[2:])
			return
		case "players":
			playersCmd(os.Args[2:])
			return
		case "deliveries":
			deliveriesCmd(os.Args[2:])
			return
		case "archive":
			archiveCmd(os.Args[2:])
			return
		case "index":
			indexCmd(os.Args[2:])
			return
		case "tx":
			txCmd(os.Args[2:])
			return
		case "catalog":
			catalogCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin <balances|players|deliveries|archive|index|tx|catalog> [flags]")
	os.Exit(2)
}

func configFlags(fs *flag.FlagSet) (*string, *string) {
	cfgPath := fs.String("config", "config.yaml", "configuration file")
	dataDir := fs.String("data", "", "ledger data directory (overrides config)")
	return cfgPath, dataDir
}

func loadConfig(cfgPath, dataDir string) config.Config {
	c, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
		c = config.Default()
	}
	if dataDir != "" {
		c.DataDir = dataDir
	}
	return c
}

func openStore(c config.Config) *ledger.Store {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	s, err := ledger.Open(c.DataDir, ledger.Options{Logger: log, Audit: c.Audit})
	if err != nil {
		fmt.Fprintln(os.Stderr, "open ledger:", err)
		os.Exit(1)
	}
	return s
}

func loadCatalog(c config.Config) *coin.Catalog {
	if c.Catalog == "" {
		return coin.DefaultCatalog()
	}
	cat, err := coin.LoadCatalog(c.Catalog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "catalog:", err)
		os.Exit(1)
	}
	return cat
}

func catalogCmd(args []string) {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	cfgPath, dataDir := configFlags(fs)
	_ = fs.Parse(args)

	cat := loadCatalog(loadConfig(*cfgPath, *dataDir))
	for _, d := range cat.Denominations() {
		fmt.Printf("%s\t%d\tstack limit %d\n", d.Item, d.Value, d.StackLimit)
	}
}

func balancesCmd(args []string) {
	fs := flag.NewFlagSet("balances", flag.ExitOnError)
	cfgPath, dataDir := configFlags(fs)
	_ = fs.Parse(args)

	s := openStore(loadConfig(*cfgPath, *dataDir))
	defer s.Close()

	balances, err := s.AllAccountBalances()
	if err != nil {
		fmt.Fprintln(os.Stderr, "balances:", err)
		os.Exit(1)
	}

	addrs := make([]ledger.AccountAddress, 0, len(balances))
	for addr := range balances {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Number < addrs[j].Number })
	for _, addr := range addrs {
		fmt.Printf("%s\t%s\t%d\n", addr.Number, addr.Name, balances[addr])
	}
}

func playersCmd(args []string) {
	fs := flag.NewFlagSet("players", flag.ExitOnError)
	cfgPath, dataDir := configFlags(fs)
	name := fs.String("name", "", "name prefix to search (empty lists all players)")
	_ = fs.Parse(args)

	s := openStore(loadConfig(*cfgPath, *dataDir))
	defer s.Close()

	if *name != "" {
		matches, err := s.FindPlayersByName(*name)
		if err != nil {
			fmt.Fprintln(os.Stderr, "find players:", err)
			os.Exit(1)
		}
		for id, playerName := range matches {
			fmt.Printf("%s\t%s\n", id, playerName)
		}
		return
	}

	players, err := s.AllPlayerData()
	if err != nil {
		fmt.Fprintln(os.Stderr, "players:", err)
		os.Exit(1)
	}
	for _, p := range players {
		primary := "-"
		if p.Primary != nil {
			primary = p.Primary.Number
		}
		fmt.Printf("%s\t%s\t%d alternative(s)\n", p.ID, primary, len(p.Alternatives))
	}
}

func deliveriesCmd(args []string) {
	fs := flag.NewFlagSet("deliveries", flag.ExitOnError)
	cfgPath, dataDir := configFlags(fs)
	player := fs.String("player", "", "player uuid (required)")
	_ = fs.Parse(args)

	id, err := uuid.Parse(*player)
	if err != nil {
		fmt.Fprintln(os.Stderr, "missing or bad -player:", err)
		os.Exit(2)
	}

	s := openStore(loadConfig(*cfgPath, *dataDir))
	defer s.Close()

	n, err := s.PendingDeliveries(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "deliveries:", err)
		os.Exit(1)
	}
	fmt.Printf("%d pending\n", n)
}

func archiveCmd(args []string) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	cfgPath, dataDir := configFlags(fs)
	hours := fs.Int("hours", -1, "archive buckets older than this many hours (defaults to config)")
	_ = fs.Parse(args)

	c := loadConfig(*cfgPath, *dataDir)
	if *hours < 0 {
		*hours = c.ArchiveAfterHours
	}

	cutoff := time.Now().Add(-time.Duration(*hours) * time.Hour)
	archived, err := archive.ArchiveClosedBuckets(c.DataDir, cutoff)
	if err != nil {
		fmt.Fprintln(os.Stderr, "archive:", err)
		os.Exit(1)
	}
	for _, bucket := range archived {
		fmt.Println(bucket)
	}
	fmt.Printf("%d bucket(s) archived\n", len(archived))
}
