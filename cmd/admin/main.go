// Command admin inspects and maintains a server database offline. It opens
// the same SQLite file the server uses; run it against a live server only for
// read commands.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"moltmud.ai/internal/store"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "agents":
			agentsCmd(os.Args[2:])
			return
		case "fragments":
			fragmentsCmd(os.Args[2:])
			return
		case "purchases":
			purchasesCmd(os.Args[2:])
			return
		case "ledger":
			ledgerCmd(os.Args[2:])
			return
		case "expire":
			expireCmd(os.Args[2:])
			return
		}
	}
	statsCmd(os.Args[1:])
}

func openStore(fs *flag.FlagSet, args []string) *store.Store {
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "path to sqlite database (default: <data>/mud.db)")
	_ = fs.Parse(args)

	dp := strings.TrimSpace(*dbPath)
	if dp == "" {
		dp = filepath.Join(*dataDir, "mud.db")
	}
	st, err := store.Open(dp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	return st
}

func statsCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	st := openStore(fs, args)
	defer st.Close()

	s, err := st.Stats()
	if err != nil {
		fmt.Fprintln(os.Stderr, "stats:", err)
		os.Exit(1)
	}
	fmt.Printf("agents           %d\n", s.Agents)
	fmt.Printf("active sessions  %d\n", s.ActiveSessions)
	fmt.Printf("fragments        %d\n", s.Fragments)
	fmt.Printf("purchases        %d\n", s.Purchases)
	fmt.Printf("messages         %d\n", s.Messages)
	fmt.Printf("total influence  %.2f\n", s.TotalInfluence)
}

func agentsCmd(args []string) {
	fs := flag.NewFlagSet("agents", flag.ExitOnError)
	st := openStore(fs, args)
	defer st.Close()

	agents, err := st.ListAgents()
	if err != nil {
		fmt.Fprintln(os.Stderr, "list agents:", err)
		os.Exit(1)
	}
	fmt.Printf("%-24s %-16s %10s %10s %10s %6s\n", "ID", "NAME", "INFLUENCE", "EARNED", "SPENT", "REP")
	for _, a := range agents {
		fmt.Printf("%-24s %-16s %10.2f %10.2f %10.2f %6.2f\n",
			a.ID, a.Name, a.Influence, a.InfluenceEarned, a.InfluenceSpent, a.Reputation())
	}
}

func fragmentsCmd(args []string) {
	fs := flag.NewFlagSet("fragments", flag.ExitOnError)
	st := openStore(fs, args)
	defer st.Close()

	frags, err := st.ListFragments()
	if err != nil {
		fmt.Fprintln(os.Stderr, "list fragments:", err)
		os.Exit(1)
	}
	fmt.Printf("%-42s %-24s %-10s %6s %6s %8s\n", "ID", "AUTHOR", "ROOM", "SALES", "AVG", "VALUE")
	for _, f := range frags {
		fmt.Printf("%-42s %-24s %-10s %6d %6.2f %8.2f\n",
			f.ID, f.AgentID, f.RoomID, f.PurchaseCount, f.AvgRating(), f.CurrentValue)
	}
}

func purchasesCmd(args []string) {
	fs := flag.NewFlagSet("purchases", flag.ExitOnError)
	st := openStore(fs, args)
	defer st.Close()

	purs, err := st.ListPurchases()
	if err != nil {
		fmt.Fprintln(os.Stderr, "list purchases:", err)
		os.Exit(1)
	}
	fmt.Printf("%-40s %-42s %-24s %8s %6s\n", "ID", "FRAGMENT", "BUYER", "AMOUNT", "RATING")
	for _, p := range purs {
		rating := "-"
		if p.Rating != 0 {
			rating = fmt.Sprintf("%d", p.Rating)
		}
		fmt.Printf("%-40s %-42s %-24s %8.2f %6s\n", p.ID, p.FragmentID, p.BuyerID, p.Amount, rating)
	}
}

// ledgerCmd verifies influence conservation: the sum of balances must equal
// total minted (starting balances) because purchases only move influence.
func ledgerCmd(args []string) {
	fs := flag.NewFlagSet("ledger", flag.ExitOnError)
	starting := fs.Float64("starting", 10, "starting influence per agent")
	st := openStore(fs, args)
	defer st.Close()

	balance, earned, spent, err := st.TotalInfluence()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ledger:", err)
		os.Exit(1)
	}
	agents, err := st.ListAgents()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ledger:", err)
		os.Exit(1)
	}

	minted := float64(len(agents)) * *starting
	fmt.Printf("balances  %.4f\n", balance)
	fmt.Printf("minted    %.4f (%d agents x %.2f)\n", minted, len(agents), *starting)
	fmt.Printf("earned    %.4f\n", earned)
	fmt.Printf("spent     %.4f\n", spent)

	const eps = 1e-6
	if diff := balance - minted; diff > eps || diff < -eps {
		fmt.Printf("MISMATCH  %.6f\n", diff)
		os.Exit(1)
	}
	if diff := earned - spent; diff > eps || diff < -eps {
		fmt.Printf("MISMATCH  earned-spent %.6f\n", diff)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func expireCmd(args []string) {
	fs := flag.NewFlagSet("expire", flag.ExitOnError)
	timeoutMin := fs.Int("timeout", 60, "idle timeout in minutes")
	st := openStore(fs, args)
	defer st.Close()

	cutoff := time.Now().Add(-time.Duration(*timeoutMin) * time.Minute).Unix()
	n, err := st.ExpireIdleSessions(cutoff)
	if err != nil {
		fmt.Fprintln(os.Stderr, "expire:", err)
		os.Exit(1)
	}
	fmt.Printf("expired %d idle sessions\n", n)
}
