// Command run synthesizes circuits for a few matrix product states,
// simulates them, and archives the results under a run directory.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fumin/qprep"
	"github.com/fumin/qprep/archive"
	"github.com/fumin/qprep/mps"
)

var (
	runDir = flag.String("d", filepath.Join("runs", "qprep"), "run directory")
	seed   = flag.Uint64("seed", 25519, "random seed")
	shots  = flag.Int("shots", 4096, "measurement shots per circuit")
)

type Config struct {
	name    string
	sites   int
	bondDim int
}

func newConfigs() []Config {
	configs := []Config{{name: "ghz", sites: 5, bondDim: 2}}
	for _, bondDim := range []int{2, 4, 8} {
		cfg := Config{sites: 4, bondDim: bondDim}
		cfg.name = fmt.Sprintf("random%d", bondDim)
		configs = append(configs, cfg)
	}
	return configs
}

type Result struct {
	cfg   Config
	gates int
	stats qprep.Statistics
}

func solve(rng *rand.Rand, cfg Config) (Result, error) {
	var dsc *mps.Description
	switch cfg.name {
	case "ghz":
		dsc = mps.GHZ(cfg.sites)
	default:
		dsc = mps.Rand(rng, cfg.sites, 2, cfg.bondDim)
	}

	c, err := qprep.Synthesize(dsc)
	if err != nil {
		return Result{}, errors.Wrap(err, "")
	}

	probs := qprep.Probabilities(c)
	counts := qprep.Sample(rng, probs, *shots)
	stats, err := qprep.GetStatistics(probs, counts)
	if err != nil {
		return Result{}, errors.Wrap(err, "")
	}

	cPath := filepath.Join(*runDir, cfg.name+".sqlite3")
	if err := archive.Save(cPath, c); err != nil {
		return Result{}, errors.Wrap(err, cPath)
	}

	return Result{cfg: cfg, gates: len(c.Gates), stats: stats}, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	if err := os.MkdirAll(*runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	rng := rand.New(rand.NewPCG(*seed, *seed+1))

	configs := newConfigs()
	results := make([]Result, 0, len(configs))
	for _, cfg := range configs {
		res, err := solve(rng, cfg)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v", cfg))
		}
		results = append(results, res)
		log.Printf("%#v", res)
	}

	fmt.Printf("name,sites,bond,gates,entropy,tv\n")
	for _, r := range results {
		fmt.Printf("%s,%d,%d,%d,%f,%f\n", r.cfg.name, r.cfg.sites, r.cfg.bondDim, r.gates, r.stats.Entropy, r.stats.TotalVariation)
	}

	return nil
}
