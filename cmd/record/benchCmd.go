package record

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/ValentinKolb/perfDB/cmd/util"
	"github.com/ValentinKolb/perfDB/lib/db"
	"github.com/ValentinKolb/perfDB/lib/db/codec"
	"github.com/ValentinKolb/perfDB/lib/problem"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Performance testing tool for the database",
		Long: util.WrapString(`Runs store, update and find operations against a scratch copy of the database
(or an empty file) and prints latency percentiles per operation.
The configured database itself is never modified.`),
		Args: cobra.NoArgs,
		RunE: runBench,
	}

	benchSolvers = []string{"ConvAsm3x3U", "ConvOclDirectFwd", "ConvHipImplicitGemm", "ConvWinograd"}
)

func init() {
	key := "ops"
	benchCmd.Flags().Int(key, 1000, util.WrapString("Number of operations per test"))
	key = "keys"
	benchCmd.Flags().Int(key, 200, util.WrapString("How many different problem configs to use for the tests"))
	key = "seed"
	benchCmd.Flags().Int64(key, 42, util.WrapString("Seed of the random problem configs"))
}

// benchTest is one timed test of the benchmark
type benchTest struct {
	name string
	op   func(i int) error
}

func runBench(_ *cobra.Command, _ []string) error {
	ops := viper.GetInt("ops")
	numKeys := viper.GetInt("keys")
	if ops <= 0 || numKeys <= 0 {
		return fmt.Errorf("ops and keys must be positive")
	}

	fmt.Println("Performance testing tool for perfDB")
	fmt.Println(util.GetConfig().String())

	// Work on a scratch copy so the benchmark never touches the real database
	dir, err := os.MkdirTemp("", "perfdb-bench")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	scratch := util.GetConfig()
	scratch.DBPath = filepath.Join(dir, filepath.Base(perfDB.Path()))
	if err := copyFile(perfDB.Path(), scratch.DBPath); err != nil {
		return err
	}
	bench, err := util.OpenDB(scratch)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(viper.GetInt64("seed")))
	problems := make([]problem.ConvProblem, numKeys)
	for i := range problems {
		problems[i] = randomProblem(rng)
	}
	getProblem := func(i int) problem.ConvProblem {
		return problems[i%numKeys]
	}
	getSolver := func(i int) string {
		return benchSolvers[(i/numKeys)%len(benchSolvers)]
	}

	tests := []benchTest{
		{"store-new", func(i int) error {
			_, err := db.Store(bench, getProblem(i), getSolver(i), problem.NewPerfConfig(3, i%10, 4, 1))
			return err
		}},
		{"store-inplace", func(i int) error {
			// single digit values keep the line length
			_, err := db.Store(bench, getProblem(i), getSolver(i), problem.NewPerfConfig(3, (i+1)%10, 4, 1))
			return err
		}},
		{"store-rewrite", func(i int) error {
			_, err := db.Store(bench, getProblem(i), getSolver(i), problem.NewPerfConfig(3, 1000+i, 4, 1))
			return err
		}},
		{"find", func(i int) error {
			config := problem.PerfConfig{Arity: 3}
			db.Load(bench, getProblem(i), getSolver(i), &config)
			return nil
		}},
		{"find-missing", func(i int) error {
			_, _, err := bench.FindRecordByKey(fmt.Sprintf("missing-%d", i))
			return err
		}},
		{"update-record", func(i int) error {
			record := db.NewRecord(getProblem(i))
			record.SetValues("Bench", codec.IntList{i})
			return bench.UpdateRecord(record)
		}},
	}

	registry := gometrics.NewRegistry()
	fmt.Printf("\n%-16s%12s%12s%12s%12s%12s\n", "test", "ops", "mean", "p50", "p95", "p99")
	for _, test := range tests {
		timer := gometrics.GetOrRegisterTimer(test.name, registry)
		for i := 0; i < ops; i++ {
			start := time.Now()
			if err := test.op(i); err != nil {
				return fmt.Errorf("(%s) - operation %d failed: %w", test.name, i, err)
			}
			timer.UpdateSince(start)
		}
		printTimer(test.name, timer)
	}

	stats, err := bench.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("\nscratch database: %d records, %d entries, %d bytes\n\n", stats.Records, stats.Entries, stats.SizeBytes)
	db.WriteMetrics(os.Stdout)
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// printTimer prints the result of a timed test in a formatted way
func printTimer(test string, timer gometrics.Timer) {
	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("%-16s%12d%12s%12s%12s%12s\n", test, timer.Count(),
		time.Duration(timer.Mean()).Round(time.Microsecond),
		time.Duration(ps[0]).Round(time.Microsecond),
		time.Duration(ps[1]).Round(time.Microsecond),
		time.Duration(ps[2]).Round(time.Microsecond))
}

// randomProblem creates a plausible convolution problem
func randomProblem(rng *rand.Rand) problem.ConvProblem {
	sizes := []int{7, 14, 28, 56, 112, 224}
	filters := []int{1, 3, 5, 7}
	channels := []int{3, 16, 32, 64, 128, 256}
	directions := []problem.Direction{problem.DirForward, problem.DirBackwardData, problem.DirBackwardWeights}

	size := sizes[rng.Intn(len(sizes))]
	filter := filters[rng.Intn(len(filters))]
	return problem.ConvProblem{
		Batch:       1 << rng.Intn(7),
		InChannels:  channels[rng.Intn(len(channels))],
		InH:         size,
		InW:         size,
		OutChannels: channels[rng.Intn(len(channels))],
		FilterH:     filter,
		FilterW:     filter,
		PadH:        filter / 2,
		PadW:        filter / 2,
		StrideH:     1 + rng.Intn(2),
		StrideW:     1 + rng.Intn(2),
		DilationH:   1,
		DilationW:   1,
		Layout:      "NCHW",
		DataType:    []string{"FP32", "FP16", "BF16"}[rng.Intn(3)],
		Direction:   directions[rng.Intn(len(directions))],
	}
}

// copyFile copies src to dst, a missing src results in no dst
func copyFile(src, dst string) error {
	from, err := os.Open(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer from.Close()

	to, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(to, from); err != nil {
		_ = to.Close()
		return err
	}
	return to.Close()
}
