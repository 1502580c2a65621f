package cmd

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/rossfile"
	"github.com/arloliu/rossdash/section"
)

// GeneratorConfig describes a synthetic instrumentation log.
type GeneratorConfig struct {
	PEs        int     // Number of processing elements
	KPsPerPE   int     // Kernel processes per PE
	LPsPerKP   int     // Logical processes per KP
	Samples    int     // Sampling points per entity
	VTInterval float64 // Virtual time between samples
	Seed       uint64  // Random seed for reproducibility
}

func (c GeneratorConfig) validate() error {
	if c.PEs < 0 || c.KPsPerPE < 0 || c.LPsPerKP < 0 || c.Samples < 0 {
		return fmt.Errorf("generator counts must not be negative: %+v", c)
	}
	if c.VTInterval <= 0 {
		return fmt.Errorf("virtual time interval must be positive, got %g", c.VTInterval)
	}

	return nil
}

// Generate writes a synthetic log to w. Each sampling point emits every PE,
// then every KP, then every LP, all stamped with the same times. KP and LP ids
// are numbered globally.
//
// Counters follow a random walk so that rollbacks never exceed processed
// events, and efficiency is derived from them the way ROSS reports it.
func Generate(w *rossfile.Writer, cfg GeneratorConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	realTime := 0.0
	for step := range cfg.Samples {
		vt := float64(step+1) * cfg.VTInterval
		realTime += 0.05 + rng.Float64()*0.01

		for pe := range cfg.PEs {
			if err := w.WritePE(genPE(rng, uint32(pe), vt, realTime)); err != nil {
				return err
			}
		}
		for pe := range cfg.PEs {
			for k := range cfg.KPsPerPE {
				kp := pe*cfg.KPsPerPE + k
				if err := w.WriteKP(genKP(rng, uint32(pe), uint32(kp), vt, realTime)); err != nil {
					return err
				}
			}
		}
		for pe := range cfg.PEs {
			for k := range cfg.KPsPerPE {
				kp := pe*cfg.KPsPerPE + k
				for l := range cfg.LPsPerKP {
					lp := kp*cfg.LPsPerKP + l
					if err := w.WriteLP(genLP(rng, uint32(pe), uint32(kp), uint32(lp), vt, realTime)); err != nil {
						return err
					}
				}
			}
		}
	}

	return nil
}

// counters draws processed and rolled back event counts for one interval.
func counters(rng *rand.Rand, scale int) (processed, rolledBack uint32) {
	processed = uint32(scale/2 + rng.IntN(scale))
	rolledBack = uint32(rng.IntN(int(processed)/5 + 1))

	return processed, rolledBack
}

// efficiency is the share of processed events that were not rolled back, in percent.
func efficiency(processed, rolledBack uint32) float32 {
	if processed == 0 {
		return 0
	}

	return 100 * (1 - float32(rolledBack)/float32(processed))
}

func genPE(rng *rand.Rand, pe uint32, vt, rt float64) section.PERecord {
	processed, rolledBack := counters(rng, 10000)
	sends := uint32(rng.IntN(int(processed) + 1))

	return section.PERecord{
		PEID:                     pe,
		EventsProcessed:          processed,
		EventsAborted:            uint32(rng.IntN(10)),
		EventsRolledBack:         rolledBack,
		TotalRollbacks:           rolledBack / 4,
		SecondaryRollbacks:       rolledBack / 10,
		FossilCollectionAttempts: uint32(1 + rng.IntN(4)),
		PQQueueSize:              uint32(rng.IntN(2048)),
		NetworkSends:             sends,
		NetworkReads:             uint32(rng.IntN(int(sends) + 1)),
		NumberGVT:                1,
		PEEventTies:              uint32(rng.IntN(5)),
		AllReduce:                1,
		Efficiency:               efficiency(processed, rolledBack),
		NetworkReadTime:          rng.Float32() * 0.01,
		NetworkOtherTime:         rng.Float32() * 0.01,
		GVTTime:                  rng.Float32() * 0.005,
		FossilCollectTime:        rng.Float32() * 0.002,
		EventAbortTime:           rng.Float32() * 0.001,
		EventProcessTime:         rng.Float32() * 0.04,
		PQTime:                   rng.Float32() * 0.01,
		RollbackTime:             rng.Float32() * 0.01,
		CancelQTime:              rng.Float32() * 0.001,
		AVLTime:                  rng.Float32() * 0.001,
		BuddyTime:                rng.Float32() * 0.001,
		LZ4Time:                  0,
		VirtualTime:              vt,
		RealTime:                 rt,
	}
}

func genKP(rng *rand.Rand, pe, kp uint32, vt, rt float64) section.KPRecord {
	processed, rolledBack := counters(rng, 1000)
	sends := uint32(rng.IntN(int(processed) + 1))

	return section.KPRecord{
		PEID:               pe,
		KPID:               kp,
		EventsProcessed:    processed,
		EventsAbort:        uint32(rng.IntN(3)),
		EventsRolledBack:   rolledBack,
		TotalRollbacks:     rolledBack / 4,
		SecondaryRollbacks: rolledBack / 10,
		NetworkSends:       sends,
		NetworkReads:       uint32(rng.IntN(int(sends) + 1)),
		TimeAheadGVT:       float32(rng.Float64() * 0.5),
		Efficiency:         efficiency(processed, rolledBack),
		VirtualTime:        vt,
		RealTime:           rt,
	}
}

func genLP(rng *rand.Rand, pe, kp, lp uint32, vt, rt float64) section.LPRecord {
	processed, rolledBack := counters(rng, 100)
	sends := uint32(rng.IntN(int(processed) + 1))

	return section.LPRecord{
		PEID:             pe,
		KPID:             kp,
		LPID:             lp,
		EventsProcessed:  processed,
		EventsAbort:      uint32(rng.IntN(2)),
		EventsRolledBack: rolledBack,
		NetworkSends:     sends,
		NetworkReads:     uint32(rng.IntN(int(sends) + 1)),
		Efficiency:       efficiency(processed, rolledBack),
		VirtualTime:      vt,
		RealTime:         rt,
	}
}

// Write a synthetic log for demos and benchmarks.
func generateCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic instrumentation log.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			cfg := GeneratorConfig{}
			var err error
			if cfg.PEs, err = flags.GetInt("pes"); err != nil {
				return err
			}
			if cfg.KPsPerPE, err = flags.GetInt("kps"); err != nil {
				return err
			}
			if cfg.LPsPerKP, err = flags.GetInt("lps"); err != nil {
				return err
			}
			if cfg.Samples, err = flags.GetInt("samples"); err != nil {
				return err
			}
			if cfg.VTInterval, err = flags.GetFloat64("vt-interval"); err != nil {
				return err
			}
			if cfg.Seed, err = flags.GetUint64("seed"); err != nil {
				return err
			}
			out, err := flags.GetString("out")
			if err != nil {
				return err
			}
			name, err := flags.GetString("compression")
			if err != nil {
				return err
			}
			ct, err := format.ParseCompressionType(name)
			if err != nil {
				return err
			}

			stats, err := generateFile(out, cfg, ct)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{
				"out":   out,
				"pe":    stats.PERecords,
				"kp":    stats.KPRecords,
				"lp":    stats.LPRecords,
				"bytes": stats.BytesRead,
			}).Info("wrote synthetic log")

			return nil
		},
	}

	cmd.Flags().String("out", "", "log file to write")
	cmd.Flags().Int("pes", 4, "number of PEs")
	cmd.Flags().Int("kps", 2, "KPs per PE")
	cmd.Flags().Int("lps", 4, "LPs per KP")
	cmd.Flags().Int("samples", 100, "sampling points")
	cmd.Flags().Float64("vt-interval", 100, "virtual time between sampling points")
	cmd.Flags().Uint64("seed", 1, "random seed")
	cmd.Flags().String("compression", "none", "stream compression: none, zstd, s2 or lz4")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func generateFile(path string, cfg GeneratorConfig, ct format.CompressionType) (rossfile.Stats, error) {
	f, err := os.Create(path)
	if err != nil {
		return rossfile.Stats{}, err
	}

	stats, err := generateTo(f, cfg, ct)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	return stats, err
}

func generateTo(dst io.Writer, cfg GeneratorConfig, ct format.CompressionType) (rossfile.Stats, error) {
	w, err := rossfile.NewWriter(dst, rossfile.WithWriterCompression(ct))
	if err != nil {
		return rossfile.Stats{}, err
	}
	if err := Generate(w, cfg); err != nil {
		_ = w.Close()
		return rossfile.Stats{}, err
	}
	if err := w.Close(); err != nil {
		return rossfile.Stats{}, err
	}

	return w.Stats(), nil
}
