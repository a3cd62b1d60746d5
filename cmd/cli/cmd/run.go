package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/engine"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/graphstore"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/repository"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/storage"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/internal/transport/grpcpeer"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/model"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/utils"
	"github.com/ChristopherKotthoff/distributed-ccl-graph-contraction/pkg/writer"
)

var (
	runInput     string
	runProcesses int
	runRepeat    int
	runTransport string
	runRank      int
	runPeers     string
	runOutput    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute connected components over an indexed store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		log := GetLogger()

		processes := runProcesses
		if !cmd.Flags().Changed("processes") && cfg != nil && cfg.Engine.Processes > 0 {
			processes = cfg.Engine.Processes
		}
		repeat := runRepeat
		if !cmd.Flags().Changed("repeat") && cfg != nil && cfg.Engine.Repeat > 0 {
			repeat = cfg.Engine.Repeat
		}
		transportKind := runTransport
		if !cmd.Flags().Changed("transport") && cfg != nil && cfg.Engine.Transport != "" {
			transportKind = cfg.Engine.Transport
		}

		reader, err := graphstore.Open(runInput)
		if err != nil {
			return err
		}
		defer reader.Close()

		switch transportKind {
		case "local":
			return runLocal(cmd.Context(), processes, repeat, reader, log)
		case "grpc":
			return runGRPCRank(cmd.Context(), reader, log)
		default:
			return fmt.Errorf("unsupported transport: %s", transportKind)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runInput, "input", "", "Path to an indexed graph store")
	runCmd.Flags().IntVar(&runProcesses, "processes", 1, "Number of ranks to simulate (power of two)")
	runCmd.Flags().IntVar(&runRepeat, "repeat", 1, "Number of times to repeat the run for timing")
	runCmd.Flags().StringVar(&runTransport, "transport", "local", "Transport: local or grpc")
	runCmd.Flags().IntVar(&runRank, "rank", 0, "This process's rank (transport=grpc only)")
	runCmd.Flags().StringVar(&runPeers, "peers", "", "Comma-separated host:port list, one per rank (transport=grpc only)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "Optional local path to write the final label vector as JSON")

	_ = runCmd.MarkFlagRequired("input")
}

func runLocal(ctx context.Context, processes, repeat int, reader graphstore.Reader, log utils.Logger) error {
	var result *engine.Result
	var lastDuration time.Duration

	for i := 0; i < repeat; i++ {
		start := time.Now()
		r, err := engine.Run(ctx, processes, reader, log)
		if err != nil {
			return err
		}
		lastDuration = time.Since(start)
		result = r
		log.Info("run %d/%d: %d components over %d vertices in %s", i+1, repeat, r.ComponentCount, r.VertexCount, lastDuration)
	}

	if runOutput != "" {
		if err := writeLabelVector(result); err != nil {
			return err
		}
	}

	if err := persistRunResult(ctx, result, lastDuration, processes, "local"); err != nil {
		log.Warn("failed to persist run result: %v", err)
	}

	if err := uploadLabelVector(ctx, result); err != nil {
		log.Warn("failed to upload label vector: %v", err)
	}

	fmt.Printf("components: %d\n", result.ComponentCount)
	return nil
}

// runGRPCRank drives exactly this process's rank against sibling
// processes reachable at runPeers, for `run --transport grpc --rank R
// --peers ...` multi-process invocations.
func runGRPCRank(ctx context.Context, reader graphstore.Reader, log utils.Logger) error {
	if runPeers == "" {
		return fmt.Errorf("--peers is required for transport=grpc")
	}
	addrs := strings.Split(runPeers, ",")
	if runRank < 0 || runRank >= len(addrs) {
		return fmt.Errorf("--rank %d out of range for %d peers", runRank, len(addrs))
	}

	peer, err := grpcpeer.Listen(runRank, addrs)
	if err != nil {
		return err
	}
	defer peer.Close()

	rr, err := engine.RunRank(ctx, peer, reader, log)
	if err != nil {
		return err
	}

	count, err := engine.CollectComponentCount(ctx, peer, rr.Labels)
	if err != nil {
		return err
	}

	if runRank == 0 {
		fmt.Printf("components: %d\n", count)
	} else {
		log.Info("rank %d finished its share of the range [%d, %d]", runRank, rr.Lo, rr.Hi)
	}
	return nil
}

func writeLabelVector(result *engine.Result) error {
	labels := flattenLabels(result)
	w := writer.NewJSONWriter[[]int32]()
	return w.WriteToFile(labels, runOutput)
}

func flattenLabels(result *engine.Result) []int32 {
	out := make([]int32, 0, result.VertexCount)
	for _, rank := range result.Ranks {
		out = append(out, rank.Labels...)
	}
	return out
}

func persistRunResult(ctx context.Context, result *engine.Result, duration time.Duration, processes int, transportKind string) error {
	cfg := GetConfig()
	if cfg == nil || !cfg.Database.Enabled {
		return nil
	}

	db, err := repository.NewGormDB(&repository.DBConfig{
		Type:     cfg.Database.Type,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return err
	}
	repos := repository.NewRepositories(db)
	defer repos.Close()

	return repos.Run.SaveRun(ctx, &model.RunResult{
		InputPath:      runInput,
		VertexCount:    result.VertexCount,
		Processes:      processes,
		ComponentCount: result.ComponentCount,
		DurationMillis: duration.Milliseconds(),
		Transport:      transportKind,
		CreatedAt:      time.Now(),
	})
}

func uploadLabelVector(ctx context.Context, result *engine.Result) error {
	cfg := GetConfig()
	if cfg == nil || !cfg.Storage.Enabled {
		return nil
	}

	store, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return err
	}

	labels := flattenLabels(result)
	gz := writer.NewGzipWriter[[]int32]()
	var buf bytes.Buffer
	if err := gz.Write(labels, &buf); err != nil {
		return err
	}

	key := "labels/" + strconv.FormatInt(time.Now().Unix(), 10) + ".json.gz"
	return store.Upload(ctx, key, &buf)
}
