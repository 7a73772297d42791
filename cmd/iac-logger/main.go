package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ghsecuritylab/488-final-project-code/internal/boardcfg"
	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
	"github.com/ghsecuritylab/488-final-project-code/pkg/iaclogger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "ports":
		err = portsCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("iac-logger %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to logger configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := iaclogger.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rt, err := iaclogger.New(cfg)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := iaclogger.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}

	model := boardcfg.Load(cfg.BoardConfig, slog.Default())
	fmt.Printf("config %s looks good\n", *cfgPath)
	fmt.Printf("board config %s: %d sensor types, %d active ports\n",
		cfg.BoardConfig, len(model.Sensors), len(model.Ports))
	if missing := model.MissingNetworkFields(); len(missing) > 0 {
		fmt.Printf("offline at startup, missing: %s\n", strings.Join(missing, ", "))
	} else {
		fmt.Println("network fields complete, the logger will try to go online")
	}
	return nil
}

func portsCommand(args []string) error {
	fs := flag.NewFlagSet("ports", flag.ExitOnError)
	boardPath := fs.String("board", "./data/IAC_Config_File.txt", "Path to board configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	model := boardcfg.Load(*boardPath, slog.Default())
	if len(model.Ports) == 0 {
		fmt.Println("no active ports")
		return nil
	}
	for i, p := range model.Ports {
		fmt.Printf("%2d  %-16s sensor=%d  x%-8g range [%g, %g]  %s\n",
			i, p.Name, p.SensorID, p.Multiplier, p.RangeFloor, p.RangeCeiling, p.Description)
	}
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		ports.MetricSamplesSentTotal: 0,
		ports.MetricBacklogPending:   0,
		ports.MetricOffline:          0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] sent=%f backlog=%f offline=%f\n",
		time.Now().Format(time.RFC3339),
		targets[ports.MetricSamplesSentTotal],
		targets[ports.MetricBacklogPending],
		targets[ports.MetricOffline],
	)
	return nil
}

func printUsage() {
	fmt.Printf(`IAC data logger CLI

Usage:
  iac-logger <command> [flags]

Commands:
  run        Start the logger using the provided config
  validate   Load the runtime and board configs without starting the logger
  ports      Print the active port bindings from a board configuration file
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  iac-logger run -config ./data/config.yaml
  iac-logger validate -config ./data/config.yaml
  iac-logger ports -board ./data/IAC_Config_File.txt
  iac-logger stats -url http://localhost:9100/metrics -interval 1s
`)
}
