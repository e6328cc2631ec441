// Command acs-engine replays an offline packet capture through a
// config-defined set of ACS-backed sketches, serves point queries over HTTP
// while the restore/clear epoch loop runs, and persists each epoch's heavy
// hitters to the configured writer.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hovering-clouds/acsengine/internal/api"
	"github.com/hovering-clouds/acsengine/internal/config"
	"github.com/hovering-clouds/acsengine/internal/driver"
	"github.com/hovering-clouds/acsengine/internal/hashfamily"
	"github.com/hovering-clouds/acsengine/internal/model"
	"github.com/hovering-clouds/acsengine/internal/notify"
	"github.com/hovering-clouds/acsengine/internal/writer"
	"github.com/hovering-clouds/acsengine/pkg/pcap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the engine's YAML config")
	pcapPath := flag.String("pcap", "", "path to a pcap file to replay (required)")
	epochPeriod := flag.Duration("epoch", time.Minute, "how often to restore, snapshot, and clear the pool")
	numWorkers := flag.Int("workers", 4, "number of ingestion worker goroutines")
	textOut := flag.String("text-out", "", "directory to write text heavy-hitter reports to, used if clickhouse is not configured")
	flag.Parse()

	if *pcapPath == "" {
		log.Fatal("acs-engine: -pcap is required")
	}

	log.Println("Starting acs-engine...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	var w model.Writer
	if cfg.ClickHouse.Host != "" {
		w, err = writer.NewClickHouseWriter(cfg.ClickHouse)
		if err != nil {
			log.Fatalf("Failed to create ClickHouse writer: %v", err)
		}
	} else {
		out := *textOut
		if out == "" {
			out = "./snapshots"
		}
		w = writer.NewTextWriter(out)
		log.Printf("No ClickHouse host configured, writing heavy hitters under %s", out)
	}

	var n model.Notifier
	if cfg.Notify.URL != "" {
		nn, err := notify.NewNATSNotifier(cfg.Notify)
		if err != nil {
			log.Fatalf("Failed to create NATS notifier: %v", err)
		}
		defer nn.Close()
		n = nn
	}

	fam := hashfamily.New(1)
	d, err := driver.New(cfg, fam, *numWorkers, 1024, *epochPeriod, w, n)
	if err != nil {
		log.Fatalf("Failed to create driver: %v", err)
	}
	d.Start()
	log.Println("Driver started.")

	apiServer := api.NewServer(cfg.API.ListenAddr, d)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()
	if cfg.API.ListenAddr != "" {
		log.Printf("API server listening on %s", cfg.API.ListenAddr)
	}

	reader, err := pcap.NewReader(*pcapPath)
	if err != nil {
		log.Fatalf("Failed to open pcap file %q: %v", *pcapPath, err)
	}
	defer reader.Close()

	log.Printf("Reading packets from %q...", *pcapPath)
	reader.ReadPackets(d.Input())
	log.Println("Finished reading all packets from pcap file; serving queries until shutdown.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping engine...")
	d.Stop()
	log.Println("Shutdown complete.")
}
