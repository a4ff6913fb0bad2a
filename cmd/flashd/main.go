package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thegaragelab/microboot/pkg/flashd"
	"github.com/thegaragelab/microboot/pkg/microboot"
	"github.com/thegaragelab/microboot/pkg/redis"
	"github.com/thegaragelab/microboot/pkg/serialport"
)

var (
	device      = flag.String("device", "", "target device type (see microboot.Names)")
	port        = flag.String("port", "", "serial port the device is attached to")
	baud        = flag.Int("baud", serialport.DefaultBaud, "serial baud rate")
	redisAddr   = flag.String("redis-addr", "localhost:6379", "Redis server address")
	redisPass   = flag.String("redis-pass", "", "Redis password")
	redisDB     = flag.Int("redis-db", 0, "Redis database number")
	jobKey      = flag.String("job-key", flashd.DefaultJobKey, "Redis list to BRPop jobs from")
	logChannel  = flag.String("log-channel", flashd.DefaultLogChannel, "Redis Pub/Sub channel for progress and results")
	historyPath = flag.String("history-db", "flashd.db", "path to the bbolt history database")
	metricsAddr = flag.String("metrics-addr", ":9110", "address to serve /metrics on")
	showHistory = flag.Bool("history", false, "print recorded job history and exit")
)

func printHistory(path string) {
	history, err := flashd.OpenHistory(path)
	if err != nil {
		log.Fatalf("flashd: %v", err)
	}
	defer history.Close()
	entries, err := history.All()
	if err != nil {
		log.Fatalf("flashd: %v", err)
	}
	for _, entry := range entries {
		fmt.Printf("%s  %-8s %-6s %04X:%04X  completed=%d  %s",
			entry.Finished.Format(time.RFC3339), entry.Device, entry.Op,
			entry.Start, entry.Start+entry.Length-1, entry.Completed, entry.Status)
		if entry.Err != "" {
			fmt.Printf("  err=%q", entry.Err)
		}
		fmt.Println()
	}
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	if *showHistory {
		printHistory(*historyPath)
		return
	}

	if *device == "" || *port == "" {
		log.Fatalf("flashd: -device and -port are required")
	}

	sp, err := serialport.Open(*port, *baud, serialport.DefaultReadTimeout)
	if err != nil {
		log.Fatalf("flashd: failed to open %s: %v", *port, err)
	}
	defer sp.Close()

	session := microboot.NewSession()
	bootInfo, err := session.Connect(*device, sp)
	if err != nil {
		log.Fatalf("flashd: failed to connect to %s on %s: %v", *device, *port, err)
	}
	defer session.Disconnect()
	log.Printf("flashd: connected to %s (protocol %d, block size %d)", *device, bootInfo.ProtocolVersion, bootInfo.BlockSize)

	redisClient, err := redis.New(*redisAddr, *redisPass, *redisDB)
	if err != nil {
		log.Fatalf("flashd: %v", err)
	}
	defer redisClient.Close()

	queue := flashd.NewQueue(redisClient, *jobKey, *logChannel)
	session.SetLogger(func(request, response string) {
		queue.PublishLogLine(request + " -> " + response)
	})

	history, err := flashd.OpenHistory(*historyPath)
	if err != nil {
		log.Fatalf("flashd: %v", err)
	}
	defer history.Close()

	registry := prometheus.NewRegistry()
	metrics := flashd.NewMetrics(registry)
	session.SetRetryHook(func() { metrics.RetriesTotal.Inc() })

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			log.Printf("flashd: metrics server stopped: %v", err)
		}
	}()

	daemon := flashd.NewDaemon(queue, session, history, metrics, *device)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("flashd: shutting down...")
		daemon.Stop()
	}()

	log.Printf("flashd: waiting for jobs on %q", *jobKey)
	if err := daemon.Run(); err != nil {
		log.Fatalf("flashd: %v", err)
	}
}
