// Command dmr-repeater wires the repeater core (pkg/repeater) together
// with the reference router policy chain (pkg/policy), the optional call
// history sink (pkg/callhistory) and live monitor (pkg/monitor), and a
// pair of UDP transports (pkg/udptransport) so the whole module can be
// run as a standalone process.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dbehnke/dmr-repeater/pkg/callhistory"
	"github.com/dbehnke/dmr-repeater/pkg/config"
	"github.com/dbehnke/dmr-repeater/pkg/logger"
	"github.com/dbehnke/dmr-repeater/pkg/monitor"
	"github.com/dbehnke/dmr-repeater/pkg/policy"
	"github.com/dbehnke/dmr-repeater/pkg/repeater"
	"github.com/dbehnke/dmr-repeater/pkg/udptransport"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	localAddr := flag.String("local", "0.0.0.0:62031", "Local UDP address for the uplink transport")
	peerAddr := flag.String("peer", "", "Remote UDP address for the uplink transport")
	downstreamLocal := flag.String("downstream-local", "0.0.0.0:62032", "Local UDP address for the downstream transport")
	downstreamPeer := flag.String("downstream-peer", "", "Remote UDP address for the downstream transport")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dmr-repeater %s (%s)\n", version, gitCommit)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})
	log.Info("starting dmr-repeater", logger.String("version", version), logger.String("commit", gitCommit))

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}
	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if *peerAddr == "" || *downstreamPeer == "" {
		log.Error("both -peer and -downstream-peer are required")
		os.Exit(1)
	}

	router, err := buildRouter(cfg)
	if err != nil {
		log.Error("failed to build router policy", logger.Error(err))
		os.Exit(1)
	}

	rep, err := repeater.New(router, cfg.Repeater.ColorCode)
	if err != nil {
		log.Error("failed to construct repeater", logger.Error(err))
		os.Exit(1)
	}
	rep.SetLogger(log)
	if cfg.Repeater.ExpiryMS > 0 {
		rep.ExpiryThreshold = time.Duration(cfg.Repeater.ExpiryMS) * time.Millisecond
	}
	if cfg.Repeater.IdleSleepMS > 0 {
		rep.IdleSleep = time.Duration(cfg.Repeater.IdleSleepMS) * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	if cfg.CallHistory.Enabled {
		db, err := callhistory.OpenDB(callhistory.DBConfig{Path: cfg.CallHistory.DBPath}, log.WithComponent("callhistory"))
		if err != nil {
			log.Error("failed to open call history database", logger.Error(err))
			os.Exit(1)
		}
		defer db.Close()
		rep.AddObserver(callhistory.NewRecorder(db.GormStore(), nil, log.WithComponent("callhistory")))
		log.Info("call history recorder attached", logger.String("db_path", cfg.CallHistory.DBPath))
	}

	var hub *monitor.Hub
	if cfg.Monitor.Enabled {
		hub = monitor.NewHub(log.WithComponent("monitor"))
		rep.AddObserver(hub)

		mux := http.NewServeMux()
		mux.Handle("/ws", hub.Handler())
		addr := fmt.Sprintf("%s:%d", cfg.Monitor.Host, cfg.Monitor.Port)
		server := &http.Server{Addr: addr, Handler: mux}

		wg.Add(1)
		go func() {
			defer wg.Done()
			go hub.Run(ctx)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("monitor server error", logger.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			_ = server.Close()
		}()
		log.Info("live monitor started", logger.String("addr", addr))
	}

	uplink, err := udptransport.New("uplink", *localAddr, *peerAddr, log)
	if err != nil {
		log.Error("failed to construct uplink transport", logger.Error(err))
		os.Exit(1)
	}
	defer uplink.Close()

	downstream, err := udptransport.New("downstream", *downstreamLocal, *downstreamPeer, log)
	if err != nil {
		log.Error("failed to construct downstream transport", logger.Error(err))
		os.Exit(1)
	}
	defer downstream.Close()

	if err := rep.Add(uplink, nil); err != nil {
		log.Error("failed to attach uplink transport", logger.Error(err))
		os.Exit(1)
	}
	if err := rep.Add(downstream, nil); err != nil {
		log.Error("failed to attach downstream transport", logger.Error(err))
		os.Exit(1)
	}

	wg.Add(2)
	go func() { defer wg.Done(); _ = uplink.Run(ctx) }()
	go func() { defer wg.Done(); _ = downstream.Run(ctx) }()

	if err := rep.Start(); err != nil {
		log.Error("failed to start repeater", logger.Error(err))
		os.Exit(1)
	}
	log.Info("repeater started", logger.Int("color_code", cfg.Repeater.ColorCode))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received shutdown signal", logger.String("signal", sig.String()))

	cancel()
	_ = rep.Stop()
	rep.Wait()
	wg.Wait()

	log.Info("dmr-repeater stopped")
}

// buildRouter assembles the reference pkg/policy chain from configuration:
// an ACL gate plus one BridgeRuleSet per configured bridge name.
func buildRouter(cfg *config.Config) (repeater.Router, error) {
	if !cfg.Policy.Enabled {
		return nil, nil
	}

	policies := make([]policy.Policy, 0, 1+len(cfg.Bridges))

	if cfg.Policy.ACL != "" {
		acl, err := policy.ParseACL(cfg.Policy.ACL)
		if err != nil {
			return nil, fmt.Errorf("parse policy.acl: %w", err)
		}
		policies = append(policies, acl)
	}

	for name, rules := range cfg.Bridges {
		set := policy.NewBridgeRuleSet(name)
		for _, rule := range rules {
			set.AddRule(&policy.Rule{
				Sink:     rule.Sink,
				TGID:     rule.TGID,
				Timeslot: rule.Timeslot,
				Active:   rule.Active,
				On:       rule.On,
				Off:      rule.Off,
				Timeout:  rule.Timeout,
			})
		}
		policies = append(policies, set)
	}

	return policy.Chain(policies...), nil
}
