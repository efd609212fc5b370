package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linky-monitor/config"
	"linky-monitor/internal/api"
	"linky-monitor/internal/collector"
	"linky-monitor/internal/energy"
	"linky-monitor/internal/mqtt"
	"linky-monitor/internal/snapshot"
	"linky-monitor/internal/storage"
	"linky-monitor/internal/tempo"
	"linky-monitor/internal/vm"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "linky-monitor",
		Short: "Linky Tempo consumption monitor",
		Long:  "Polls a VictoriaMetrics backend for Linky meter counters and publishes consumption snapshots over MQTT",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(testCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the monitoring service",
		Long:  "Start the aggregation loop, API server, and MQTT publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			assembler, err := buildAssembler(cfg)
			if err != nil {
				return err
			}

			db, err := storage.NewDatabase(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			log.Printf("Database opened at %s", cfg.Database.Path)

			// A broker that cannot be reached at startup means no snapshot
			// can ever be delivered, so this is fatal.
			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:         cfg.MQTT.Broker,
				ClientID:       cfg.MQTT.ClientID,
				Username:       cfg.MQTT.Username,
				Password:       cfg.MQTT.Password,
				StateTopic:     cfg.MQTT.StateTopic,
				DiscoveryTopic: cfg.MQTT.DiscoveryTopic,
				VeilleTopic:    cfg.MQTT.VeilleTopic,
				PublishTimeout: cfg.MQTT.PublishTimeout,
				Enabled:        cfg.MQTT.Enabled,
			})
			if err != nil {
				return fmt.Errorf("MQTT connection failed: %w", err)
			}
			if cfg.MQTT.Enabled {
				log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
				if err := publisher.PublishDiscovery(); err != nil {
					log.Printf("Warning: discovery publish failed: %v", err)
				}
			}

			coll := collector.NewCollector(collector.CollectorConfig{
				Assembler: assembler,
				Database:  db,
				Publisher: publisher,
				Interval:  cfg.Collector.Interval,
				Retention: cfg.Database.Retention,
				Enabled:   cfg.Collector.Enabled,
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				if err := coll.Start(ctx); err != nil {
					log.Printf("Collector error: %v", err)
				}
			}()

			if cfg.API.Enabled {
				server := api.NewServer(api.ServerConfig{
					Port:      cfg.API.Port,
					Collector: coll,
					Database:  db,
					Broker:    publisher,
				})

				go func() {
					if err := server.Start(); err != nil {
						log.Printf("API server error: %v", err)
					}
				}()
			}

			log.Println("Linky Monitor started. Press Ctrl+C to stop.")

			<-sigChan
			log.Println("Shutting down...")
			cancel()
			coll.Stop()

			return nil
		},
	}
}

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Build one snapshot and print it",
		Long:  "Run a single aggregation cycle against the backend and print the JSON payload without publishing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			assembler, err := buildAssembler(cfg)
			if err != nil {
				return err
			}

			var state snapshot.CycleState
			snap := assembler.Build(context.Background(), &state)

			output, _ := json.MarshalIndent(snap, "", "  ")
			fmt.Println(string(output))

			return nil
		},
	}
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the backend connection",
		Long:  "Check that the VictoriaMetrics backend answers and that the configured series have data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Printf("Testing connection to %s:%d...\n", cfg.Victoria.Host, cfg.Victoria.Port)

			client := vm.NewClient(cfg.Victoria.Host, cfg.Victoria.Port, cfg.Victoria.Timeout)
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Victoria.Timeout)
			defer cancel()

			if err := client.Ping(ctx); err != nil {
				fmt.Printf("Connection FAILED: %v\n", err)
				return err
			}
			fmt.Println("Connection SUCCESS!")

			table := seriesTable(cfg)
			end := time.Now()
			start := end.Add(-24 * time.Hour)

			fmt.Println("\nConfigured series (last 24h):")
			for _, series := range append(table.AllSeries(), cfg.Meter.PowerSeries) {
				samples, err := client.QueryRange(ctx, series, start, end, cfg.Victoria.Step)
				switch {
				case err != nil:
					fmt.Printf("  %-50s ERROR: %v\n", series, err)
				case len(samples) == 0:
					fmt.Printf("  %-50s no data\n", series)
				default:
					fmt.Printf("  %-50s %d samples, last=%.2f\n", series, len(samples), samples[len(samples)-1].Value)
				}
			}

			return nil
		},
	}
}

func buildAssembler(cfg *config.Config) (*snapshot.Assembler, error) {
	loc, err := time.LoadLocation(cfg.Meter.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Meter.Timezone, err)
	}

	client := vm.NewClient(cfg.Victoria.Host, cfg.Victoria.Port, cfg.Victoria.Timeout)
	calendar := energy.NewCalendar(loc)
	calc := energy.NewDeltaCalculator(client, cfg.Victoria.Step)
	peaks := energy.NewPeakTracker(client, calendar, cfg.Meter.PowerSeries, cfg.Meter.PowerDivisor, cfg.Victoria.Step)

	table := seriesTable(cfg)
	detector := tempo.NewDetector(calc, calendar, table, tempo.TiePolicy(cfg.Tempo.TieBreak))

	prices := tempo.PriceTable{}
	for name, p := range cfg.Tempo.Prices {
		if color := tempo.ParseColor(name); color != tempo.Unknown {
			prices[color] = tempo.Prices{Peak: p.Peak, OffPeak: p.OffPeak}
		}
	}

	return snapshot.NewAssembler(snapshot.AssemblerConfig{
		Querier:   client,
		Calc:      calc,
		Calendar:  calendar,
		Peaks:     peaks,
		Detector:  detector,
		Prices:    prices,
		Table:     table,
		Threshold: cfg.Meter.SubscribedPowerKVA,
		Version:   version,
	}), nil
}

func seriesTable(cfg *config.Config) tempo.SeriesTable {
	table := tempo.SeriesTable{}
	for name, pair := range cfg.Tempo.Series {
		if color := tempo.ParseColor(name); color != tempo.Unknown {
			table[color] = tempo.SeriesPair{Peak: pair.Peak, OffPeak: pair.OffPeak}
		}
	}
	return table
}
