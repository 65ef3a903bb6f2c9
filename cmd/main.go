package main

import (
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"loragw/app"
	"loragw/config"
	"loragw/database"
	"loragw/radio"
	"loragw/services"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Config error:", err)
	}

	logCloser := services.SetupLogging(cfg.LogFile)
	defer logCloser.Close()

	registry, err := loadRegistry(cfg)
	if err != nil {
		log.Fatal("Device registry error:", err)
	}

	if err := services.InitNats(cfg.NatsUrl); err != nil {
		log.Fatal("NATS error:", err)
	}

	influx, err := services.NewInfluxService(cfg.InfluxUrl, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	if err != nil && !errors.Is(err, services.ErrInfluxDisabled) {
		log.Printf("InfluxDB unavailable, telemetry history disabled: %v", err)
	}

	if err := services.InitMqttService(cfg.MqttClientID, cfg.MqttBroker, cfg.MqttUser, cfg.MqttPassword); err != nil {
		log.Fatal("Failed to initialize MQTT service:", err)
	}

	opts := app.GatewayOptions{
		TopicPrefix:   cfg.TopicPrefix,
		MaxBrightness: cfg.MaxBrightness,
	}
	if services.NC != nil {
		opts.Events = services.NC
		opts.Subscriber = services.NC
	}
	if influx != nil {
		opts.Sink = influx
	}

	gateway, err := app.NewGateway(services.GetMqttService(), registry, opts)
	if err != nil {
		log.Fatal("Failed to initialize LoRa gateway", err)
	}
	gateway.Start()

	link, err := openRadio(cfg, registry, gateway)
	if err != nil {
		log.Fatal("Failed to start LoRa link:", err)
	}
	gateway.AttachRadio(link)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, shutting down...")

	if err := link.Close(); err != nil {
		log.Printf("LoRa link close: %v", err)
	}
	gateway.Stop()
	services.GetMqttService().Stop()
	if services.NC != nil {
		services.NC.Drain()
	}
	if influx != nil {
		influx.Close()
	}

	log.Println("Shutdown complete.")
}

func loadRegistry(cfg config.Config) (*app.Registry, error) {
	if cfg.DBHost == "" {
		entries, err := config.ParseDeviceMap(cfg.DeviceMap)
		if err != nil {
			return nil, err
		}
		return app.NewRegistry(entries)
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Printf("Database close: %v", err)
		}
	}(db)

	entries, err := app.LoadDeviceEntries(db)
	if err != nil {
		return nil, err
	}
	return app.NewRegistry(entries)
}

func openRadio(cfg config.Config, registry *app.Registry, gateway *app.Gateway) (radio.Link, error) {
	if cfg.UseSimulation {
		sim := radio.NewSimulator(registry.IDs(), cfg.SimInterval, gateway.HandleFrame)
		sim.Start()
		log.Println("--- MOCK Simulation Started ---")
		return sim, nil
	}

	link, err := radio.OpenSerial(radio.SerialConfig{
		Port:      cfg.LoraSerialPort,
		Baud:      cfg.LoraBaud,
		Frequency: cfg.LoraFrequency,
		SyncWord:  cfg.LoraSyncWord,
	}, gateway.HandleFrame)
	if err != nil {
		return nil, err
	}
	log.Println("--- REAL LoRa Hardware Started ---")
	return link, nil
}
