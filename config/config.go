package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Victoria  VictoriaConfig  `mapstructure:"victoria"`
	Meter     MeterConfig     `mapstructure:"meter"`
	Tempo     TempoConfig     `mapstructure:"tempo"`
	Collector CollectorConfig `mapstructure:"collector"`
	API       APIConfig       `mapstructure:"api"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

type VictoriaConfig struct {
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
	Step    int           `mapstructure:"step"`
}

type MeterConfig struct {
	Timezone string `mapstructure:"timezone"`
	// Subscribed power in kVA; daily peaks above it raise the exceeded flag.
	SubscribedPowerKVA float64 `mapstructure:"subscribed_power_kva"`
	PowerSeries        string  `mapstructure:"power_series"`
	// Raw power samples are in W (VA); reported peaks are in kVA.
	PowerDivisor float64 `mapstructure:"power_divisor"`
}

type TempoConfig struct {
	// "max" picks the color with the largest daily increase,
	// "first" picks the first enumerated color with any increase.
	TieBreak string                 `mapstructure:"tie_break"`
	Series   map[string]PairConfig  `mapstructure:"series"`
	Prices   map[string]PriceConfig `mapstructure:"prices"`
}

type PairConfig struct {
	Peak    string `mapstructure:"peak"`
	OffPeak string `mapstructure:"off_peak"`
}

type PriceConfig struct {
	Peak    float64 `mapstructure:"peak"`
	OffPeak float64 `mapstructure:"off_peak"`
}

type CollectorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Enabled  bool          `mapstructure:"enabled"`
}

type APIConfig struct {
	Port    int  `mapstructure:"port"`
	Enabled bool `mapstructure:"enabled"`
}

type MQTTConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	StateTopic     string        `mapstructure:"state_topic"`
	DiscoveryTopic string        `mapstructure:"discovery_topic"`
	VeilleTopic    string        `mapstructure:"veille_topic"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

type DatabaseConfig struct {
	Path      string        `mapstructure:"path"`
	Retention time.Duration `mapstructure:"retention"`
}

func Load(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/linky-monitor")
	}

	viper.SetEnvPrefix("linky")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("victoria.host", "127.0.0.1")
	viper.SetDefault("victoria.port", 8428)
	viper.SetDefault("victoria.timeout", "30s")
	viper.SetDefault("victoria.step", 60)
	viper.SetDefault("meter.timezone", "Europe/Paris")
	viper.SetDefault("meter.subscribed_power_kva", 6.0)
	viper.SetDefault("meter.power_series", "sensor.linky_puissance_consommee_value")
	viper.SetDefault("meter.power_divisor", 1000.0)
	viper.SetDefault("tempo.tie_break", "max")
	viper.SetDefault("tempo.series.blue.peak", "sensor.linky_tempo_index_bbrhpjb_value")
	viper.SetDefault("tempo.series.blue.off_peak", "sensor.linky_tempo_index_bbrhcjb_value")
	viper.SetDefault("tempo.series.white.peak", "sensor.linky_tempo_index_bbrhpjw_value")
	viper.SetDefault("tempo.series.white.off_peak", "sensor.linky_tempo_index_bbrhcjw_value")
	viper.SetDefault("tempo.series.red.peak", "sensor.linky_tempo_index_bbrhpjr_value")
	viper.SetDefault("tempo.series.red.off_peak", "sensor.linky_tempo_index_bbrhcjr_value")
	viper.SetDefault("tempo.prices.blue.peak", 0.1609)
	viper.SetDefault("tempo.prices.blue.off_peak", 0.1296)
	viper.SetDefault("tempo.prices.white.peak", 0.1894)
	viper.SetDefault("tempo.prices.white.off_peak", 0.1486)
	viper.SetDefault("tempo.prices.red.peak", 0.7562)
	viper.SetDefault("tempo.prices.red.off_peak", 0.1568)
	viper.SetDefault("collector.interval", "1h")
	viper.SetDefault("collector.enabled", true)
	viper.SetDefault("api.port", 8046)
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("mqtt.enabled", true)
	viper.SetDefault("mqtt.broker", "tcp://127.0.0.1:1883")
	viper.SetDefault("mqtt.client_id", "linky-monitor")
	viper.SetDefault("mqtt.state_topic", "homeassistant/sensor/linky/state")
	viper.SetDefault("mqtt.discovery_topic", "homeassistant/sensor/linky/config")
	viper.SetDefault("mqtt.veille_topic", "homeassistant/sensor/consommation_veille_linky")
	viper.SetDefault("mqtt.publish_timeout", "10s")
	viper.SetDefault("database.path", "./linky.db")
	viper.SetDefault("database.retention", "2160h")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
