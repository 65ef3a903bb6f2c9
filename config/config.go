package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBName     string `mapstructure:"DB_NAME"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`

	MqttBroker   string `mapstructure:"MQTT_BROKER"`
	MqttUser     string `mapstructure:"MQTT_USER"` // ThingsBoard gateway access token
	MqttPassword string `mapstructure:"MQTT_PASSWORD"`
	MqttClientID string `mapstructure:"MQTT_CLIENT_ID"`
	TopicPrefix  string `mapstructure:"GATEWAY_TOPIC_PREFIX"`

	NatsUrl string `mapstructure:"NATS_URL"`

	InfluxUrl    string `mapstructure:"INFLUX_URL"`
	InfluxToken  string `mapstructure:"INFLUX_TOKEN"`
	InfluxOrg    string `mapstructure:"INFLUX_ORG"`
	InfluxBucket string `mapstructure:"INFLUX_BUCKET"`

	DeviceMap     string `mapstructure:"DEVICE_MAP"`
	MaxBrightness int    `mapstructure:"MAX_BRIGHTNESS"`

	UseSimulation bool          `mapstructure:"USE_SIMULATION"`
	SimInterval   time.Duration `mapstructure:"SIM_INTERVAL"`

	LoraSerialPort string `mapstructure:"LORA_SERIAL_PORT"`
	LoraBaud       int    `mapstructure:"LORA_BAUD"`
	LoraFrequency  int    `mapstructure:"LORA_FREQUENCY"`
	LoraSyncWord   int    `mapstructure:"LORA_SYNC_WORD"`

	LogFile string `mapstructure:"LOG_FILE"`
}

var keys = []string{
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"MQTT_BROKER", "MQTT_USER", "MQTT_PASSWORD", "MQTT_CLIENT_ID", "GATEWAY_TOPIC_PREFIX",
	"NATS_URL",
	"INFLUX_URL", "INFLUX_TOKEN", "INFLUX_ORG", "INFLUX_BUCKET",
	"DEVICE_MAP", "MAX_BRIGHTNESS",
	"USE_SIMULATION", "SIM_INTERVAL",
	"LORA_SERIAL_PORT", "LORA_BAUD", "LORA_FREQUENCY", "LORA_SYNC_WORD",
	"LOG_FILE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MQTT_CLIENT_ID", "lora-gateway")
	v.SetDefault("GATEWAY_TOPIC_PREFIX", "v1/gateway")
	v.SetDefault("DEVICE_MAP", "1:Light1,2:Light2,3:Light3")
	v.SetDefault("MAX_BRIGHTNESS", 100)
	v.SetDefault("SIM_INTERVAL", 5*time.Second)
	v.SetDefault("LORA_BAUD", 115200)
	v.SetDefault("LORA_FREQUENCY", 433000000)
	v.SetDefault("LORA_SYNC_WORD", 0x12)
}

func LoadConfig() (Config, error) {
	return load(".env")
}

func load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	setDefaults(v)

	v.AutomaticEnv()
	// Unmarshal only sees env values for keys viper already knows about.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Error reading config file, using environment variables: %s", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, err
	}

	config.TopicPrefix = strings.TrimSuffix(config.TopicPrefix, "/")

	if config.MqttBroker == "" {
		return config, ErrMissingBroker
	}
	if config.MaxBrightness <= 0 {
		return config, ErrInvalidBrightness
	}
	return config, nil
}
