package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/christophecraig/coinchette/internal/engine"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Rules  RulesConfig  `yaml:"rules"`
	Room   RoomConfig   `yaml:"room"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"logLevel"`
	// NatsURL and RedisAddr are optional; empty disables the component.
	NatsURL     string        `yaml:"natsUrl"`
	RedisAddr   string        `yaml:"redisAddr"`
	RedisDB     int           `yaml:"redisDb"`
	EventLogTTL time.Duration `yaml:"eventLogTtl"`
}

type RulesConfig struct {
	WinScore       int    `yaml:"winScore"`
	MaxRounds      int    `yaml:"maxRounds"`
	ContractTarget int    `yaml:"contractTarget"`
	CapotBonus     int    `yaml:"capotBonus"`
	BeloteBonus    int    `yaml:"beloteBonus"`
	LastTrickBonus int    `yaml:"lastTrickBonus"`
	AllowRaises    bool   `yaml:"allowRaises"`
	TieBreak       string `yaml:"tieBreak"`
}

type RoomConfig struct {
	CodeLength       int           `yaml:"codeLength"`
	IdleTimeout      time.Duration `yaml:"idleTimeout"`
	TurnTimeout      time.Duration `yaml:"turnTimeout"`
	BotDelay         time.Duration `yaml:"botDelay"`
	ChatPerSecond    float64       `yaml:"chatPerSecond"`
	ChatBurst        int           `yaml:"chatBurst"`
	ChatMaxLength    int           `yaml:"chatMaxLength"`
	SubscriberBuffer int           `yaml:"subscriberBuffer"`
	ActionCacheSize  int           `yaml:"actionCacheSize"`
}

// Environment variable names read by Load.
const (
	EnvAddr        = "ADDR"
	EnvConfigFile  = "COINCHETTE_CONFIG"
	EnvLogLevel    = "COINCHETTE_LOG_LEVEL"
	EnvNatsURL     = "COINCHETTE_NATS_URL"
	EnvRedisAddr   = "COINCHETTE_REDIS_ADDR"
	EnvWinScore    = "COINCHETTE_WIN_SCORE"
	EnvMaxRounds   = "COINCHETTE_MAX_ROUNDS"
	EnvAllowRaises = "COINCHETTE_ALLOW_RAISES"
	EnvTieBreak    = "COINCHETTE_TIE_BREAK"
	EnvIdleTimeout = "COINCHETTE_IDLE_TIMEOUT"
	EnvTurnTimeout = "COINCHETTE_TURN_TIMEOUT"
	EnvBotDelay    = "COINCHETTE_BOT_DELAY"
)

func Default() Config {
	preset := engine.CoinchePreset()
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			LogLevel:    "info",
			EventLogTTL: 24 * time.Hour,
		},
		Rules: RulesConfig{
			WinScore:       preset.WinScore,
			MaxRounds:      preset.MaxRounds,
			ContractTarget: preset.ContractTarget,
			CapotBonus:     preset.CapotBonus,
			BeloteBonus:    preset.BeloteBonus,
			LastTrickBonus: preset.LastTrickBonus,
			AllowRaises:    preset.AllowRaises,
			TieBreak:       string(preset.TieBreak),
		},
		Room: RoomConfig{
			CodeLength:       6,
			IdleTimeout:      10 * time.Minute,
			TurnTimeout:      0,
			BotDelay:         800 * time.Millisecond,
			ChatPerSecond:    1,
			ChatBurst:        5,
			ChatMaxLength:    280,
			SubscriberBuffer: 64,
			ActionCacheSize:  256,
		},
	}
}

// Load layers the defaults, the YAML file at path (if not empty) and the
// environment, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		bytes, err := ioutil.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, fmt.Sprintf("Error reading config file [%s]", path))
		}
		if err := yaml.Unmarshal(bytes, &cfg); err != nil {
			return Config{}, errors.Wrap(err, fmt.Sprintf("Error parsing config YAML file [%s]", path))
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
		*dst = n
		return nil
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
		*dst = d
		return nil
	}

	str(EnvAddr, &c.Server.Addr)
	str(EnvLogLevel, &c.Server.LogLevel)
	str(EnvNatsURL, &c.Server.NatsURL)
	str(EnvRedisAddr, &c.Server.RedisAddr)
	str(EnvTieBreak, &c.Rules.TieBreak)
	if v, ok := lookup(EnvAllowRaises); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvAllowRaises)
		}
		c.Rules.AllowRaises = b
	}
	for name, dst := range map[string]*int{EnvWinScore: &c.Rules.WinScore, EnvMaxRounds: &c.Rules.MaxRounds} {
		if err := num(name, dst); err != nil {
			return err
		}
	}
	durations := map[string]*time.Duration{
		EnvIdleTimeout: &c.Room.IdleTimeout,
		EnvTurnTimeout: &c.Room.TurnTimeout,
		EnvBotDelay:    &c.Room.BotDelay,
	}
	for name, dst := range durations {
		if err := dur(name, dst); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.Rules.WinScore <= 0:
		return errors.Errorf("rules.winScore must be positive, got %d", c.Rules.WinScore)
	case c.Rules.MaxRounds < 0:
		return errors.Errorf("rules.maxRounds must not be negative, got %d", c.Rules.MaxRounds)
	case c.Rules.CapotBonus < 0 || c.Rules.BeloteBonus < 0 || c.Rules.LastTrickBonus < 0:
		return errors.New("rules bonuses must not be negative")
	case c.Rules.ContractTarget <= 0 || c.Rules.ContractTarget > engine.CardPointsTotal+c.Rules.LastTrickBonus:
		return errors.Errorf("rules.contractTarget must be between 1 and %d, got %d",
			engine.CardPointsTotal+c.Rules.LastTrickBonus, c.Rules.ContractTarget)
	case c.Rules.TieBreak != string(engine.TieBreakSuddenDeath) && c.Rules.TieBreak != string(engine.TieBreakLastTaker):
		return errors.Errorf("rules.tieBreak must be %q or %q, got %q", engine.TieBreakSuddenDeath, engine.TieBreakLastTaker, c.Rules.TieBreak)
	case c.Room.CodeLength < 4:
		return errors.Errorf("room.codeLength must be at least 4, got %d", c.Room.CodeLength)
	case c.Room.IdleTimeout < 0 || c.Room.TurnTimeout < 0 || c.Room.BotDelay < 0:
		return errors.New("room timeouts must not be negative")
	case c.Room.ChatPerSecond <= 0 || c.Room.ChatBurst <= 0:
		return errors.Errorf("room chat rate must be positive, got %v/s burst %d", c.Room.ChatPerSecond, c.Room.ChatBurst)
	case c.Room.ChatMaxLength <= 0:
		return errors.Errorf("room.chatMaxLength must be positive, got %d", c.Room.ChatMaxLength)
	case c.Room.SubscriberBuffer <= 0:
		return errors.Errorf("room.subscriberBuffer must be positive, got %d", c.Room.SubscriberBuffer)
	}
	return nil
}

// EngineRules converts the rules section into the engine's rule set.
func (c Config) EngineRules() engine.Rules {
	r := engine.CoinchePreset()
	r.WinScore = c.Rules.WinScore
	r.MaxRounds = c.Rules.MaxRounds
	r.ContractTarget = c.Rules.ContractTarget
	r.CapotBonus = c.Rules.CapotBonus
	r.BeloteBonus = c.Rules.BeloteBonus
	r.LastTrickBonus = c.Rules.LastTrickBonus
	r.AllowRaises = c.Rules.AllowRaises
	r.TieBreak = engine.TieBreak(c.Rules.TieBreak)
	return r
}
