package room

import (
	"time"

	"github.com/christophecraig/coinchette/internal/bots"
	"github.com/christophecraig/coinchette/internal/engine"
)

type Options struct {
	Rules      engine.Rules
	CodeLength int
	// IdleTimeout tears a room down once it has had no subscriber for that
	// long. Zero keeps rooms forever.
	IdleTimeout time.Duration
	// TurnTimeout plays a fallback move for a human who does not act in
	// time. Zero waits forever.
	TurnTimeout time.Duration
	// BotDelay paces scripted moves. Zero plays them at once.
	BotDelay time.Duration

	ChatPerSecond float64
	ChatBurst     int
	ChatMaxLength int

	SubscriberBuffer int
	ActionCacheSize  int

	Seed   func() int64
	NewBot func(seed int64) bots.Bot
	Sinks  []Sink

	codeGen func(n int) (string, error)
}

func (o Options) withDefaults() Options {
	if o.Rules.WinScore == 0 {
		o.Rules = engine.CoinchePreset()
	}
	if o.CodeLength <= 0 {
		o.CodeLength = 6
	}
	if o.ChatPerSecond <= 0 {
		o.ChatPerSecond = 1
	}
	if o.ChatBurst <= 0 {
		o.ChatBurst = 5
	}
	if o.ChatMaxLength <= 0 {
		o.ChatMaxLength = 280
	}
	if o.SubscriberBuffer <= 0 {
		o.SubscriberBuffer = 64
	}
	if o.ActionCacheSize <= 0 {
		o.ActionCacheSize = 256
	}
	if o.Seed == nil {
		o.Seed = func() int64 { return time.Now().UnixNano() }
	}
	if o.NewBot == nil {
		o.NewBot = func(seed int64) bots.Bot { return bots.NewNormal(seed) }
	}
	if o.codeGen == nil {
		o.codeGen = genRoomCode
	}
	return o
}
