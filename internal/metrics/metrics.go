package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	roomsCreatedCounter       prometheus.Counter
	roomsClosedCounter        *prometheus.CounterVec
	activeRoomsGauge          prometheus.Gauge
	gamesStartedCounter       prometheus.Counter
	gamesFinishedCounter      prometheus.Counter
	roundsScoredCounter       prometheus.Counter
	roundsVoidedCounter       prometheus.Counter
	actionsRejectedCounter    *prometheus.CounterVec
	subscribersDroppedCounter prometheus.Counter
	chatRejectedCounter       prometheus.Counter
}

func (m *metrics) RoomCreated() {
	m.roomsCreatedCounter.Inc()
}

// RoomClosed counts a teardown; reason is idle, failed or shutdown.
func (m *metrics) RoomClosed(reason string) {
	m.roomsClosedCounter.WithLabelValues(reason).Inc()
}

func (m *metrics) SetActiveRooms(count int) {
	m.activeRoomsGauge.Set(float64(count))
}

func (m *metrics) GameStarted() {
	m.gamesStartedCounter.Inc()
}

func (m *metrics) GameFinished() {
	m.gamesFinishedCounter.Inc()
}

func (m *metrics) RoundScored() {
	m.roundsScoredCounter.Inc()
}

func (m *metrics) RoundVoided() {
	m.roundsVoidedCounter.Inc()
}

func (m *metrics) ActionRejected(code string) {
	m.actionsRejectedCounter.WithLabelValues(code).Inc()
}

func (m *metrics) SubscriberDropped() {
	m.subscribersDroppedCounter.Inc()
}

func (m *metrics) ChatRejected() {
	m.chatRejectedCounter.Inc()
}

var Metrics = &metrics{
	roomsCreatedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinchette_rooms_created_total",
		Help: "Total number of rooms created",
	}),
	roomsClosedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coinchette_rooms_closed_total",
		Help: "Total number of rooms torn down, by reason",
	}, []string{"reason"}),
	activeRoomsGauge: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coinchette_active_rooms",
		Help: "Count of the entries in the room registry",
	}),
	gamesStartedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinchette_games_started_total",
		Help: "Total number of games started",
	}),
	gamesFinishedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinchette_games_finished_total",
		Help: "Total number of games played to the end",
	}),
	roundsScoredCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinchette_rounds_scored_total",
		Help: "Total number of rounds scored",
	}),
	roundsVoidedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinchette_rounds_voided_total",
		Help: "Total number of deals voided because all four seats passed",
	}),
	actionsRejectedCounter: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coinchette_actions_rejected_total",
		Help: "Total number of rejected commands, by error code",
	}, []string{"code"}),
	subscribersDroppedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinchette_subscribers_dropped_total",
		Help: "Total number of subscribers dropped for falling behind",
	}),
	chatRejectedCounter: promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinchette_chat_rejected_total",
		Help: "Total number of chat messages refused by the rate limiter or length check",
	}),
}
