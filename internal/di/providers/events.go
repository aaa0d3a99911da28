package providers

import (
	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/events"
	"github.com/inkwellapp/inkwell-server/internal/logger"
)

// EmitterHandle fans domain events out to live SSE clients and, when
// configured, a Kafka topic.
type EmitterHandle struct {
	events.Fanout
	kafka *events.KafkaPublisher
}

// Shutdown implements do.Shutdownable.
func (h *EmitterHandle) Shutdown() error {
	if h.kafka == nil {
		return nil
	}
	return h.kafka.Shutdown()
}

// ProvideEmitter provides the domain event emitter.
func ProvideEmitter(i do.Injector) (*EmitterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	h := &EmitterHandle{Fanout: events.Fanout{sseHandle.Manager}}

	if len(cfg.Kafka.Brokers) > 0 {
		h.kafka = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log.Logger)
		h.Fanout = append(h.Fanout, h.kafka)
		log.Info("Publishing post events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	return h, nil
}
