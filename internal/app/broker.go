package app

import (
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/relay/internal/core"
	"github.com/dkeye/relay/internal/domain"
	"github.com/dkeye/relay/internal/metrics"
	"github.com/dkeye/relay/internal/protocol"
)

//go:generate mockgen -destination=./mocks/emitter_mock.go -package=mocks github.com/dkeye/relay/internal/core Emitter

// Broker implements register, pull and push on top of the Registry.
// Every membership change goes through Registry; Broker holds no state.
type Broker struct {
	Registry *Registry
	Emitter  core.Emitter
	Policy   Policy
	Metrics  *metrics.Metrics
}

// NewBroker wires a broker that emits through the registry's endpoints.
func NewBroker(reg *Registry, policy Policy, m *metrics.Metrics) *Broker {
	return &Broker{
		Registry: reg,
		Emitter:  reg,
		Policy:   policy,
		Metrics:  m,
	}
}

// Dispatch applies one decoded inbound event from src. msg comes from
// protocol.Decode, which only yields known events.
func (b *Broker) Dispatch(src domain.ConnectionID, msg protocol.Message) core.Delivery {
	b.Metrics.EventReceived(msg.Event)
	switch msg.Event {
	case protocol.EventRegister:
		b.Register(src, msg.Room)
	case protocol.EventPull:
		return b.Pull(src, msg.Room)
	case protocol.EventPush:
		return b.Push(src, msg.Room, msg.Data)
	}
	return core.Delivery{}
}

// Register joins src to room. Nothing is sent.
func (b *Broker) Register(src domain.ConnectionID, room domain.RoomID) {
	if b.Registry.Join(src, room) {
		log.Info().Str("module", "app.broker").Str("sid", string(src)).Str("room", string(room)).Msg("registered")
	}
}

// Pull asks the current members of room for their state on behalf of src,
// then makes src a member. src never receives its own pull.
func (b *Broker) Pull(src domain.ConnectionID, room domain.RoomID) core.Delivery {
	members, ok := b.Registry.SnapshotAndJoin(src, room)
	if !ok {
		log.Debug().Str("module", "app.broker").Str("sid", string(src)).Str("room", string(room)).Msg("pull from unknown connection")
		return core.Delivery{}
	}
	if len(members) == 0 {
		log.Debug().Str("module", "app.broker").Str("sid", string(src)).Str("room", string(room)).Msg("pull into empty room")
		return core.Delivery{}
	}
	f, err := protocol.PullFrame(src)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broker").Msg("encode pull")
		return core.Delivery{}
	}
	return b.fanOut(protocol.EventPull, src, room, members, f)
}

// Push relays data to every member of room, src included if it is one.
func (b *Broker) Push(src domain.ConnectionID, room domain.RoomID, data json.RawMessage) core.Delivery {
	members := b.Registry.MembersOf(room)
	if len(members) == 0 {
		return core.Delivery{}
	}
	f, err := protocol.PushFrame(data)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broker").Msg("encode push")
		return core.Delivery{}
	}
	return b.fanOut(protocol.EventPush, src, room, members, f)
}

func (b *Broker) fanOut(event string, src domain.ConnectionID, room domain.RoomID, members []domain.ConnectionID, f core.Frame) core.Delivery {
	var res core.Delivery
	for _, id := range members {
		res.Add(id, b.Emitter.EmitTo(id, f))
	}
	b.Metrics.Delivered(event, res.Sent, res.Dropped)
	log.Debug().
		Str("module", "app.broker").
		Str("event", event).
		Str("from", string(src)).
		Str("room", string(room)).
		Int("sent_to", res.Sent).
		Int("dropped", res.Dropped).
		Msg("broadcast result")

	if b.Policy == nil {
		return res
	}
	for _, slow := range res.Slow {
		switch b.Policy.OnBackPressure(room, slow) {
		case KickMember:
			log.Warn().Str("module", "app.broker").Str("sid", string(slow)).Str("room", string(room)).Msg("kicking slow consumer")
			b.Registry.Close(slow)
		case DropFrame, NoAction:
		}
	}
	return res
}
