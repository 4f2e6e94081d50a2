package events

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

type connection struct {
	id        uint64
	processor Processor
}

// Bus delivers contexts to connected processors in connection order.
// Processors may dispatch nested contexts and connect or disconnect other
// processors while handling a context; changes apply to later dispatches.
// A Bus is not safe for concurrent use.
type Bus struct {
	connections []connection
	nextID      uint64
	logger      *zap.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger traces every dispatch at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// NewBus returns a bus without processors.
func NewBus(opts ...Option) *Bus {
	b := &Bus{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connect appends processors and returns a function that disconnects them.
func (b *Bus) Connect(processors ...Processor) (disconnect func()) {
	ids := make([]uint64, 0, len(processors))
	for _, p := range processors {
		b.nextID++
		b.connections = append(b.connections, connection{id: b.nextID, processor: p})
		ids = append(ids, b.nextID)
	}
	return func() {
		b.connections = slices.DeleteFunc(b.connections, func(c connection) bool {
			return slices.Contains(ids, c.id)
		})
	}
}

// ProcessorCount returns the number of connected processors.
func (b *Bus) ProcessorCount() int {
	return len(b.connections)
}

// Process delivers ctx to every connected processor and combines the
// results.
func (b *Bus) Process(ctx any) ProcessingResult {
	connections := slices.Clone(b.connections)

	var result Combiner
	for _, c := range connections {
		result.Add(c.processor.Process(ctx))
	}

	if ce := b.logger.Check(zap.DebugLevel, "dispatch"); ce != nil {
		fields := []zap.Field{
			zap.String("context", fmt.Sprintf("%T", ctx)),
			zap.Stringer("result", result.Result()),
		}
		if phased, ok := ctx.(PhasedContext); ok {
			fields = append(fields, zap.Stringer("phase", phased.Phase()))
		}
		ce.Write(fields...)
	}
	return result.Result()
}

// ProcessPhases dispatches ctx once for each phase in order. Every phase runs
// even after a failure.
func (b *Bus) ProcessPhases(ctx PhasedContext) ProcessingResult {
	var result Combiner
	for _, phase := range Phases {
		ctx.SetPhase(phase)
		result.Add(b.Process(ctx))
	}
	return result.Result()
}
