package edac

import (
	"fmt"
	"log"
	"os"

	"github.com/sarchlab/edac/fault"
	"github.com/sarchlab/edac/geometry"
	"github.com/sarchlab/edac/hooking"
	"github.com/sarchlab/edac/regs"
	"github.com/sarchlab/edac/scrub"
	"github.com/sarchlab/edac/timing"
)

// Builder can build new ECC controllers.
type Builder struct {
	space    regs.Space
	clock    timing.ClockSource
	platform geometry.Platform
	logger   *log.Logger
	sinks    []fault.Sink
	hooks    []hooking.Hook
}

// MakeBuilder creates a builder with default configuration. The register
// space must be set before Build.
func MakeBuilder() Builder {
	return Builder{
		clock:    timing.NoClock{},
		platform: geometry.Generic,
		logger:   log.New(os.Stderr, "edac: ", log.LstdFlags),
	}
}

// WithRegisterSpace sets the controller register window.
func (b Builder) WithRegisterSpace(space regs.Space) Builder {
	b.space = space
	return b
}

// WithClock sets where the core clock rate comes from. Without a clock the
// scrub rate is a pseudo bandwidth.
func (b Builder) WithClock(clock timing.ClockSource) Builder {
	b.clock = clock
	return b
}

// WithPlatform sets the platform the controller is integrated in.
func (b Builder) WithPlatform(p geometry.Platform) Builder {
	b.platform = p
	return b
}

// WithLogger sets the logger warnings go to.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithSink adds a sink every fault report is delivered to.
func (b Builder) WithSink(sink fault.Sink) Builder {
	b.sinks = append(b.sinks[:len(b.sinks):len(b.sinks)], sink)
	return b
}

// WithHook adds a hook to the controller and its scrubber.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

// Build detects the controller and decodes its address geometry. It fails
// with ErrConfig unless the controller runs SEC/DED ECC.
func (b Builder) Build() (*Controller, error) {
	if b.space == nil {
		return nil, fmt.Errorf("%w: no register space", ErrConfig)
	}

	info, err := geometry.Detect(b.space, b.platform)
	if err != nil {
		return nil, fmt.Errorf("edac: %w", err)
	}

	if info.ECCMode != geometry.ECCSECDED {
		return nil, fmt.Errorf("%w: ECC mode %s", ErrConfig, info.ECCMode)
	}

	geo, err := geometry.Build(b.space, info, b.platform, b.logger)
	if err != nil {
		return nil, fmt.Errorf("edac: %w", err)
	}

	c := &Controller{
		HookableBase: hooking.NewHookableBase(),
		space:        b.space,
		clock:        b.clock,
		geometry:     geo,
		sink:         fault.MultiSink(b.sinks),
		logger:       b.logger,
	}

	c.scrubber = scrub.NewController(
		b.space, &c.lock, scrub.ParamsFrom(info), b.clock, b.logger)
	c.decoder = fault.NewDecoder(b.space, &c.lock, info, geo.Translator())

	for _, h := range b.hooks {
		c.AcceptHook(h)
	}

	return c, nil
}
