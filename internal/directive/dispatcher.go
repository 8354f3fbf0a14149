// Package directive routes inbound Smart Home directives to their
// capability handlers and assembles exactly one response per invocation.
package directive

import (
	"context"
	"errors"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/endpoint"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-alexa/internal/items"
)

// route keys the handler table.
type route struct {
	Namespace string
	Name      string
}

// entry is one dispatch table row.
type entry struct {
	handle Handler

	// endpoint marks routes that need the capability model rehydrated
	// from the directive cookie before the handler runs.
	endpoint bool

	// report marks routes whose success response carries the endpoint's
	// current state as context properties.
	report bool
}

// Dispatcher owns the handler table and executes one directive per call.
// It is safe for concurrent use; every dispatch is self-contained.
type Dispatcher struct {
	cfg      *config.Config
	client   *items.Client
	logger   *logging.Logger
	handlers map[route]entry
}

// New creates a Dispatcher with the full handler table.
func New(cfg *config.Config, client *items.Client, logger *logging.Logger) *Dispatcher {
	d := &Dispatcher{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "directive"),
	}

	d.handlers = map[route]entry{
		{"Alexa.Discovery", "Discover"}:        {handle: d.handleDiscover},
		{"Alexa.Authorization", "AcceptGrant"}: {handle: d.handleAcceptGrant},
		{"Alexa", "ReportState"}:               {handle: d.handleReportState, endpoint: true},

		{"Alexa.PowerController", "TurnOn"}:  {handle: d.handlePower, endpoint: true, report: true},
		{"Alexa.PowerController", "TurnOff"}: {handle: d.handlePower, endpoint: true, report: true},

		{"Alexa.BrightnessController", "SetBrightness"}:    {handle: d.handleSetBrightness, endpoint: true, report: true},
		{"Alexa.BrightnessController", "AdjustBrightness"}: {handle: d.handleAdjustBrightness, endpoint: true, report: true},

		{"Alexa.PowerLevelController", "SetPowerLevel"}:    {handle: d.handleSetPowerLevel, endpoint: true, report: true},
		{"Alexa.PowerLevelController", "AdjustPowerLevel"}: {handle: d.handleAdjustPowerLevel, endpoint: true, report: true},

		{"Alexa.PercentageController", "SetPercentage"}:    {handle: d.handleSetPercentage, endpoint: true, report: true},
		{"Alexa.PercentageController", "AdjustPercentage"}: {handle: d.handleAdjustPercentage, endpoint: true, report: true},

		{"Alexa.ColorController", "SetColor"}: {handle: d.handleSetColor, endpoint: true, report: true},

		{"Alexa.ColorTemperatureController", "SetColorTemperature"}:      {handle: d.handleSetColorTemperature, endpoint: true, report: true},
		{"Alexa.ColorTemperatureController", "IncreaseColorTemperature"}: {handle: d.handleShiftColorTemperature, endpoint: true, report: true},
		{"Alexa.ColorTemperatureController", "DecreaseColorTemperature"}: {handle: d.handleShiftColorTemperature, endpoint: true, report: true},

		{"Alexa.ThermostatController", "SetTargetTemperature"}:    {handle: d.handleSetTargetTemperature, endpoint: true, report: true},
		{"Alexa.ThermostatController", "AdjustTargetTemperature"}: {handle: d.handleAdjustTargetTemperature, endpoint: true, report: true},
		{"Alexa.ThermostatController", "SetThermostatMode"}:       {handle: d.handleSetThermostatMode, endpoint: true, report: true},
		{"Alexa.ThermostatController", "ResumeSchedule"}:          {handle: d.handleResumeSchedule, endpoint: true, report: true},

		{"Alexa.LockController", "Lock"}:   {handle: d.handleLock, endpoint: true, report: true},
		{"Alexa.LockController", "Unlock"}: {handle: d.handleLock, endpoint: true, report: true},

		{"Alexa.ModeController", "SetMode"}:    {handle: d.handleSetMode, endpoint: true, report: true},
		{"Alexa.ModeController", "AdjustMode"}: {handle: d.handleAdjustMode, endpoint: true, report: true},

		{"Alexa.RangeController", "SetRangeValue"}:    {handle: d.handleSetRangeValue, endpoint: true, report: true},
		{"Alexa.RangeController", "AdjustRangeValue"}: {handle: d.handleAdjustRangeValue, endpoint: true, report: true},

		{"Alexa.ToggleController", "TurnOn"}:  {handle: d.handleToggle, endpoint: true, report: true},
		{"Alexa.ToggleController", "TurnOff"}: {handle: d.handleToggle, endpoint: true, report: true},

		{"Alexa.SceneController", "Activate"}:   {handle: d.handleScene, endpoint: true},
		{"Alexa.SceneController", "Deactivate"}: {handle: d.handleScene, endpoint: true},

		{"Alexa.Speaker", "SetVolume"}:    {handle: d.handleSetVolume, endpoint: true, report: true},
		{"Alexa.Speaker", "AdjustVolume"}: {handle: d.handleAdjustVolume, endpoint: true, report: true},
		{"Alexa.Speaker", "SetMute"}:      {handle: d.handleSetMute, endpoint: true, report: true},

		{"Alexa.StepSpeaker", "AdjustVolume"}: {handle: d.handleStepVolume, endpoint: true},
		{"Alexa.StepSpeaker", "SetMute"}:      {handle: d.handleStepMute, endpoint: true},

		{"Alexa.PlaybackController", "Play"}:        {handle: d.handlePlayback, endpoint: true},
		{"Alexa.PlaybackController", "Pause"}:       {handle: d.handlePlayback, endpoint: true},
		{"Alexa.PlaybackController", "Stop"}:        {handle: d.handlePlayback, endpoint: true},
		{"Alexa.PlaybackController", "Next"}:        {handle: d.handlePlayback, endpoint: true},
		{"Alexa.PlaybackController", "Previous"}:    {handle: d.handlePlayback, endpoint: true},
		{"Alexa.PlaybackController", "FastForward"}: {handle: d.handlePlayback, endpoint: true},
		{"Alexa.PlaybackController", "Rewind"}:      {handle: d.handlePlayback, endpoint: true},

		{"Alexa.EqualizerController", "SetBands"}:    {handle: d.handleSetBands, endpoint: true, report: true},
		{"Alexa.EqualizerController", "AdjustBands"}: {handle: d.handleAdjustBands, endpoint: true, report: true},
		{"Alexa.EqualizerController", "ResetBands"}:  {handle: d.handleResetBands, endpoint: true, report: true},
		{"Alexa.EqualizerController", "SetMode"}:     {handle: d.handleSetEqualizerMode, endpoint: true, report: true},

		{"Alexa.SecurityPanelController", "Arm"}:    {handle: d.handleArm, endpoint: true},
		{"Alexa.SecurityPanelController", "Disarm"}: {handle: d.handleDisarm, endpoint: true},

		{"Alexa.ChannelController", "ChangeChannel"}: {handle: d.handleChangeChannel, endpoint: true, report: true},
		{"Alexa.ChannelController", "SkipChannels"}:  {handle: d.handleSkipChannels, endpoint: true, report: true},

		{"Alexa.InputController", "SelectInput"}: {handle: d.handleSelectInput, endpoint: true, report: true},
	}

	return d
}

// Dispatch executes one directive under the configured wall-clock deadline
// and always returns a well-formed response: the handler result, a typed
// error envelope, or the timeout's internal-error envelope if the deadline
// fires first. First response wins; a late handler result is discarded.
func (d *Dispatcher) Dispatch(ctx context.Context, req *alexa.Request) *alexa.Response {
	dir := &req.Directive

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Deadline())
	defer cancel()

	done := make(chan *alexa.Response, 1)
	go func() {
		done <- d.execute(ctx, dir)
	}()

	select {
	case resp := <-done:
		return resp
	case <-ctx.Done():
		d.logger.Error("directive deadline elapsed",
			"namespace", dir.Header.Namespace,
			"name", dir.Header.Name,
			"messageId", dir.Header.MessageID)
		return alexa.NewErrorResponse(dir,
			alexa.NewDirectiveError(alexa.ErrTypeInternalError, "request timed out"))
	}
}

// execute runs the full per-directive state machine: route lookup, endpoint
// rehydration, handler execution, context collection, error conversion.
func (d *Dispatcher) execute(ctx context.Context, dir *alexa.Directive) (resp *alexa.Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked",
				"namespace", dir.Header.Namespace,
				"name", dir.Header.Name,
				"panic", r)
			resp = alexa.NewErrorResponse(dir,
				alexa.NewDirectiveError(alexa.ErrTypeInternalError, "internal handler failure"))
		}
	}()

	e, ok := d.handlers[route{dir.Header.Namespace, dir.Header.Name}]
	if !ok {
		return alexa.NewErrorResponse(dir, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
			"unsupported directive "+dir.Header.Namespace+"."+dir.Header.Name))
	}

	x := &Exchange{
		Directive: dir,
		Token:     dir.ScopeToken(),
		Client:    d.client,
		Logger:    d.logger,
	}

	if e.endpoint {
		if dir.Endpoint == nil || dir.Endpoint.EndpointID == "" {
			return alexa.NewErrorResponse(dir, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
				"directive carries no endpoint"))
		}
		caps, err := endpoint.DecodeCookie(dir.Endpoint.Cookie)
		if err != nil {
			d.logger.Warn("endpoint cookie unusable, rebuilding from live item",
				"endpointId", dir.Endpoint.EndpointID, "error", err)
			caps, err = d.rebuildCapabilities(ctx, x, dir.Endpoint.EndpointID)
		}
		if err != nil {
			d.logger.Error("endpoint model unavailable",
				"endpointId", dir.Endpoint.EndpointID, "error", err)
			return alexa.NewErrorResponse(dir, alexa.NewDirectiveError(alexa.ErrTypeInternalError,
				"endpoint model could not be restored; re-run discovery"))
		}
		x.Endpoint = &endpoint.Endpoint{ID: dir.Endpoint.EndpointID, Capabilities: caps}
	}

	resp, err := e.handle(ctx, x)
	if err != nil {
		return d.errorResponse(dir, err)
	}
	if resp != nil {
		return resp
	}

	var properties []alexa.ContextProperty
	if e.report {
		properties, err = d.collectContext(ctx, x)
		if err != nil {
			return d.errorResponse(dir, err)
		}
	}
	return alexa.NewResponse(dir, properties)
}

// rebuildCapabilities recovers an endpoint's capability model from the live
// item when the directive cookie is missing or unreadable, covering
// endpoints discovered before the current cookie format.
func (d *Dispatcher) rebuildCapabilities(ctx context.Context, x *Exchange, id string) ([]*capability.Capability, error) {
	item, err := x.Client.GetItem(ctx, x.Token, id)
	if err != nil {
		return nil, err
	}
	settings, err := x.Client.GetRegionalSettings(ctx, x.Token)
	if err != nil {
		settings = items.RegionalSettings{}
	}

	ep := endpoint.NewBuilder(d.cfg.Server.MetadataNamespace, settings, d.logger).BuildEndpoint(item)
	if ep == nil {
		return nil, errors.New("item " + id + " carries no capability declaration")
	}
	return ep.Capabilities, nil
}

// errorResponse converts a handler failure into its error envelope.
//
// Domain errors pass through as-is and are not logged as faults; transport
// and conversion failures are classified per collaborator status, logged
// with request context.
func (d *Dispatcher) errorResponse(dir *alexa.Directive, err error) *alexa.Response {
	var derr *alexa.DirectiveError
	if errors.As(err, &derr) {
		return alexa.NewErrorResponse(dir, derr)
	}

	d.logger.Error("directive failed",
		"namespace", dir.Header.Namespace,
		"name", dir.Header.Name,
		"error", err)

	var errType alexa.ErrorType
	switch {
	case errors.Is(err, items.ErrBadRequest), errors.Is(err, capability.ErrValueOutOfDomain):
		errType = alexa.ErrTypeInvalidValue
	case errors.Is(err, items.ErrUnauthorized):
		errType = alexa.ErrTypeInvalidAuthorizationCredential
	case errors.Is(err, items.ErrItemNotFound):
		errType = alexa.ErrTypeNoSuchEndpoint
	case errors.Is(err, items.ErrServerUnreachable):
		errType = alexa.ErrTypeBridgeUnreachable
	case errors.Is(err, capability.ErrStateUnavailable):
		errType = alexa.ErrTypeEndpointUnreachable
	case errors.Is(err, context.DeadlineExceeded):
		errType = alexa.ErrTypeInternalError
	default:
		errType = alexa.ErrTypeEndpointUnreachable
	}
	return alexa.NewErrorResponse(dir, alexa.NewDirectiveError(errType, err.Error()))
}
