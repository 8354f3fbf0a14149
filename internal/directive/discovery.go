package directive

import (
	"context"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/endpoint"
	"github.com/nerrad567/gray-logic-alexa/internal/items"
)

// handleDiscover enumerates the automation server's tagged items and answers
// with the endpoint catalogue.
//
// Discovery never returns an error envelope: the platform treats anything but
// Discover.Response as a skill fault and disables the skill, so failures
// degrade to an empty endpoint list.
func (d *Dispatcher) handleDiscover(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	settings, err := x.Client.GetRegionalSettings(ctx, x.Token)
	if err != nil {
		d.logger.Warn("regional settings unavailable, using defaults", "error", err)
		settings = items.RegionalSettings{}
	}

	list, err := x.Client.ListItems(ctx, x.Token)
	if err != nil {
		d.logger.Error("item enumeration failed", "error", err)
		return alexa.NewDiscoverResponse(x.Directive, nil), nil
	}

	builder := endpoint.NewBuilder(d.cfg.Server.MetadataNamespace, settings, d.logger)
	endpoints := builder.Build(list)

	discovered := make([]alexa.DiscoveryEndpoint, 0, len(endpoints))
	locale := discoveryLocale(settings)
	for _, ep := range endpoints {
		de, err := ep.Discovery(d.cfg.Skill.ManufacturerName, locale)
		if err != nil {
			d.logger.Warn("endpoint excluded from discovery",
				"endpointId", ep.ID, "error", err)
			continue
		}
		discovered = append(discovered, de)
	}

	d.logger.Info("discovery complete",
		"items", len(list), "endpoints", len(discovered))
	return alexa.NewDiscoverResponse(x.Directive, discovered), nil
}

// discoveryLocale derives the resource locale from the server's regional
// settings, defaulting to en-US.
func discoveryLocale(settings items.RegionalSettings) string {
	if settings.Language != "" && settings.Region != "" {
		return strings.ToLower(settings.Language) + "-" + strings.ToUpper(settings.Region)
	}
	return "en-US"
}

// handleAcceptGrant acknowledges the authorization grant. The bridge never
// sends proactive events, so the grant code is not exchanged for tokens.
func (d *Dispatcher) handleAcceptGrant(_ context.Context, x *Exchange) (*alexa.Response, error) {
	d.logger.Info("authorization grant accepted")
	return alexa.NewAcceptGrantResponse(x.Directive), nil
}

// handleReportState answers a state query with a StateReport carrying every
// readable property of the endpoint.
func (d *Dispatcher) handleReportState(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	properties, err := d.collectContext(ctx, x)
	if err != nil {
		return nil, err
	}
	return alexa.NewStateReport(x.Directive, properties), nil
}
