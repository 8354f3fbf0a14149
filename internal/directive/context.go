package directive

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/items"
)

// collectStateConcurrency bounds parallel state queries per directive so a
// capability-heavy endpoint cannot flood the server.
const collectStateConcurrency = 4

// propertyState is one fetched-and-converted reading, index-tagged so the
// fan-out preserves declaration order.
type propertyState struct {
	property *capability.Property
	value    any
	ok       bool
}

// collectContext queries current state for every reportable property of the
// exchange's endpoint and converts the readings to context properties.
//
// Properties whose state is undefined or unparseable are skipped rather than
// failing the directive. If at least one property was queried and every
// reading was skipped the endpoint is treated as unreachable. Transport and
// credential failures abort immediately.
func (d *Dispatcher) collectContext(ctx context.Context, x *Exchange) ([]alexa.ContextProperty, error) {
	reportable := x.Endpoint.ReportableProperties()
	if len(reportable) == 0 {
		return nil, nil
	}

	states := make([]propertyState, len(reportable))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(collectStateConcurrency)
	for i, p := range reportable {
		g.Go(func() error {
			raw, err := x.Client.GetItemState(gctx, x.Token, p.ReadItem())
			if err != nil {
				if errors.Is(err, items.ErrServerUnreachable) || errors.Is(err, items.ErrUnauthorized) {
					return err
				}
				d.logger.Warn("state query failed, property skipped",
					"endpointId", x.Endpoint.ID, "item", p.ReadItem(), "error", err)
				return nil
			}
			value, err := capability.ToAlexa(p, raw)
			if err != nil {
				if !errors.Is(err, capability.ErrStateUnavailable) {
					return err
				}
				return nil
			}
			states[i] = propertyState{property: p, value: value, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	properties := assembleContext(states)
	if len(properties) == 0 {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeEndpointUnreachable,
			"no state could be read for endpoint "+x.Endpoint.ID)
	}
	return properties, nil
}

// assembleContext turns fetched readings into context properties, joining
// component readings that share a property into one composite value.
func assembleContext(states []propertyState) []alexa.ContextProperty {
	type compositeKey struct {
		namespace, instance, name string
	}
	composites := make(map[compositeKey]int)

	var out []alexa.ContextProperty
	for _, s := range states {
		if !s.ok {
			continue
		}
		p := s.property
		namespace := "Alexa." + p.Interface

		if p.Component == "" {
			out = append(out, alexa.NewContextProperty(namespace, p.Instance, p.Name, s.value))
			continue
		}

		component := map[string]any{
			"name":  strings.ToUpper(p.Component),
			"value": s.value,
		}
		key := compositeKey{namespace, p.Instance, p.Name}
		if idx, ok := composites[key]; ok {
			out[idx].Value = append(out[idx].Value.([]map[string]any), component)
			continue
		}
		composites[key] = len(out)
		out = append(out, alexa.NewContextProperty(namespace, p.Instance, p.Name, []map[string]any{component}))
	}
	return out
}
