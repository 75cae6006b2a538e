package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// Dispatcher delivers events to every subscribed plugin.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
}

// NewDispatcher creates a dispatcher over the plugins known to manager.
func NewDispatcher(manager *Manager, executor *Executor) *Dispatcher {
	return &Dispatcher{manager: manager, executor: executor}
}

// Notify marshals payload and sends it to the subscribers of event one after
// the other. A failing plugin does not stop the others; every failure is
// logged and returned joined.
func (d *Dispatcher) Notify(ctx context.Context, event, sessionID string, payload any) error {
	subs := d.manager.Subscribers(event)
	if len(subs) == 0 {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}

	var errs []error
	for _, p := range subs {
		req := &Request{Event: event, SessionID: sessionID, Payload: data}
		resp, err := d.executor.Execute(ctx, p, req)
		if err == nil && !resp.Success {
			err = errors.New(resp.Error)
		}
		if err != nil {
			log.Printf("[plugin] %s on %s: %v", p.Manifest.Name, event, err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Manifest.Name, err))
		}
	}
	return errors.Join(errs...)
}
