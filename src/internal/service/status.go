package service

import (
	"context"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/dnsconfig"
	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

// Status is a point-in-time copy of the engine state.
type Status struct {
	Generation uint64    `json:"generation"`
	LastPass   time.Time `json:"last_pass,omitempty"`

	Services []models.ServiceID  `json:"services"`
	Order    models.ServiceOrder `json:"service_order,omitempty"`

	IPv4 *election.Results `json:"ipv4,omitempty"`
	IPv6 *election.Results `json:"ipv6,omitempty"`

	Routes             []models.IPv4Route `json:"routes"`
	MulticastInstalled bool               `json:"multicast_installed"`

	Resolvers *dnsconfig.Config `json:"resolvers,omitempty"`
	Proxy     *models.ProxyInfo `json:"proxy,omitempty"`
	NWI       *NWISnapshot      `json:"nwi,omitempty"`

	Notification NotificationStatus `json:"notification"`
}

// NotificationStatus describes the coalescer.
type NotificationStatus struct {
	State   string `json:"state"`
	Pending string `json:"pending"`
}

// Status returns a copy of the engine state taken on the worker goroutine.
// Election results and resolver configurations are never modified after a
// pass publishes them, so they are shared rather than copied.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	result := make(chan *Status, 1)
	e.Submit(func() {
		result <- e.status()
	})

	select {
	case s := <-result:
		return s, nil
	case <-e.done:
		return nil, context.Canceled
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Engine) status() *Status {
	s := &Status{
		Generation:         e.generation,
		LastPass:           e.lastPass,
		Services:           sortedIDs(e.services),
		Order:              append(models.ServiceOrder(nil), e.order...),
		IPv4:               e.ipv4,
		IPv6:               e.ipv6,
		Routes:             e.routes.Committed().Routes(),
		MulticastInstalled: e.routes.MulticastInstalled(),
		Resolvers:          e.resolvers,
		NWI:                e.nwi,
		Notification: NotificationStatus{
			State:   e.coalescer.State().String(),
			Pending: e.coalescer.Pending().String(),
		},
	}
	if e.proxy != nil {
		proxy := *e.proxy
		proxy.ExceptionsList = append([]string(nil), e.proxy.ExceptionsList...)
		s.Proxy = &proxy
	}
	return s
}
