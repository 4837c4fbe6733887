package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwilachanda/aquaops-backend/internal/technicians"
	"github.com/mwilachanda/aquaops-backend/internal/workorders"
	"github.com/mwilachanda/aquaops-backend/pkg/config"
	"github.com/mwilachanda/aquaops-backend/pkg/db/models"
	"github.com/mwilachanda/aquaops-backend/pkg/enums"
	pkgerrors "github.com/mwilachanda/aquaops-backend/pkg/errors"
	"github.com/mwilachanda/aquaops-backend/pkg/logger"
)

// Store is the authoritative backend the client polls and mutates. The HTTP
// layer and in-process services both satisfy it.
type Store interface {
	FetchWorkOrders(ctx context.Context, filters workorders.ListFilters) (*workorders.ListResult, error)
	FetchTechnicians(ctx context.Context, filters technicians.ListFilters) (*technicians.ListResult, error)
	Transition(ctx context.Context, input workorders.TransitionInput) (*models.WorkOrder, error)
	Assign(ctx context.Context, orderID, technicianID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error)
	Unassign(ctx context.Context, orderID uuid.UUID, actor workorders.Actor) (*models.WorkOrder, error)
}

// Options configure one viewer's sync client.
type Options struct {
	Store       Store
	Logger      *logger.Logger
	Actor       workorders.Actor
	Filters     workorders.ListFilters
	TechFilters technicians.ListFilters
	Sync        config.SyncConfig
}

// Snapshot is the local cached state handed to the view layer.
type Snapshot struct {
	Orders      []models.WorkOrder
	Technicians []technicians.View
	NoData      bool
}

// Client keeps one viewer's local state in step with the store. Polls replace
// the cache wholesale; optimistic updates pin an entity until its action is
// confirmed or reverted.
type Client struct {
	store    Store
	logg     *logger.Logger
	actor    workorders.Actor
	filters  workorders.ListFilters
	tFilters technicians.ListFilters
	interval time.Duration
	timeout  time.Duration

	mu          sync.Mutex
	orders      map[uuid.UUID]models.WorkOrder
	confirmed   map[uuid.UUID]models.WorkOrder
	pending     map[uuid.UUID]struct{}
	confirmedAt map[uuid.UUID]time.Time
	techs     []technicians.View
	noData    bool
	stopped   bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewClient builds a sync client for one viewer.
func NewClient(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Actor.ID == uuid.Nil {
		return nil, fmt.Errorf("actor required")
	}

	interval := opts.Sync.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if opts.Sync.MaxPollInterval > 0 && interval > opts.Sync.MaxPollInterval {
		interval = opts.Sync.MaxPollInterval
	}
	timeout := opts.Sync.RequestTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &Client{
		store:     opts.Store,
		logg:      opts.Logger,
		actor:     opts.Actor,
		filters:   opts.Filters,
		tFilters:  opts.TechFilters,
		interval:  interval,
		timeout:   timeout,
		orders:      make(map[uuid.UUID]models.WorkOrder),
		confirmed:   make(map[uuid.UUID]models.WorkOrder),
		pending:     make(map[uuid.UUID]struct{}),
		confirmedAt: make(map[uuid.UUID]time.Time),
	}, nil
}

// Start launches the poll loop. It polls once immediately, then on the
// configured interval until Stop or context cancellation.
func (c *Client) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go func() {
		defer close(c.done)
		c.Poll(loopCtx)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				c.Poll(loopCtx)
			}
		}
	}()
}

// Stop halts the poll loop. Responses that land after Stop are ignored.
func (c *Client) Stop() {
	c.mu.Lock()
	c.stopped = true
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Poll fetches the filtered lists and replaces local state wholesale. The
// last server response wins; there is no partial merge. Entities with an
// action pending confirmation are skipped so a stale poll cannot flicker
// them back to their pre-action state.
func (c *Client) Poll(ctx context.Context) {
	fetchStart := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	orderList, err := c.store.FetchWorkOrders(fetchCtx, c.filters)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "work order poll failed")
		return
	}
	techList, err := c.store.FetchTechnicians(fetchCtx, c.tFilters)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "technician poll failed")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}

	fresh := make(map[uuid.UUID]models.WorkOrder, len(orderList.Orders))
	for _, order := range orderList.Orders {
		fresh[order.ID] = order
	}

	// Carry pinned entities over from the previous cache.
	for id := range c.pending {
		if current, ok := c.orders[id]; ok {
			fresh[id] = current
		}
	}
	// A fetch that started before an action's confirmation predates the
	// write; keep the confirmed value for those entities. Fetches are
	// bounded by the request timeout, so older marks cannot be raced
	// anymore and can go.
	for id, at := range c.confirmedAt {
		if at.After(fetchStart) {
			if current, ok := c.orders[id]; ok {
				fresh[id] = current
			}
		} else if time.Since(at) > c.timeout {
			delete(c.confirmedAt, id)
		}
	}
	for id, order := range fresh {
		if _, pinned := c.pending[id]; !pinned {
			c.confirmed[id] = order
		}
	}

	c.orders = fresh
	c.techs = techList.Technicians
	c.noData = orderList.NoData || techList.NoData
}

// Snapshot returns a copy of the cached state ordered by priority urgency,
// then recency.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	orders := make([]models.WorkOrder, 0, len(c.orders))
	for _, order := range c.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		ri, rj := orders[i].Priority.Rank(), orders[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	techs := make([]technicians.View, len(c.techs))
	copy(techs, c.techs)

	return Snapshot{Orders: orders, Technicians: techs, NoData: c.noData}
}

// Pending reports whether the entity has an unconfirmed action in flight.
func (c *Client) Pending(orderID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[orderID]
	return ok
}

// Assign optimistically marks the order assigned, then reconciles with the
// store's answer.
func (c *Client) Assign(ctx context.Context, orderID, technicianID uuid.UUID) (*models.WorkOrder, error) {
	return c.act(ctx, orderID, func(order *models.WorkOrder) {
		order.Status = enums.WorkOrderStatusAssigned
		order.AssigneeID = &technicianID
	}, func(actionCtx context.Context) (*models.WorkOrder, error) {
		return c.store.Assign(actionCtx, orderID, technicianID, c.actor)
	})
}

// Unassign optimistically returns the order to the pool.
func (c *Client) Unassign(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error) {
	return c.act(ctx, orderID, func(order *models.WorkOrder) {
		order.Status = enums.WorkOrderStatusPending
		order.AssigneeID = nil
	}, func(actionCtx context.Context) (*models.WorkOrder, error) {
		return c.store.Unassign(actionCtx, orderID, c.actor)
	})
}

// StartOrder moves the order to in progress.
func (c *Client) StartOrder(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error) {
	return c.transition(ctx, orderID, enums.WorkOrderStatusInProgress)
}

// CompleteOrder closes out the order.
func (c *Client) CompleteOrder(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error) {
	return c.transition(ctx, orderID, enums.WorkOrderStatusCompleted)
}

// CancelOrder abandons the order.
func (c *Client) CancelOrder(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error) {
	return c.transition(ctx, orderID, enums.WorkOrderStatusCancelled)
}

func (c *Client) transition(ctx context.Context, orderID uuid.UUID, target enums.WorkOrderStatus) (*models.WorkOrder, error) {
	return c.act(ctx, orderID, func(order *models.WorkOrder) {
		order.Status = target
	}, func(actionCtx context.Context) (*models.WorkOrder, error) {
		return c.store.Transition(actionCtx, workorders.TransitionInput{
			OrderID: orderID,
			Target:  target,
			Actor:   c.actor,
		})
	})
}

// act applies the optimistic mutation, issues the store call, and reconciles
// the response. Actions on the same entity are serialized: a second action is
// rejected while the first is pending confirmation.
func (c *Client) act(ctx context.Context, orderID uuid.UUID, optimistic func(*models.WorkOrder), do func(context.Context) (*models.WorkOrder, error)) (*models.WorkOrder, error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "client is stopped")
	}
	if _, inFlight := c.pending[orderID]; inFlight {
		c.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an action for this work order is already pending")
	}
	current, known := c.orders[orderID]
	if known {
		if _, saved := c.confirmed[orderID]; !saved {
			c.confirmed[orderID] = current
		}
		optimisticCopy := current
		optimistic(&optimisticCopy)
		c.orders[orderID] = optimisticCopy
	}
	c.pending[orderID] = struct{}{}
	c.mu.Unlock()

	actionCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	result, err := do(actionCtx)

	c.mu.Lock()
	if c.stopped {
		// The view is gone; drop the response on the floor.
		c.mu.Unlock()
		return result, err
	}
	delete(c.pending, orderID)
	if err != nil {
		// The server rejected the action. Revert to the last confirmed value
		// so no locally-invented state survives.
		if saved, ok := c.confirmed[orderID]; ok {
			c.orders[orderID] = saved
		} else {
			delete(c.orders, orderID)
		}
		c.mu.Unlock()
		return nil, err
	}

	// The server response is authoritative.
	c.orders[orderID] = *result
	c.confirmed[orderID] = *result
	c.confirmedAt[orderID] = time.Now()
	c.mu.Unlock()

	// Revalidate so the next rendered list reflects any writes this viewer
	// raced against.
	c.Poll(ctx)
	return result, nil
}
