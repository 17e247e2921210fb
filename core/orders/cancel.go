package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adalundhe/shopkeep/core/schema"
)

// Cancel cancels an order, returns its items to stock and flips the
// status cell in place. The row is never deleted; the ledger keeps its
// history.
func (m *Manager) Cancel(ctx context.Context, req CancelRequest) Result {
	return m.guarded(TokenCancellationFailed, func() Result { return m.cancel(ctx, req) })
}

func (m *Manager) cancel(ctx context.Context, req CancelRequest) Result {
	if req.OrderID == "" {
		return failure(TokenInvalidFormat, "order_id is required")
	}

	or, err := m.findOrder(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, errOrderNotFound) {
			return failure(TokenOrderNotFound, fmt.Sprintf("Order %q not found", req.OrderID))
		}
		return failureErr(TokenCancellationFailed, err)
	}

	statusMatch, ok := or.mapping[schema.RoleStatus]
	if !ok {
		return failure(TokenCancellationFailed, "orders sheet has no status column")
	}

	// Only a pending order can be cancelled. An order with no recorded
	// status counts as pending for backward compatibility with rows
	// written before the status column existed.
	status := strings.ToLower(or.value(schema.RoleStatus))
	switch status {
	case "", strings.ToLower(StatusPending):
	case strings.ToLower(StatusCancelled):
		return failure(TokenAlreadyCancelled, fmt.Sprintf("Order %s is already cancelled", req.OrderID))
	case strings.ToLower(StatusDelivered):
		return failure(TokenCannotCancelDelivered,
			fmt.Sprintf("Order %s was already delivered and cannot be cancelled", req.OrderID))
	default:
		return failure(TokenInvalidCancelStatus,
			fmt.Sprintf("Order %s has status %q and cannot be cancelled", req.OrderID, or.value(schema.RoleStatus)))
	}

	items := ParseStoredLists(or.value(schema.RoleProductName), or.value(schema.RoleQuantity))

	// Restore stock leniently: a product that vanished from inventory or
	// lost its quantity tracking just doesn't get restored.
	var restored []SummaryLine
	if len(items) > 0 {
		snap, err := m.ledger.Snapshot(ctx)
		if err != nil {
			return failureErr(TokenCancellationFailed, err)
		}
		for _, it := range items {
			if it.Quantity <= 0 {
				continue
			}
			found, ok := snap.Find(it.Name)
			if !ok {
				m.logger.Warn("cancelled item missing from inventory, stock not restored",
					"order_id", req.OrderID, "product", it.Name)
				continue
			}
			if err := m.adjustLenient(ctx, snap, found, it.Quantity); err != nil {
				return failureErr(TokenCancellationFailed, err)
			}
			restored = append(restored, SummaryLine{Name: found.Name(), Quantity: it.Quantity})
		}
	}

	statusIdx := or.headerIndex(statusMatch.Key)
	if statusIdx < 0 {
		return failure(TokenCancellationFailed, "orders sheet has no status column")
	}
	if err := m.writeOrderCell(ctx, or, statusIdx, StatusCancelled); err != nil {
		return failureErr(TokenCancellationFailed, err)
	}

	m.logger.Info("order cancelled",
		"order_id", req.OrderID,
		"items_restored", len(restored))

	restoredMap := make(map[string]int, len(restored))
	for _, line := range restored {
		restoredMap[line.Name] = line.Quantity
	}
	return Result{
		Success:      true,
		Message:      fmt.Sprintf("Order %s cancelled", req.OrderID),
		OrderSummary: RenderCancellation(req.OrderID, restored),
		OrderDetails: map[string]any{
			"order_id":        req.OrderID,
			"previous_status": or.value(schema.RoleStatus),
			"new_status":      StatusCancelled,
			"restored":        restoredMap,
		},
	}
}
