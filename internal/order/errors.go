package order

import "errors"

var ErrCreateOrder = errors.New("failed to create order")
var ErrCreateOrderLine = errors.New("failed to create order line")
var ErrDecrementStock = errors.New("failed to decrement product stock")

var ErrOrderNotFound = errors.New("order not found")
var ErrFailedToFindOrder = errors.New("failed to find order")
var ErrFailedToFindUserOrders = errors.New("failed to find user orders")
var ErrFailedToFindOrderLines = errors.New("failed to find order lines")
var ErrFailedToFindProducts = errors.New("failed to find products")

var ErrEmptyOrder = errors.New("order must contain at least one line")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")

var ErrAccessDenied = errors.New("access denied")
