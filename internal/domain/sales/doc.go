// Package sales holds marketplace orders and the financial reconciliation
// computed from them: gross revenue, net receivable, contribution margin
// and the zeroing rule for cancelled and returned orders.
package sales
