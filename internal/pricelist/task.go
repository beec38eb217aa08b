package pricelist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/01moynul/retail-orders/internal/tasks"
)

// TaskName is the task that parses and reconciles one uploaded price list.
const TaskName = "pricelist.reconcile"

type TaskArgs struct {
	UserID   int64  `json:"user_id"`
	Document string `json:"document"`
}

// TaskHandler runs TaskName tasks. Parse errors fail with code
// "parse_error", an unknown supplier with "not_found".
func TaskHandler(r *Reconciler) tasks.HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args TaskArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, tasks.Permanent(fmt.Errorf("pricelist: decode task args: %w", err))
		}

		doc, err := Parse([]byte(args.Document))
		if err != nil {
			return nil, err
		}
		return r.Reconcile(ctx, args.UserID, doc)
	}
}
