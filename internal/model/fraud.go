package model

import "time"

// FraudResult stores the aggregate outcome of the fraud pipeline for one
// user.  At most one row exists per user: re-evaluations update status
// and reason in place (upsert by user id).
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – evaluated user, unique.
//  Status    – aggregate verdict: OK, KO or SUSPICIOUS.
//  Reason    – ";"-joined details of every non-OK item, in evaluation order.
//  CreatedAt – first evaluation instant.
//  UpdatedAt – last evaluation instant.
type FraudResult struct {
	ID        int64     // fraud_results.id
	UserID    int64     // fraud_results.user_id (unique)
	Status    string    // fraud_results.status
	Reason    string    // fraud_results.reason
	CreatedAt time.Time // fraud_results.created_at
	UpdatedAt time.Time // fraud_results.updated_at
}
