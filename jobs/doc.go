// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package jobs runs the marketplace's periodic maintenance.

# Jobs

	evaluate_penalties              0 3 * * *   escalate penalties from active issues
	calculate_price_guides          0 2 * * *   rebuild six month price guides
	check_shipping_proof_deadlines  0 * * * *   record issues for missing proof
	auto_cancel_unapproved_orders   30 * * * *  expire stale approvals, restock lots
	calculate_sla_metrics           0 4 * * *   seller response and shipping times
	calculate_user_ratings          0 5 * * 1   weekly buyer and seller ratings
	award_badges                    0 6 * * *   badges from the latest ratings

Schedules are UTC and can be overridden per job from the config file; an
empty schedule disables the job.

# Locking

A Runner takes a lock per job before running it, so a job never overlaps
itself. LocalLocker covers a single process. RedisLocker shares the locks
between replicas; a lock expires on its own if its holder dies.

	runner := jobs.NewRunner(db, jobs.NewLocalLocker())
	runner.RunByName(ctx, jobs.AwardBadges)
*/
package jobs
