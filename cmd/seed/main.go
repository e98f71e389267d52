// seed inserts a handful of delay-tolerant workloads into the local dev
// database for manual testing of the periodic runner.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ErlanBelekov/dist-job-scheduler/internal/infrastructure/postgres"
	"github.com/jackc/pgx/v5"
)

const seedProjectID = "proj_seed_dev_local"

type dtwSpec struct {
	name           string
	workflowName   string
	jobDurationMin int
	deadlineIn     time.Duration
}

var dtws = []dtwSpec{
	{"seed-immediate-report", "send-report", 10, 5 * time.Minute},
	{"seed-last-minute-backup", "run-backup", 90, 3 * time.Hour},
	{"seed-energy-aware-batch", "batch-transform", 120, 20 * time.Hour},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	var inserted, skipped int
	for _, spec := range dtws {
		deadline := time.Now().Add(spec.deadlineIn)
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO delay_tolerant_workloads (
				name, workflow_id, workflow_name, workflow_input, workflow_params,
				deadline, job_duration, scope, trust_id, executed, scheduled, project_id
			) VALUES ($1, '', $2, '{}', '{}', $3, $4, 'private', '', FALSE, FALSE, $5)
			ON CONFLICT (name) DO NOTHING
			RETURNING id`,
			spec.name, spec.workflowName, deadline, spec.jobDurationMin, seedProjectID,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			// ON CONFLICT DO NOTHING returns no row for an existing name.
			skipped++
			continue
		}
		if err != nil {
			log.Fatalf("insert dtw %s: %v", spec.name, err)
		}
		if id == "" {
			skipped++
		} else {
			inserted++
		}
	}

	fmt.Println("Seed complete")
	fmt.Printf("  DTWs created: %d  (skipped %d already existing)\n", inserted, skipped)
	fmt.Println()
	fmt.Println("The periodic runner will pick these up on its next tick and place")
	fmt.Println("them per the configured DTW_SCHEDULER_MODE.")
}
