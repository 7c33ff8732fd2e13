// Package worker provides background document processing using goroutines.
//
// Go Pattern: A buffered channel is the job queue; N worker goroutines
// range over it and process jobs concurrently. Handlers submit without
// blocking. Documents own disjoint chunk sets, so multiple ingestions
// can run concurrently with no coordination.
//
// Upload handlers queue a processing job right away so a document is
// usually ready by the time the reader opens it; the synchronous process
// endpoint remains the explicit trigger and retry path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Shimizu-Technology/reader-tools-api/internal/services/ingest"
)

// Job is one document to process.
type Job struct {
	DocumentID string
	CreatedAt  time.Time
}

// jobTimeout bounds one ingestion run. Extraction has its own internal
// retry bound, so anything still running after this is stuck.
const jobTimeout = 10 * time.Minute

// Pool manages a pool of ingestion worker goroutines.
type Pool struct {
	jobs     chan Job
	workers  int
	ingestor *ingest.Service

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a new worker pool.
func NewPool(workers, queueSize int, ingestor *ingest.Service) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:     make(chan Job, queueSize),
		workers:  workers,
		ingestor: ingestor,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	log.Printf("🚀 Starting %d ingestion workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop gracefully shuts down all workers: close the channel, cancel the
// context, wait for in-flight jobs to drain.
func (p *Pool) Stop() {
	log.Println("⏹️  Stopping ingestion workers...")
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
	log.Println("✅ All ingestion workers stopped")
}

// Submit adds a job to the queue. Returns an error if the queue is full
// (non-blocking — the HTTP handler must not hang on a busy queue).
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		log.Printf("📥 Ingestion queued for document %s", job.DocumentID)
		return nil
	default:
		return fmt.Errorf("ingestion queue is full; try again later")
	}
}

// QueueSize returns the current number of queued jobs.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log.Printf("👷 Worker %d started", id)

	for job := range p.jobs {
		select {
		case <-p.ctx.Done():
			log.Printf("👷 Worker %d shutting down", id)
			return
		default:
		}

		ctx, cancel := context.WithTimeout(p.ctx, jobTimeout)
		created, err := p.ingestor.Process(ctx, job.DocumentID)
		cancel()

		switch {
		case errors.Is(err, context.Canceled):
			log.Printf("👷 Worker %d: ingestion of %s cancelled during shutdown", id, job.DocumentID)
		case err != nil:
			// The document's status already records the failure; the
			// reader retries through the process endpoint.
			log.Printf("❌ Worker %d: ingestion of %s failed: %v", id, job.DocumentID, err)
		default:
			log.Printf("✅ Worker %d: document %s processed (%d chunks)", id, job.DocumentID, created)
		}
	}
}
