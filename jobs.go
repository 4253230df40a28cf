package vsloader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/vsloader/ingestion"
)

// Job loads one source file into one index.
type Job struct {
	SourceFile string
	IndexName  string
	Recreate   bool // Delete and reload instead of skipping an existing index
}

// JobResult is the outcome of one Job.
type JobResult struct {
	Job    Job
	Result ingestion.Result
	Err    error
}

// DefaultJobs returns the main index job and, when a skills file is
// configured, the skills index job.
func (s *Service) DefaultJobs(recreate bool) []Job {
	jobs := []Job{{
		SourceFile: s.cfg.SourceFile(),
		IndexName:  s.cfg.OpenSearch.IndexName,
		Recreate:   recreate,
	}}
	if s.cfg.OpenSearch.SkillsFileName != "" {
		jobs = append(jobs, Job{
			SourceFile: s.cfg.OpenSearch.SkillsFileName,
			IndexName:  s.cfg.OpenSearch.SkillsIndexName,
			Recreate:   recreate,
		})
	}
	return jobs
}

// Run executes a single job on its own client.
func (s *Service) Run(ctx context.Context, job Job) (ingestion.Result, error) {
	client, err := s.NewClient(ctx, job.IndexName)
	if err != nil {
		return ingestion.Result{}, err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.logger.Warn("error closing client", "index", job.IndexName, "err", err)
		}
	}()

	vl, err := s.NewVectorstoreLoader(client)
	if err != nil {
		return ingestion.Result{}, err
	}
	if job.Recreate {
		return vl.RecreateDataLoad(ctx, job.SourceFile)
	}
	return vl.FreshDataLoad(ctx, job.SourceFile)
}

// RunJobs runs jobs concurrently, JOB_WORKERS at a time. Each job uses its
// own client and a sequential pipeline. Results are returned in job order;
// the error joins every job failure.
func (s *Service) RunJobs(ctx context.Context, jobs []Job) ([]JobResult, error) {
	pool, err := ants.NewPool(s.cfg.JobWorkers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]JobResult, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		results[i].Job = job
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i].Result, results[i].Err = s.Run(ctx, job)
		})
		if submitErr != nil {
			wg.Done()
			results[i].Err = submitErr
		}
	}
	wg.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			s.logger.Error("job failed", "index", r.Job.IndexName, "source", r.Job.SourceFile, "err", r.Err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Job.IndexName, r.Err))
		}
	}
	return results, errors.Join(errs...)
}
