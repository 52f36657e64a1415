package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"speedguard/internal/config"
	"speedguard/internal/logger"
)

var (
	// ErrQueueFull is returned by Submit when no more jobs can be queued.
	ErrQueueFull = errors.New("processing queue full")
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("manager stopped")
)

type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is a snapshot of one video processing job.
type Job struct {
	ID         string     `json:"job_id"`
	InputPath  string     `json:"-"`
	TracksPath string     `json:"-"`
	OutputPath string     `json:"-"`
	ResultFile string     `json:"result_video"`
	State      JobState   `json:"state"`
	Error      string     `json:"error,omitempty"`
	Frames     int        `json:"frames"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the job reached a terminal state.
func (j Job) Finished() bool {
	return j.State == JobDone || j.State == JobFailed
}

// JobRequest describes the files of a new job.
type JobRequest struct {
	InputPath  string
	TracksPath string
}

// Runner processes one job. progress is called with the number of frames done.
type Runner interface {
	Run(ctx context.Context, job Job, progress func(frames int)) error
}

type jobEntry struct {
	job  Job
	done chan struct{}
}

// Manager runs video jobs on a fixed pool of workers fed by a bounded queue.
type Manager struct {
	runner    Runner
	resultDir string
	logger    *logger.Logger

	processingQueue chan *jobEntry
	numWorkers      int

	jobs    map[string]*jobEntry
	jobsMu  sync.RWMutex
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(runner Runner, config *config.Config, logger *logger.Logger) *Manager {
	workers := config.ProcessingWorkers
	if workers <= 0 {
		workers = 1
	}
	queueSize := config.QueueSize
	if queueSize < 0 {
		queueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	manager := &Manager{
		runner:          runner,
		resultDir:       config.ResultDirectory,
		logger:          logger,
		processingQueue: make(chan *jobEntry, queueSize),
		numWorkers:      workers,
		jobs:            make(map[string]*jobEntry),
		ctx:             ctx,
		cancel:          cancel,
	}

	for i := 0; i < manager.numWorkers; i++ {
		manager.wg.Add(1)
		go manager.processingWorker(i)
	}

	manager.logger.Info("🎬 Manager started - %d worker(s), queue size %d", workers, queueSize)
	return manager
}

// Submit queues a job, or fails fast with ErrQueueFull.
func (m *Manager) Submit(req JobRequest) (Job, error) {
	id := uuid.New().String()
	resultFile := id + ".mp4"

	entry := &jobEntry{
		job: Job{
			ID:         id,
			InputPath:  req.InputPath,
			TracksPath: req.TracksPath,
			OutputPath: filepath.Join(m.resultDir, resultFile),
			ResultFile: resultFile,
			State:      JobQueued,
			CreatedAt:  time.Now(),
		},
		done: make(chan struct{}),
	}

	m.jobsMu.Lock()
	defer m.jobsMu.Unlock()

	if m.stopped {
		return Job{}, ErrStopped
	}

	select {
	case m.processingQueue <- entry:
		m.jobs[id] = entry
		m.logger.Info("📹 Job %s queued (%s)", id, filepath.Base(req.InputPath))
		return entry.job, nil
	default:
		m.logger.Warning("⚠️  Processing queue full - rejecting %s", filepath.Base(req.InputPath))
		return Job{}, ErrQueueFull
	}
}

// Job returns a snapshot of a job.
func (m *Manager) Job(id string) (Job, error) {
	m.jobsMu.RLock()
	defer m.jobsMu.RUnlock()

	entry, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return entry.job, nil
}

// Wait blocks until the job finishes or ctx ends, and returns its snapshot.
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	m.jobsMu.RLock()
	entry, ok := m.jobs[id]
	m.jobsMu.RUnlock()
	if !ok {
		return Job{}, ErrJobNotFound
	}

	select {
	case <-entry.done:
		return m.Job(id)
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// processingWorker przetwarza zadania w osobnym wątku
func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	m.logger.Info("🔧 Processing worker %d started", workerID)

	for entry := range m.processingQueue {
		m.process(entry, workerID)
	}

	m.logger.Info("🔧 Processing worker %d stopped", workerID)
}

func (m *Manager) process(entry *jobEntry, workerID int) {
	defer close(entry.done)

	id := entry.job.ID
	m.update(id, func(j *Job) { j.State = JobRunning })
	m.logger.Info("▶️  Worker %d processing job %s", workerID, id)

	job, _ := m.Job(id)
	err := m.runSafely(job, func(frames int) {
		m.update(id, func(j *Job) { j.Frames = frames })
	})

	finished := time.Now()
	m.update(id, func(j *Job) {
		j.FinishedAt = &finished
		if err != nil {
			j.State = JobFailed
			j.Error = err.Error()
		} else {
			j.State = JobDone
		}
	})

	if err != nil {
		m.logger.Error("Job %s failed: %v", id, err)
		return
	}
	done, _ := m.Job(id)
	m.logger.Info("✅ Job %s done - %d frames in %v", id, done.Frames, finished.Sub(done.CreatedAt).Round(time.Millisecond))
}

func (m *Manager) runSafely(job Job, progress func(int)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.runner.Run(m.ctx, job, progress)
}

func (m *Manager) update(id string, fn func(j *Job)) {
	m.jobsMu.Lock()
	defer m.jobsMu.Unlock()
	if entry, ok := m.jobs[id]; ok {
		fn(&entry.job)
	}
}

// Stop cancels running jobs and waits for all workers.
func (m *Manager) Stop() {
	m.jobsMu.Lock()
	if m.stopped {
		m.jobsMu.Unlock()
		return
	}
	m.stopped = true
	close(m.processingQueue)
	m.jobsMu.Unlock()

	m.cancel()
	m.wg.Wait()
	m.logger.Info("🛑 All processing workers stopped")
}
