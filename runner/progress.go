package runner

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/fossillogic/fossil-test/types"
)

// ProgressIndicator interface for UI updates
type ProgressIndicator interface {
	StartRun(runID string, totalCases int)
	StartSuite(suiteName string, totalCases int)
	StartCase(caseName string)
	UpdateCase(caseName string, status types.Status)
	CompleteSuite(suiteName string)
	CompleteRun(runID string)
}

// noOpProgressIndicator provides a no-op implementation of ProgressIndicator
type noOpProgressIndicator struct{}

// NewNoOpProgressIndicator creates a progress indicator that does nothing
func NewNoOpProgressIndicator() ProgressIndicator {
	return &noOpProgressIndicator{}
}

func (n *noOpProgressIndicator) StartRun(runID string, totalCases int)           {}
func (n *noOpProgressIndicator) StartSuite(suiteName string, totalCases int)     {}
func (n *noOpProgressIndicator) StartCase(caseName string)                       {}
func (n *noOpProgressIndicator) UpdateCase(caseName string, status types.Status) {}
func (n *noOpProgressIndicator) CompleteSuite(suiteName string)                  {}
func (n *noOpProgressIndicator) CompleteRun(runID string)                        {}

// logProgressIndicator reports progress through the logger and, while a run
// is active, emits a periodic progress update naming the running case.
type logProgressIndicator struct {
	logger   log.Logger
	interval time.Duration
	now      func() time.Time
	mu       sync.RWMutex

	ticker *time.Ticker
	stopCh chan struct{}

	currentSuite   string
	currentCase    string
	caseStart      time.Time
	completedCases int
	totalCases     int
	runStartTime   time.Time
	suiteStartTime time.Time
}

// NewLogProgressIndicator creates a progress indicator that logs updates
// every updateInterval while a run is active
func NewLogProgressIndicator(logger log.Logger, updateInterval time.Duration) ProgressIndicator {
	if updateInterval == 0 {
		updateInterval = 30 * time.Second
	}
	return &logProgressIndicator{
		logger:   logger,
		interval: updateInterval,
		now:      time.Now,
	}
}

func (c *logProgressIndicator) StartRun(runID string, totalCases int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalCases = totalCases
	c.completedCases = 0
	c.runStartTime = c.now()
	if c.ticker == nil {
		c.ticker = time.NewTicker(c.interval)
		c.stopCh = make(chan struct{})
		go c.progressReporter(c.ticker, c.stopCh)
	}

	c.logger.Info("Starting run", "run_id", runID, "totalCases", totalCases)
}

func (c *logProgressIndicator) StartSuite(suiteName string, totalCases int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentSuite = suiteName
	c.suiteStartTime = c.now()
	c.logger.Info("Starting suite", "suite", suiteName, "suiteCases", totalCases)
}

func (c *logProgressIndicator) StartCase(caseName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentCase = caseName
	c.caseStart = c.now()
	c.logger.Debug("Case started", "case", caseName)
}

func (c *logProgressIndicator) UpdateCase(caseName string, status types.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentCase = ""
	c.completedCases++
	c.logger.Debug("Case completed", "case", caseName, "status", status, "completed", c.completedCases, "total", c.totalCases)
}

func (c *logProgressIndicator) CompleteSuite(suiteName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	duration := c.now().Sub(c.suiteStartTime).Truncate(time.Millisecond)
	c.logger.Info("Completed suite", "suite", suiteName, "duration", duration)
	c.currentSuite = ""
}

func (c *logProgressIndicator) CompleteRun(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ticker != nil {
		c.ticker.Stop()
		close(c.stopCh)
		c.ticker = nil
	}
	duration := c.now().Sub(c.runStartTime).Truncate(time.Millisecond)
	c.logger.Info("Completed run", "run_id", runID, "completed", c.completedCases, "total", c.totalCases, "duration", duration)
}

// progressReporter runs in a goroutine and periodically reports progress
func (c *logProgressIndicator) progressReporter(ticker *time.Ticker, stopCh chan struct{}) {
	for {
		select {
		case <-ticker.C:
			c.reportProgress()
		case <-stopCh:
			return
		}
	}
}

func (c *logProgressIndicator) reportProgress() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var percentComplete float64
	if c.totalCases > 0 {
		percentComplete = float64(c.completedCases) * 100.0 / float64(c.totalCases)
	}

	running := ""
	if c.currentCase != "" {
		running = fmt.Sprintf("%s (%v)", c.currentCase, c.now().Sub(c.caseStart).Truncate(time.Second))
	}

	c.logger.Info("Progress update",
		"suite", c.currentSuite,
		"completed", c.completedCases,
		"total", c.totalCases,
		"percent", fmt.Sprintf("%.1f%%", percentComplete),
		"running", running,
	)
}
