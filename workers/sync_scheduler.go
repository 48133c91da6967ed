package workers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Syncer runs syncChats for every syncable instance of every organization.
type Syncer interface {
	SyncAll(ctx context.Context) (int, error)
}

// SyncScheduler dispara a sincronização periódica de chats.
// Execuções nunca se sobrepõem: se a anterior ainda roda, o disparo é pulado.
type SyncScheduler struct {
	cron    *cron.Cron
	syncer  Syncer
	timeout time.Duration
	entry   cron.EntryID
}

// NewSyncScheduler valida o schedule (cron de 5 campos ou "@every 10m").
// Schedule vazio desliga o agendamento e retorna (nil, nil).
func NewSyncScheduler(schedule string, syncer Syncer, timeout time.Duration) (*SyncScheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("sync schedule inválido %q: %w", schedule, err)
	}

	s := &SyncScheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(log.Default())),
			cron.SkipIfStillRunning(cron.PrintfLogger(log.Default())),
		)),
		syncer:  syncer,
		timeout: timeout,
	}
	id, err := s.cron.AddFunc(schedule, s.RunOnce)
	if err != nil {
		return nil, fmt.Errorf("sync schedule inválido %q: %w", schedule, err)
	}
	s.entry = id
	return s, nil
}

func (s *SyncScheduler) Start() {
	s.cron.Start()
	log.Printf("sync scheduler: started, next run at %s", s.Next().Format(time.RFC3339))
}

// Stop waits for a running sync to finish.
func (s *SyncScheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Printf("sync scheduler: stopped")
}

// Next returns the next scheduled run (zero before Start).
func (s *SyncScheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// RunOnce runs one full sync pass.
func (s *SyncScheduler) RunOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := s.syncer.SyncAll(ctx)
	if err != nil {
		log.Printf("sync scheduler: run failed after %d instance(s): %v", n, err)
		return
	}
	log.Printf("sync scheduler: %d instance(s) synced in %s", n, time.Since(start))
}
