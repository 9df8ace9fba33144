package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/NewsDesk/internal/aggregator"
	"github.com/robfig/cron/v3"
)

// Refresher 定时任务需要的能力，desk.Desk 满足
type Refresher interface {
	FetchAll(ctx context.Context) []aggregator.Outcome
}

type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	// startupDelay 首轮刷新的延迟，<= 0 表示不做首轮刷新
	startupDelay time.Duration
	// jobTimeout 单轮刷新的整体超时
	jobTimeout time.Duration
}

const (
	defaultStartupDelay = 15 * time.Second
	defaultJobTimeout   = 2 * time.Minute
)

func New(spec string, refresher Refresher) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:         c,
		refresher:    refresher,
		startupDelay: defaultStartupDelay,
		jobTimeout:   defaultJobTimeout,
	}

	_, err := c.AddFunc(spec, s.runOnce)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if s.startupDelay <= 0 {
		return
	}
	// 延迟执行首轮刷新，避免与用户首次打开页面的请求争抢资源
	time.AfterFunc(s.startupDelay, func() {
		go s.runOnce()
	})
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Cron 暴露底层 cron，方便挂额外任务
func (s *Scheduler) Cron() *cron.Cron {
	return s.cron
}

// RunOnce 对外暴露的单次执行入口，方便手动触发刷新
func (s *Scheduler) RunOnce() []aggregator.Outcome {
	return s.runOnceWithResult()
}

func (s *Scheduler) runOnce() {
	s.runOnceWithResult()
}

func (s *Scheduler) runOnceWithResult() []aggregator.Outcome {
	log.Println("start refresh job...")
	began := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	outcomes := s.refresher.FetchAll(ctx)
	articles, rejected := 0, 0
	for _, o := range outcomes {
		if o.Status == aggregator.StatusRejected {
			rejected++
			log.Printf("refresh %s rejected: %s", o.Category, o.Error)
			continue
		}
		articles += len(o.Articles)
	}

	log.Printf("refresh job done (categories=%d articles=%d rejected=%d took=%s)",
		len(outcomes), articles, rejected, time.Since(began).Round(time.Millisecond))
	return outcomes
}
