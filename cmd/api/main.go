package main

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/NewsDesk/internal/api"
	"github.com/LJTian/NewsDesk/internal/config"
	"github.com/LJTian/NewsDesk/internal/desk"
	"github.com/LJTian/NewsDesk/internal/metrics"
	"github.com/LJTian/NewsDesk/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	d, err := desk.FromConfig(cfg, m)
	if err != nil {
		log.Fatalf("init desk failed: %v", err)
	}
	defer d.Close()

	// 启动时读一遍缓存，后端不可用时直接退出
	warmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := d.Warm(warmCtx); err != nil {
		cancel()
		log.Fatalf("warm cache failed: %v", err)
	}
	cancel()

	// 定时检查新内容；缓存未过期的分区不会真的请求上游
	s, err := scheduler.New(cfg.CheckCron, d)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()
	defer s.Stop()

	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(d, reg)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}
