package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/LJTian/NewsDesk/internal/aggregator"
	"github.com/LJTian/NewsDesk/internal/config"
	"github.com/LJTian/NewsDesk/internal/desk"
	"github.com/LJTian/NewsDesk/internal/model"
)

func TestPrintOutcomes(t *testing.T) {
	var buf bytes.Buffer
	printOutcomes(&buf, []aggregator.Outcome{
		{Category: model.TopStories, Status: aggregator.StatusFulfilled, Articles: []model.Article{{Headline: "Big story", URL: "u"}}},
		{Category: model.Opinion, Status: aggregator.StatusFulfilled, Articles: []model.Article{}},
		{Category: model.NYEvents, Status: aggregator.StatusRejected, Articles: []model.Article{}, Error: "boom"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "topStories") || !strings.Contains(lines[0], " 1 articles") || !strings.Contains(lines[0], "top: Big story") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if strings.Contains(lines[1], "top:") {
		t.Errorf("empty category should not print a headline: %q", lines[1])
	}
	if !strings.Contains(lines[2], "rejected") || !strings.Contains(lines[2], "error: boom") {
		t.Errorf("unexpected rejected line %q", lines[2])
	}
}

func TestForceTakesNoArguments(t *testing.T) {
	flagForce = true
	defer func() { flagForce = false }()

	if err := runCollect(rootCmd, []string{"topStories"}); err == nil {
		t.Fatalf("expected error when --force is combined with categories")
	}
}

func TestCollectByName(t *testing.T) {
	d, err := desk.FromConfig(&config.Config{
		CacheBackend:    config.BackendMemory,
		RefreshInterval: 24 * time.Hour,
		MaxArticles:     10,
	}, nil)
	if err != nil {
		t.Fatalf("desk: %v", err)
	}
	defer d.Close()

	outcomes, err := collect(context.Background(), d, []string{"opinion", "usNews"}, false)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(outcomes) != 2 || outcomes[0].Category != model.Opinion || outcomes[1].Category != model.USNews {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}

	if _, err := collect(context.Background(), d, []string{"opinion", "sports"}, false); err == nil {
		t.Fatalf("expected error for unknown category")
	}

	if all, _ := collect(context.Background(), d, nil, false); len(all) != len(model.Categories()) {
		t.Fatalf("expected every category, got %d", len(all))
	}
}
