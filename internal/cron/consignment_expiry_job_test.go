package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rtavares/movelaria-backend/pkg/logger"
)

type fakeExpirer struct {
	count int
	err   error
	calls []time.Time
}

func (f *fakeExpirer) ExpireOverdueConsignments(ctx context.Context, now time.Time) (int, error) {
	f.calls = append(f.calls, now)
	return f.count, f.err
}

func TestConsignmentExpiryJobSweepsAtFrozenClock(t *testing.T) {
	now := time.Date(2026, 2, 14, 8, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{count: 3}
	jobIface, err := NewConsignmentExpiryJob(ConsignmentExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Orders: expirer,
	})
	if err != nil {
		t.Fatalf("NewConsignmentExpiryJob: %v", err)
	}
	job, ok := jobIface.(*consignmentExpiryJob)
	if !ok {
		t.Fatalf("expected consignmentExpiryJob, got %T", jobIface)
	}
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(expirer.calls) != 1 {
		t.Fatalf("expected 1 sweep, got %d", len(expirer.calls))
	}
	if !expirer.calls[0].Equal(now) {
		t.Fatalf("sweep clock = %s, want %s", expirer.calls[0], now)
	}
}

func TestConsignmentExpiryJobPropagatesSweepError(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db down")}
	job, err := NewConsignmentExpiryJob(ConsignmentExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Orders: expirer,
	})
	if err != nil {
		t.Fatalf("NewConsignmentExpiryJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep error to propagate")
	}
}

func TestConsignmentExpiryJobRequiresDeps(t *testing.T) {
	if _, err := NewConsignmentExpiryJob(ConsignmentExpiryJobParams{
		Orders: &fakeExpirer{},
	}); err == nil {
		t.Fatal("expected logger requirement")
	}
	if _, err := NewConsignmentExpiryJob(ConsignmentExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
	}); err == nil {
		t.Fatal("expected orders requirement")
	}
}
