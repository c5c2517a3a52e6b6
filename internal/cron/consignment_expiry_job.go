package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/rtavares/movelaria-backend/pkg/logger"
)

type consignmentExpirer interface {
	ExpireOverdueConsignments(ctx context.Context, now time.Time) (int, error)
}

// ConsignmentExpiryJobParams configure the consignment deadline sweeper.
type ConsignmentExpiryJobParams struct {
	Logger *logger.Logger
	Orders consignmentExpirer
}

// NewConsignmentExpiryJob builds the job that flips open consignments past
// their agreed deadline to expired. Expired consignments keep their stock
// holds until someone settles or returns them.
func NewConsignmentExpiryJob(params ConsignmentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &consignmentExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		now:    time.Now,
	}, nil
}

type consignmentExpiryJob struct {
	logg   *logger.Logger
	orders consignmentExpirer
	now    func() time.Time
}

func (j *consignmentExpiryJob) Name() string { return "consignment-expiry" }

func (j *consignmentExpiryJob) Run(ctx context.Context) error {
	count, err := j.orders.ExpireOverdueConsignments(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("expire overdue consignments: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "consignment expiration sweep complete")
	return nil
}
